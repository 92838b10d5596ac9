package template

import (
	"fmt"
	"strings"
)

// ParseError reports a template grammar violation, per spec.md §4.1.
type ParseError struct {
	Source string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid template %q: %s", e.Source, e.Reason)
}

const (
	chainPrefix = "chains."
	envPrefix   = "env."
)

// Parse parses a template source string into a Template. Two calls to Parse
// with the same source string always produce equal chunk sequences.
func Parse(src string) (*Template, error) {
	if src == "" {
		return &Template{}, nil
	}

	var chunks []Chunk
	var raw strings.Builder
	flushRaw := func() {
		if raw.Len() > 0 {
			chunks = append(chunks, Chunk{Raw: raw.String()})
			raw.Reset()
		}
	}

	i := 0
	for i < len(src) {
		if src[i] != '{' {
			raw.WriteByte(src[i])
			i++
			continue
		}

		// Key open: "{{".
		if i+1 < len(src) && src[i+1] == '{' {
			flushRaw()
			key, next, err := parseKey(src, i)
			if err != nil {
				return nil, err
			}
			chunks = append(chunks, Chunk{IsKey: true, Key: key})
			i = next
			continue
		}

		// Escape: "{" "_"+ &"{".
		j := i + 1
		for j < len(src) && src[j] == '_' {
			j++
		}
		if j > i+1 && j < len(src) && src[j] == '{' {
			n := j - (i + 1)
			raw.WriteByte('{')
			raw.WriteString(strings.Repeat("_", n-1))
			i = j // the final "{" is left unconsumed for the next iteration
			continue
		}

		// A lone "{" that doesn't open a key or start a valid escape is
		// just literal text.
		raw.WriteByte('{')
		i++
	}
	flushRaw()

	return &Template{chunks: chunks}, nil
}

// parseKey parses a "{{ ... }}" key starting at position start (where
// src[start:start+2] == "{{"), returning the key and the index just past
// the closing "}}".
func parseKey(src string, start int) (Key, int, error) {
	// Keys must close on the same line; search only up to the next newline.
	bodyStart := start + 2
	end := strings.Index(src[bodyStart:], "}}")
	if nl := strings.IndexByte(src[bodyStart:], '\n'); nl >= 0 && (end < 0 || nl < end) {
		return Key{}, 0, &ParseError{Source: src, Reason: "unclosed key: key must close on the same line"}
	}
	if end < 0 {
		return Key{}, 0, &ParseError{Source: src, Reason: "unclosed key"}
	}
	inner := src[bodyStart : bodyStart+end]
	if strings.ContainsAny(inner, " \t") {
		return Key{}, 0, &ParseError{Source: src, Reason: fmt.Sprintf("whitespace is not permitted inside a key: %q", inner)}
	}

	key, err := parseKeyBody(src, inner)
	if err != nil {
		return Key{}, 0, err
	}
	return key, bodyStart + end + 2, nil
}

func parseKeyBody(src, inner string) (Key, error) {
	switch {
	case strings.HasPrefix(inner, chainPrefix):
		ident := inner[len(chainPrefix):]
		if err := validateIdentifier(src, ident); err != nil {
			return Key{}, err
		}
		return Key{Kind: KeyChain, Name: ident}, nil
	case strings.HasPrefix(inner, envPrefix):
		ident := inner[len(envPrefix):]
		if err := validateIdentifier(src, ident); err != nil {
			return Key{}, err
		}
		return Key{Kind: KeyEnvironment, Name: ident}, nil
	case strings.Contains(inner, "."):
		return Key{}, &ParseError{Source: src, Reason: fmt.Sprintf("unrecognized dotted key prefix in %q: only \"chains.\" and \"env.\" are supported", inner)}
	default:
		if err := validateIdentifier(src, inner); err != nil {
			return Key{}, err
		}
		return Key{Kind: KeyField, Name: inner}, nil
	}
}

func validateIdentifier(src, ident string) error {
	if ident == "" {
		return &ParseError{Source: src, Reason: "empty identifier"}
	}
	for _, r := range ident {
		if !isIdentChar(r) {
			return &ParseError{Source: src, Reason: fmt.Sprintf("identifier %q contains disallowed character %q", ident, r)}
		}
	}
	return nil
}

func isIdentChar(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-':
		return true
	default:
		return false
	}
}

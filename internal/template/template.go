// Package template implements the restpilot template grammar: parsing a
// template source string into an immutable chunk sequence of raw text and
// template keys, per spec.md §3 and §4.1. Rendering those chunks into bytes
// lives in package render; this package only owns the grammar and the
// in-memory representation.
package template

import "strings"

// KeyKind identifies which namespace a TemplateKey resolves against.
type KeyKind int

const (
	// KeyField references a field on the selected profile.
	KeyField KeyKind = iota
	// KeyChain references a named chain.
	KeyChain
	// KeyEnvironment references a process environment variable.
	KeyEnvironment
)

func (k KeyKind) String() string {
	switch k {
	case KeyField:
		return "field"
	case KeyChain:
		return "chains"
	case KeyEnvironment:
		return "env"
	default:
		return "unknown"
	}
}

// Key is a parsed `{{ ... }}` template key.
type Key struct {
	Kind KeyKind
	// Name is the identifier inside the key: the field name, chain id, or
	// environment variable name.
	Name string
}

// Display renders the key back to its `{{ ... }}` source form, e.g.
// "{{chains.c1}}" or "{{user_id}}".
func (k Key) Display() string {
	switch k.Kind {
	case KeyChain:
		return "{{chains." + k.Name + "}}"
	case KeyEnvironment:
		return "{{env." + k.Name + "}}"
	default:
		return "{{" + k.Name + "}}"
	}
}

// OverrideKey is the flat string form overrides are keyed by: "chains.x",
// "env.X", or the bare field name. It matches the prefix used inside the
// key body, without the surrounding braces.
func (k Key) OverrideKey() string {
	switch k.Kind {
	case KeyChain:
		return "chains." + k.Name
	case KeyEnvironment:
		return "env." + k.Name
	default:
		return k.Name
	}
}

// Chunk is either raw text or a template key. Exactly one of Raw/Key is set,
// distinguished by IsKey.
type Chunk struct {
	IsKey bool
	Raw   string
	Key   Key
}

// Template is an immutable ordered sequence of chunks. The source string is
// not retained; Parse discards it, and String reconstructs an equivalent
// (not necessarily byte-identical, but re-parseable to the same chunks)
// source form.
//
// Invariant: no two consecutive chunks are both raw (spec.md §3).
type Template struct {
	chunks []Chunk
}

// Chunks returns the parsed chunk sequence. The returned slice must not be
// mutated by callers.
func (t *Template) Chunks() []Chunk {
	return t.chunks
}

// IsEmpty reports whether the template has no chunks (parsed from "").
func (t *Template) IsEmpty() bool {
	return len(t.chunks) == 0
}

// Raw builds a template from a literal string without parsing it, for use
// when importing from external formats whose strings aren't expected to be
// valid templates (spec.md §9, mirroring slumber's Template::raw).
func Raw(s string) *Template {
	if s == "" {
		return &Template{}
	}
	return &Template{chunks: []Chunk{{Raw: s}}}
}

// String reconstructs a source string that reparses to the same chunk
// sequence, re-inserting `{_` escapes as needed so raw text beginning with
// what would otherwise parse as an escape sequence round-trips correctly.
func (t *Template) String() string {
	var b strings.Builder
	for _, c := range t.chunks {
		if c.IsKey {
			b.WriteString(c.Key.Display())
			continue
		}
		writeEscapedRaw(&b, c.Raw)
	}
	return b.String()
}

// writeEscapedRaw writes raw text, re-inserting the "{_" escape lead-in
// wherever a "{" is immediately followed by zero-or-more underscores and
// then another "{" — the exact pattern parse() would otherwise treat
// specially (as a key open, when zero underscores intervene, or as an
// escape sequence itself). Inserting one extra underscore after the
// leading "{" defeats both readings while leaving the trailing "{"
// unconsumed for the next iteration, mirroring parse()'s own escape rule.
func writeEscapedRaw(b *strings.Builder, s string) {
	i := 0
	for i < len(s) {
		if s[i] != '{' {
			b.WriteByte(s[i])
			i++
			continue
		}
		j := i + 1
		for j < len(s) && s[j] == '_' {
			j++
		}
		if j < len(s) && s[j] == '{' {
			b.WriteByte('{')
			b.WriteByte('_')
			b.WriteString(s[i+1 : j])
			i = j
			continue
		}
		b.WriteByte('{')
		i++
	}
}

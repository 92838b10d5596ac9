// Package render resolves parsed templates against a render context: the
// selected profile, a collection's chains, process environment, and (when
// available) an HTTP engine handle for triggered sub-requests. It owns the
// future cache and cycle detection described in spec.md §4.2.
package render

import (
	"fmt"
	"strings"

	"github.com/restpilot/restpilot/internal/template"
)

// Error is the RenderError taxonomy from spec.md §7. Kind discriminates the
// variant; the payload fields relevant to that Kind are populated.
type Error struct {
	Kind  ErrorKind
	Field string // FieldUnknown/FieldNested name the field; ProfileUnknown names the profile id
	Inner error  // FieldNested and Chain wrap an inner error

	ChainID string // Chain
	Stack   []template.Key

	Message string // Deserialization
}

type ErrorKind int

const (
	ErrNoProfileSelected ErrorKind = iota
	ErrProfileUnknown
	ErrFieldUnknown
	ErrFieldNested
	ErrChain
	ErrInfiniteLoop
	ErrInvalidUTF8
	ErrDeserialization
)

func (e *Error) Error() string {
	switch e.Kind {
	case ErrNoProfileSelected:
		return "no profile is selected"
	case ErrProfileUnknown:
		return fmt.Sprintf("unknown profile %q", e.Field)
	case ErrFieldUnknown:
		return fmt.Sprintf("unknown field %q", e.Field)
	case ErrFieldNested:
		return fmt.Sprintf("field %q: %s", e.Field, e.Inner)
	case ErrChain:
		return fmt.Sprintf("chain %q: %s", e.ChainID, e.Inner)
	case ErrInfiniteLoop:
		names := make([]string, len(e.Stack))
		for i, k := range e.Stack {
			names[i] = k.Display()
		}
		return fmt.Sprintf("infinite loop detected: %s", strings.Join(names, " -> "))
	case ErrInvalidUTF8:
		return "rendered value is not valid UTF-8"
	case ErrDeserialization:
		return fmt.Sprintf("deserialization failed: %s", e.Message)
	default:
		return "render error"
	}
}

func (e *Error) Unwrap() error { return e.Inner }

// ChainError is the ChainError taxonomy from spec.md §7, always surfaced
// wrapped in an Error{Kind: ErrChain}.
type ChainError struct {
	Kind ChainErrorKind

	RecipeID string // RecipeUnknown, Trigger
	Argv     []string
	Path     string
	Header   string
	Field    string // Nested

	Inner error // Command, File, Trigger, Nested wrap an underlying error
}

type ChainErrorKind int

const (
	ErrChainUnknown ChainErrorKind = iota
	ErrRecipeUnknown
	ErrNoResponse
	ErrTrigger
	ErrCommand
	ErrCommandMissing
	ErrFile
	ErrPromptNoResponse
	ErrUnknownContentType
	ErrParseResponse
	ErrNoResults
	ErrMultipleResults
	ErrMissingHeader
	ErrDynamicSelectDeserialize
	ErrNested
)

func (e *ChainError) Error() string {
	switch e.Kind {
	case ErrChainUnknown:
		return "unknown chain"
	case ErrRecipeUnknown:
		return fmt.Sprintf("unknown recipe %q", e.RecipeID)
	case ErrNoResponse:
		return "no response in history"
	case ErrTrigger:
		return fmt.Sprintf("triggering request for recipe %q: %s", e.RecipeID, e.Inner)
	case ErrCommand:
		return fmt.Sprintf("executing command %v: %s", e.Argv, e.Inner)
	case ErrCommandMissing:
		return "command source has an empty argv"
	case ErrFile:
		return fmt.Sprintf("reading file %q: %s", e.Path, e.Inner)
	case ErrPromptNoResponse:
		return "prompt channel closed before a response was given"
	case ErrUnknownContentType:
		return "a selector requires a known content type"
	case ErrParseResponse:
		return fmt.Sprintf("parsing response body: %s", e.Inner)
	case ErrNoResults:
		return "selector matched no results"
	case ErrMultipleResults:
		return "selector matched multiple results"
	case ErrMissingHeader:
		return fmt.Sprintf("missing header %q", e.Header)
	case ErrDynamicSelectDeserialize:
		return fmt.Sprintf("dynamic select source did not deserialize to a JSON array: %s", e.Inner)
	case ErrNested:
		return fmt.Sprintf("%s: %s", e.Field, e.Inner)
	default:
		return "chain error"
	}
}

func (e *ChainError) Unwrap() error { return e.Inner }

// TriggerErrorKind classifies a triggered sub-request failure for
// ChainError.Trigger, per spec.md §7's TriggeredRequestError.
type TriggerErrorKind int

const (
	TriggerNotAllowed TriggerErrorKind = iota
	TriggerBuildFailed
	TriggerSendFailed
)

// TriggerOutcomeError is implemented by the httpengine package's build and
// send error types so this package can classify a triggered sub-request's
// failure (Build vs. Send) without importing httpengine, which itself
// depends on render to drive recipe builds (see HTTPEngineHandle).
type TriggerOutcomeError interface {
	error
	TriggerKind() TriggerErrorKind
}

// NotAllowedError is returned by a triggered sub-request when the render
// context carries no HTTP engine handle.
type NotAllowedError struct{}

func (NotAllowedError) Error() string            { return "triggered requests are not allowed in this context" }
func (NotAllowedError) TriggerKind() TriggerErrorKind { return TriggerNotAllowed }

// HasTriggerDisabledError walks a RequestBuildError-shaped error chain for a
// ChainError.Trigger whose inner error reports TriggerNotAllowed, letting a
// caller surface a specific hint without pattern-matching nested error
// types itself (spec.md §9 supplemented feature).
func HasTriggerDisabledError(err error) bool {
	for err != nil {
		if re, ok := err.(*Error); ok && re.Kind == ErrChain {
			if ce, ok := re.Inner.(*ChainError); ok && ce.Kind == ErrTrigger {
				if toe, ok := ce.Inner.(TriggerOutcomeError); ok && toe.TriggerKind() == TriggerNotAllowed {
					return true
				}
			}
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

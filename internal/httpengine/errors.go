package httpengine

import (
	"fmt"
	"time"

	"github.com/restpilot/restpilot/internal/exchange"
	"github.com/restpilot/restpilot/internal/render"
)

// BuildError wraps a failed build (spec.md §7, RequestBuildError): either a
// RenderError from template expansion, or a structural failure assembling
// the request (bad URL, invalid header value, multipart encoding failure).
// It satisfies render.TriggerOutcomeError so a triggered sub-request's
// failure can be classified as Build without the caller needing to
// pattern-match on this package's concrete type.
type BuildError struct {
	ProfileID string
	RecipeID  string
	RequestID string
	Start     time.Time
	End       time.Time
	Inner     error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("building request %s (recipe %q): %s", e.RequestID, e.RecipeID, e.Inner)
}

func (e *BuildError) Unwrap() error { return e.Inner }

func (e *BuildError) TriggerKind() render.TriggerErrorKind { return render.TriggerBuildFailed }

// HasTriggerDisabledError reports whether this build failed because a
// chain's triggered sub-request had no HTTP engine available, walking the
// wrapped RenderError tree via render.HasTriggerDisabledError.
func (e *BuildError) HasTriggerDisabledError() bool {
	return render.HasTriggerDisabledError(e.Inner)
}

// RequestError wraps a failed send (spec.md §7): the request was built
// successfully but the HTTP call itself failed. It carries the request
// record and timings so the caller can still show what was attempted.
type RequestError struct {
	ProfileID string
	RecipeID  string
	RequestID string
	Record    exchange.RequestRecord
	Start     time.Time
	End       time.Time
	Inner     error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("sending request %s (recipe %q): %s", e.RequestID, e.RecipeID, e.Inner)
}

func (e *RequestError) Unwrap() error { return e.Inner }

func (e *RequestError) TriggerKind() render.TriggerErrorKind { return render.TriggerSendFailed }

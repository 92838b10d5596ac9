// Package httpengine renders a collection recipe into an outgoing HTTP
// request and drives the send, per spec.md §4.4. It is the one package
// that imports both render and exchange, and it implements
// render.HTTPEngineHandle so the chain resolver can trigger fresh
// sub-requests without importing this package back.
package httpengine

import (
	"github.com/restpilot/restpilot/internal/collection"
	"github.com/restpilot/restpilot/internal/template"
)

// RequestSeed is the build-time input to the HTTP engine: a request id, the
// recipe to build, and the caller's overrides (spec.md §4.4).
type RequestSeed struct {
	ID       string
	RecipeID string
	Options  BuildOptions
}

// FieldOverride is the per-index override a caller may apply to a header,
// query parameter, or form field: omit it entirely, or replace its value
// template. The zero value means "no override" and must not be stored.
type FieldOverride struct {
	Omit  bool
	Value *template.Template // set iff !Omit
}

// BuildOptions enumerates every override spec.md §4.4 allows a caller to
// inject into a build, each indexed by position since header/query/form
// keys are not unique.
type BuildOptions struct {
	URL             *template.Template
	Authentication  *collection.Authentication
	Headers         map[int]FieldOverride
	QueryParameters map[int]FieldOverride
	FormFields      map[int]FieldOverride
	Body            *collection.RecipeBody // Raw/JSON only; form overrides go through FormFields
}

package collection

import (
	"github.com/restpilot/restpilot/internal/orderedmap"
	"github.com/restpilot/restpilot/internal/template"
)

// BodyKind discriminates the RecipeBody variants from spec.md §3.
type BodyKind int

const (
	BodyRaw BodyKind = iota
	BodyJSON
	BodyFormURLEncoded
	BodyFormMultipart
)

// ContentType is a small, closed set of content types the engine cares
// about structurally (as opposed to arbitrary MIME strings passed through
// headers).
type ContentType string

const (
	ContentTypeJSON ContentType = "application/json"
)

// RecipeBody is the tagged union of body encodings from spec.md §3.
type RecipeBody struct {
	Kind BodyKind

	// BodyRaw
	RawTemplate    *template.Template
	RawContentType ContentType // empty if not declared

	// BodyJSON
	JSONValue JSONNode

	// BodyFormURLEncoded / BodyFormMultipart
	Form orderedmap.List[*template.Template]
}

// JSONNode is a JSON tree whose string leaves are templates (spec.md §3,
// RecipeBody::Json). Implemented as a small discriminated struct rather
// than an interface hierarchy, since the set of JSON node kinds is closed
// and this mirrors how the rest of the collection model represents tagged
// unions (RecipeNode, ChainSource).
type JSONNode struct {
	Kind JSONKind

	StringTemplate *template.Template // JSONString
	Number         float64            // JSONNumber
	NumberRaw      string             // preserves source formatting for round-trip
	Bool           bool               // JSONBool
	Array          []JSONNode         // JSONArray
	Object         *orderedmap.Map[JSONNode] // JSONObject
}

type JSONKind int

const (
	JSONString JSONKind = iota
	JSONNumber
	JSONBool
	JSONNull
	JSONArray
	JSONObject
)

// Authentication is a recipe's authentication scheme.
type AuthenticationKind int

const (
	AuthNone AuthenticationKind = iota
	AuthBasic
	AuthBearer
)

type Authentication struct {
	Kind     AuthenticationKind
	Username *template.Template // Basic
	Password *template.Template // Basic
	Token    *template.Template // Bearer
}

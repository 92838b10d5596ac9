package httpengine

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/restpilot/restpilot/internal/collection"
	"github.com/restpilot/restpilot/internal/orderedmap"
	"github.com/restpilot/restpilot/internal/render"
	"github.com/restpilot/restpilot/internal/template"
)

// headerField is one name/value pair in the ordered header list the engine
// assembles before handing off to net/http.Header (spec.md §4.4's "ordered
// []HeaderField until the final http.Request is built").
type headerField struct {
	Name  string
	Value string
}

// renderIndexedList renders an orderedmap.List of templates, applying
// index-keyed overrides (omit or replace), and stripping incidental
// leading/trailing newlines from each rendered value (spec.md §4.4).
func renderIndexedList(ctx context.Context, list orderedmap.List[*template.Template], overrides map[int]FieldOverride, rc *render.Context) ([]orderedmap.Pair[string], error) {
	values := make([]string, len(list))
	present := make([]bool, len(list))

	g, gctx := errgroup.WithContext(ctx)
	for i, pair := range list {
		i, pair := i, pair
		tpl := pair.Value
		if ov, ok := overrides[i]; ok {
			if ov.Omit {
				continue
			}
			tpl = ov.Value
		}
		present[i] = true
		g.Go(func() error {
			v, err := render.RenderText(gctx, tpl, rc)
			if err != nil {
				return err
			}
			values[i] = stripIncidentalNewlines(v)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]orderedmap.Pair[string], 0, len(list))
	for i, pair := range list {
		if present[i] {
			out = append(out, orderedmap.Pair[string]{Key: pair.Key, Value: values[i]})
		}
	}
	return out, nil
}

// buildHeaders assembles the final ordered header list per spec.md §4.4:
// body-implied Content-Type first, then explicit headers (overwriting that
// implicit entry by name, not appending to it), then an authentication
// header appended last — duplicates among explicit/auth headers are
// preserved.
func buildHeaders(explicit []orderedmap.Pair[string], implicitContentType string, hasImplicitContentType bool, authHeader *headerField) []headerField {
	var out []headerField
	contentTypeIdx := -1
	if hasImplicitContentType {
		out = append(out, headerField{Name: "Content-Type", Value: implicitContentType})
		contentTypeIdx = 0
	}

	for _, h := range explicit {
		if contentTypeIdx >= 0 && strings.EqualFold(h.Key, "Content-Type") {
			out[contentTypeIdx] = headerField{Name: h.Key, Value: h.Value}
			continue
		}
		out = append(out, headerField{Name: h.Key, Value: h.Value})
	}

	if authHeader != nil {
		out = append(out, *authHeader)
	}
	return out
}

// buildAuthHeader renders a recipe's (possibly overridden) authentication
// scheme into its single resulting header, if any.
func buildAuthHeader(ctx context.Context, auth *collection.Authentication, rc *render.Context) (*headerField, error) {
	if auth == nil {
		return nil, nil
	}
	switch auth.Kind {
	case collection.AuthBasic:
		user, err := render.RenderText(ctx, auth.Username, rc)
		if err != nil {
			return nil, err
		}
		pass, err := render.RenderText(ctx, auth.Password, rc)
		if err != nil {
			return nil, err
		}
		return &headerField{Name: "Authorization", Value: "Basic " + basicAuthValue(user, pass)}, nil
	case collection.AuthBearer:
		token, err := render.RenderText(ctx, auth.Token, rc)
		if err != nil {
			return nil, err
		}
		return &headerField{Name: "Authorization", Value: "Bearer " + token}, nil
	default:
		return nil, nil
	}
}

// buildQueryString renders query, preserving insertion order and duplicate
// keys exactly (net/url.Values.Encode sorts keys alphabetically, which
// would silently reorder a recipe's query list, so the engine encodes it
// by hand).
func buildQueryString(query []orderedmap.Pair[string]) string {
	var b strings.Builder
	for i, p := range query {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(queryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(queryEscape(p.Value))
	}
	return b.String()
}

package httpengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/restpilot/restpilot/internal/collection"
	"github.com/restpilot/restpilot/internal/orderedmap"
	"github.com/restpilot/restpilot/internal/render"
	"github.com/restpilot/restpilot/internal/template"
)

// builtBody is the outcome of rendering a RecipeBody: the bytes to send (if
// any) and the Content-Type the body itself implies, which the header
// assembly step may still be overridden by an explicit header (spec.md
// §4.4).
type builtBody struct {
	bytes          []byte
	hasBytes       bool
	contentType    string
	hasContentType bool
}

// renderBody dispatches on body.Kind per spec.md §4.4's body behavior
// table. fields carries the caller's FormFields overrides (by position),
// relevant only for FormUrlencoded/FormMultipart.
func renderBody(ctx context.Context, body *collection.RecipeBody, fields map[int]FieldOverride, rc *render.Context, boundary func() string) (builtBody, error) {
	if body == nil {
		return builtBody{}, nil
	}
	switch body.Kind {
	case collection.BodyRaw:
		return renderRawBody(ctx, body, rc)
	case collection.BodyJSON:
		return renderJSONBody(ctx, body, rc)
	case collection.BodyFormURLEncoded:
		return renderFormURLEncodedBody(ctx, body.Form, fields, rc)
	case collection.BodyFormMultipart:
		return renderFormMultipartBody(ctx, body.Form, fields, rc, boundary)
	default:
		return builtBody{}, fmt.Errorf("unknown body kind %v", body.Kind)
	}
}

func renderRawBody(ctx context.Context, body *collection.RecipeBody, rc *render.Context) (builtBody, error) {
	raw, err := render.RenderBytes(ctx, body.RawTemplate, rc)
	if err != nil {
		return builtBody{}, err
	}
	if body.RawContentType != collection.ContentTypeJSON {
		return builtBody{bytes: raw, hasBytes: true}, nil
	}

	// Raw + content_type=Json: reparse for normalization; a malformed
	// body fails the build rather than being sent verbatim (spec.md §4.4).
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return builtBody{}, &render.Error{Kind: render.ErrDeserialization, Message: err.Error()}
	}
	normalized, err := json.Marshal(v)
	if err != nil {
		return builtBody{}, &render.Error{Kind: render.ErrDeserialization, Message: err.Error()}
	}
	return builtBody{bytes: normalized, hasBytes: true, contentType: string(collection.ContentTypeJSON), hasContentType: true}, nil
}

func renderJSONBody(ctx context.Context, body *collection.RecipeBody, rc *render.Context) (builtBody, error) {
	value, err := renderJSONNode(ctx, body.JSONValue, rc)
	if err != nil {
		return builtBody{}, err
	}
	out, err := json.Marshal(value)
	if err != nil {
		return builtBody{}, &render.Error{Kind: render.ErrDeserialization, Message: err.Error()}
	}
	return builtBody{bytes: out, hasBytes: true, contentType: string(collection.ContentTypeJSON), hasContentType: true}, nil
}

// renderJSONNode recursively renders a JSONNode into a plain Go value
// suitable for encoding/json, per spec.md §4.4: string leaves are
// templates; a string template consisting of exactly one key has its
// rendered value reparsed as JSON and substituted structurally, otherwise
// the rendered text becomes a JSON string.
func renderJSONNode(ctx context.Context, node collection.JSONNode, rc *render.Context) (interface{}, error) {
	switch node.Kind {
	case collection.JSONString:
		text, err := render.RenderText(ctx, node.StringTemplate, rc)
		if err != nil {
			return nil, err
		}
		if isSingleKeyTemplate(node.StringTemplate) {
			var v interface{}
			if err := json.Unmarshal([]byte(text), &v); err != nil {
				return nil, &render.Error{Kind: render.ErrDeserialization, Message: err.Error()}
			}
			return v, nil
		}
		return text, nil
	case collection.JSONNumber:
		return node.Number, nil
	case collection.JSONBool:
		return node.Bool, nil
	case collection.JSONNull:
		return nil, nil
	case collection.JSONArray:
		out := make([]interface{}, len(node.Array))
		g, _ := errgroup.WithContext(ctx)
		for i, elem := range node.Array {
			i, elem := i, elem
			g.Go(func() error {
				v, err := renderJSONNode(ctx, elem, rc)
				if err != nil {
					return err
				}
				out[i] = v
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return out, nil
	case collection.JSONObject:
		out := make(map[string]interface{}, node.Object.Len())
		var mu sync.Mutex
		g, _ := errgroup.WithContext(ctx)
		for _, key := range node.Object.Keys() {
			key := key
			elem, _ := node.Object.Get(key)
			g.Go(func() error {
				v, err := renderJSONNode(ctx, elem, rc)
				if err != nil {
					return err
				}
				mu.Lock()
				out[key] = v
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown JSON node kind %v", node.Kind)
	}
}

func isSingleKeyTemplate(tpl *template.Template) bool {
	chunks := tpl.Chunks()
	return len(chunks) == 1 && chunks[0].IsKey
}

func renderFormURLEncodedBody(ctx context.Context, form orderedmap.List[*template.Template], fields map[int]FieldOverride, rc *render.Context) (builtBody, error) {
	rendered, err := renderFormFields(ctx, form, fields, rc)
	if err != nil {
		return builtBody{}, err
	}
	var buf bytes.Buffer
	for i, f := range rendered {
		if i > 0 {
			buf.WriteByte('&')
		}
		buf.WriteString(url.QueryEscape(f.Key))
		buf.WriteByte('=')
		buf.WriteString(url.QueryEscape(f.Value))
	}
	return builtBody{bytes: buf.Bytes(), hasBytes: true, contentType: "application/x-www-form-urlencoded", hasContentType: true}, nil
}

func renderFormMultipartBody(ctx context.Context, form orderedmap.List[*template.Template], fields map[int]FieldOverride, rc *render.Context, boundary func() string) (builtBody, error) {
	rendered, err := renderFormFields(ctx, form, fields, rc)
	if err != nil {
		return builtBody{}, err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if boundary != nil {
		if b := boundary(); b != "" {
			if err := w.SetBoundary(b); err != nil {
				return builtBody{}, fmt.Errorf("setting multipart boundary: %w", err)
			}
		}
	}
	for _, f := range rendered {
		part, err := w.CreateFormField(f.Key)
		if err != nil {
			return builtBody{}, fmt.Errorf("creating form field %q: %w", f.Key, err)
		}
		if _, err := part.Write([]byte(f.Value)); err != nil {
			return builtBody{}, fmt.Errorf("writing form field %q: %w", f.Key, err)
		}
	}
	if err := w.Close(); err != nil {
		return builtBody{}, fmt.Errorf("closing multipart writer: %w", err)
	}
	return builtBody{bytes: buf.Bytes(), hasBytes: true, contentType: w.FormDataContentType(), hasContentType: true}, nil
}

type renderedField struct {
	Key   string
	Value string
}

// renderFormFields renders every non-omitted field of form concurrently,
// applying index-keyed overrides the same way headers/query do, then
// strips incidental leading/trailing newlines the same way header values
// are post-processed (spec.md §4.4).
func renderFormFields(ctx context.Context, form orderedmap.List[*template.Template], fields map[int]FieldOverride, rc *render.Context) ([]renderedField, error) {
	values := make([]string, len(form))
	present := make([]bool, len(form))

	g, gctx := errgroup.WithContext(ctx)
	for i, pair := range form {
		i, pair := i, pair
		tpl := pair.Value
		if ov, ok := fields[i]; ok {
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

	out := make([]renderedField, 0, len(form))
	for i, pair := range form {
		if present[i] {
			out = append(out, renderedField{Key: pair.Key, Value: values[i]})
		}
	}
	return out, nil
}

func stripIncidentalNewlines(s string) string {
	return strings.Trim(s, "\n\r")
}

package httpengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restpilot/restpilot/internal/collection"
	"github.com/restpilot/restpilot/internal/orderedmap"
)

func TestRenderBody_nilIsEmpty(t *testing.T) {
	got, err := renderBody(context.Background(), nil, nil, nil, nil)
	require.NoError(t, err)
	assert.False(t, got.hasBytes)
	assert.False(t, got.hasContentType)
}

func TestRenderRawBody_plainTextHasNoImplicitContentType(t *testing.T) {
	rc := newRecipeContext(t, &collection.Recipe{ID: "r1"})
	body := &collection.RecipeBody{Kind: collection.BodyRaw, RawTemplate: tpl(t, "hello world")}

	got, err := renderBody(context.Background(), body, nil, rc, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(got.bytes))
	assert.False(t, got.hasContentType)
}

func TestRenderRawBody_jsonContentTypeRenormalizes(t *testing.T) {
	rc := newRecipeContext(t, &collection.Recipe{ID: "r1"})
	body := &collection.RecipeBody{
		Kind:           collection.BodyRaw,
		RawTemplate:    tpl(t, `{"b": 2, "a": 1}`),
		RawContentType: collection.ContentTypeJSON,
	}

	got, err := renderBody(context.Background(), body, nil, rc, nil)
	require.NoError(t, err)
	assert.True(t, got.hasContentType)
	assert.Equal(t, "application/json", got.contentType)
	assert.JSONEq(t, `{"b": 2, "a": 1}`, string(got.bytes))
}

func TestRenderRawBody_malformedJSONFailsBuild(t *testing.T) {
	rc := newRecipeContext(t, &collection.Recipe{ID: "r1"})
	body := &collection.RecipeBody{
		Kind:           collection.BodyRaw,
		RawTemplate:    tpl(t, `{not valid json`),
		RawContentType: collection.ContentTypeJSON,
	}

	_, err := renderBody(context.Background(), body, nil, rc, nil)
	require.Error(t, err)
}

func TestRenderJSONBody_singleKeyTemplateSubstitutesStructurally(t *testing.T) {
	rc := newProfileContext(t, map[string]string{"nested": `{"x":1,"y":[1,2,3]}`})
	obj := orderedmap.New[collection.JSONNode]()
	obj.Set("data", collection.JSONNode{Kind: collection.JSONString, StringTemplate: tpl(t, "{{nested}}")})
	obj.Set("label", collection.JSONNode{Kind: collection.JSONString, StringTemplate: tpl(t, "plain-{{nested}}-text")})
	body := &collection.RecipeBody{Kind: collection.BodyJSON, JSONValue: collection.JSONNode{Kind: collection.JSONObject, Object: obj}}

	got, err := renderBody(context.Background(), body, nil, rc, nil)
	require.NoError(t, err)
	assert.Equal(t, "application/json", got.contentType)
	assert.JSONEq(t, `{"data":{"x":1,"y":[1,2,3]},"label":"plain-{\"x\":1,\"y\":[1,2,3]}-text"}`, string(got.bytes))
}

func TestRenderJSONBody_scalarsAndArrays(t *testing.T) {
	rc := newRecipeContext(t, &collection.Recipe{ID: "r1"})
	node := collection.JSONNode{
		Kind: collection.JSONArray,
		Array: []collection.JSONNode{
			{Kind: collection.JSONNumber, Number: 1},
			{Kind: collection.JSONBool, Bool: true},
			{Kind: collection.JSONNull},
			{Kind: collection.JSONString, StringTemplate: tpl(t, "hi")},
		},
	}
	body := &collection.RecipeBody{Kind: collection.BodyJSON, JSONValue: node}

	got, err := renderBody(context.Background(), body, nil, rc, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[1, true, null, "hi"]`, string(got.bytes))
}

func TestRenderFormURLEncodedBody_orderAndOmission(t *testing.T) {
	rc := newRecipeContext(t, &collection.Recipe{ID: "r1"})
	form := templateList(t, "mode", "sudo", "fast", "true", "skip", "me")
	fields := map[int]FieldOverride{2: {Omit: true}}

	got, err := renderBody(context.Background(), &collection.RecipeBody{Kind: collection.BodyFormURLEncoded, Form: form}, fields, rc, nil)
	require.NoError(t, err)
	assert.Equal(t, "application/x-www-form-urlencoded", got.contentType)
	assert.Equal(t, "mode=sudo&fast=true", string(got.bytes))
}

func TestRenderFormMultipartBody_deterministicBoundary(t *testing.T) {
	rc := newRecipeContext(t, &collection.Recipe{ID: "r1"})
	form := templateList(t, "name", "restpilot")
	boundary := func() string { return "fixed-boundary" }

	got, err := renderBody(context.Background(), &collection.RecipeBody{Kind: collection.BodyFormMultipart, Form: form}, nil, rc, boundary)
	require.NoError(t, err)
	assert.Contains(t, got.contentType, "fixed-boundary")
	assert.Contains(t, string(got.bytes), "fixed-boundary")
	assert.Contains(t, string(got.bytes), `name="name"`)
	assert.Contains(t, string(got.bytes), "restpilot")
}

func TestStripIncidentalNewlines(t *testing.T) {
	assert.Equal(t, "value", stripIncidentalNewlines("\nvalue\n"))
	assert.Equal(t, "value", stripIncidentalNewlines("value"))
}

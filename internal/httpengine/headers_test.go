package httpengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restpilot/restpilot/internal/collection"
	"github.com/restpilot/restpilot/internal/orderedmap"
)

func TestBuildHeaders_contentTypeOverwrittenNotDuplicated(t *testing.T) {
	explicit := []orderedmap.Pair[string]{
		{Key: "Content-Type", Value: "text/plain"},
		{Key: "X-Trace", Value: "abc"},
	}
	out := buildHeaders(explicit, "application/json", true, nil)

	require.Len(t, out, 2)
	assert.Equal(t, headerField{Name: "Content-Type", Value: "text/plain"}, out[0])
	assert.Equal(t, headerField{Name: "X-Trace", Value: "abc"}, out[1])
}

func TestBuildHeaders_authAppendedLastDuplicatesPreserved(t *testing.T) {
	explicit := []orderedmap.Pair[string]{
		{Key: "Authorization", Value: "Custom abc"},
	}
	auth := &headerField{Name: "Authorization", Value: "Bearer xyz"}
	out := buildHeaders(explicit, "", false, auth)

	require.Len(t, out, 2)
	assert.Equal(t, "Custom abc", out[0].Value)
	assert.Equal(t, "Bearer xyz", out[1].Value)
}

func TestBuildHeaders_noImplicitContentType(t *testing.T) {
	out := buildHeaders(nil, "", false, nil)
	assert.Empty(t, out)
}

func TestBuildAuthHeader_basic(t *testing.T) {
	auth := &collection.Authentication{Kind: collection.AuthBasic, Username: tpl(t, "alice"), Password: tpl(t, "secret")}
	h, err := buildAuthHeader(context.Background(), auth, nil)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, "Authorization", h.Name)
	assert.Equal(t, "Basic YWxpY2U6c2VjcmV0", h.Value)
}

func TestBuildAuthHeader_bearer(t *testing.T) {
	auth := &collection.Authentication{Kind: collection.AuthBearer, Token: tpl(t, "tok-123")}
	h, err := buildAuthHeader(context.Background(), auth, nil)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, "Bearer tok-123", h.Value)
}

func TestBuildAuthHeader_none(t *testing.T) {
	h, err := buildAuthHeader(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Nil(t, h)
}

func TestBuildQueryString_preservesInsertionOrder(t *testing.T) {
	query := []orderedmap.Pair[string]{
		{Key: "mode", Value: "sudo"},
		{Key: "fast", Value: "true"},
	}
	assert.Equal(t, "mode=sudo&fast=true", buildQueryString(query))
}

func TestRenderIndexedList_overrideReplacesAndOmits(t *testing.T) {
	list := templateList(t, "a", "1", "b", "2", "c", "3")
	overrides := map[int]FieldOverride{
		1: {Omit: true},
		2: {Value: tpl(t, "override")},
	}
	rc := newRecipeContext(t, &collection.Recipe{ID: "r1"})

	out, err := renderIndexedList(context.Background(), list, overrides, rc)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, orderedmap.Pair[string]{Key: "a", Value: "1"}, out[0])
	assert.Equal(t, orderedmap.Pair[string]{Key: "c", Value: "override"}, out[1])
}

func TestRenderIndexedList_stripsIncidentalNewlines(t *testing.T) {
	list := templateList(t, "a", "value\n")
	rc := newRecipeContext(t, &collection.Recipe{ID: "r1"})

	out, err := renderIndexedList(context.Background(), list, nil, rc)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "value", out[0].Value)
}

package contenttype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restpilot/restpilot/internal/collection"
)

func TestFromExtension(t *testing.T) {
	ct, ok := FromExtension("/tmp/data.json")
	require.True(t, ok)
	assert.Equal(t, collection.ContentTypeJSON, ct)

	_, ok = FromExtension("/tmp/data.txt")
	assert.False(t, ok)
}

func TestFromHeader(t *testing.T) {
	cases := []struct {
		header string
		want   collection.ContentType
		ok     bool
	}{
		{"application/json", collection.ContentTypeJSON, true},
		{"application/json; charset=utf-8", collection.ContentTypeJSON, true},
		{"application/vnd.api+json", collection.ContentTypeJSON, true},
		{"text/plain", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		ct, ok := FromHeader(c.header)
		assert.Equal(t, c.ok, ok, c.header)
		if c.ok {
			assert.Equal(t, c.want, ct, c.header)
		}
	}
}

func TestParseJSON(t *testing.T) {
	v, err := ParseJSON([]byte(`{"a": [1, 2, "three"]}`))
	require.NoError(t, err)
	m, ok := v.(map[string]interface{})
	require.True(t, ok)
	arr, ok := m["a"].([]interface{})
	require.True(t, ok)
	assert.Len(t, arr, 3)
}

func TestParseJSON_invalid(t *testing.T) {
	_, err := ParseJSON([]byte(`not json`))
	assert.Error(t, err)
}

package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_chunks(t *testing.T) {
	for name, tc := range map[string]struct {
		src    string
		chunks []Chunk
	}{
		"empty": {
			src:    "",
			chunks: nil,
		},
		"raw only": {
			src:    "hello world",
			chunks: []Chunk{{Raw: "hello world"}},
		},
		"single field": {
			src:    "{{user_id}}",
			chunks: []Chunk{{IsKey: true, Key: Key{Kind: KeyField, Name: "user_id"}}},
		},
		"field between raw": {
			src: "start {{user_id}} end",
			chunks: []Chunk{
				{Raw: "start "},
				{IsKey: true, Key: Key{Kind: KeyField, Name: "user_id"}},
				{Raw: " end"},
			},
		},
		"chain key": {
			src:    "{{chains.c1}}",
			chunks: []Chunk{{IsKey: true, Key: Key{Kind: KeyChain, Name: "c1"}}},
		},
		"env key": {
			src:    "{{env.HOME}}",
			chunks: []Chunk{{IsKey: true, Key: Key{Kind: KeyEnvironment, Name: "HOME"}}},
		},
		"adjacent keys, no raw between": {
			src: "{{a}}{{b}}",
			chunks: []Chunk{
				{IsKey: true, Key: Key{Kind: KeyField, Name: "a"}},
				{IsKey: true, Key: Key{Kind: KeyField, Name: "b"}},
			},
		},
	} {
		t.Run(name, func(t *testing.T) {
			tpl, err := Parse(tc.src)
			require.NoError(t, err)
			assert.Equal(t, tc.chunks, tpl.Chunks())
		})
	}
}

func TestParse_errors(t *testing.T) {
	for name, src := range map[string]string{
		"unclosed key":           "{{user_id",
		"empty identifier":       "{{}}",
		"bad char":               "{{user.id}}",
		"whitespace":             "{{ user_id }}",
		"unclosed across line":   "{{user_id\n}}",
		"unrecognized dot":       "{{foo.bar}}",
		"empty chain identifier": "{{chains.}}",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(src)
			require.Error(t, err)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
		})
	}
}

func TestParse_escape(t *testing.T) {
	tpl, err := Parse("user: {{user_id}} escaped: {_{user_id}}")
	require.NoError(t, err)
	require.Len(t, tpl.Chunks(), 3)
	assert.Equal(t, "user: ", tpl.Chunks()[0].Raw)
	assert.True(t, tpl.Chunks()[1].IsKey)
	assert.Equal(t, " escaped: {{user_id}}", tpl.Chunks()[2].Raw)
}

func TestParse_escapeChain(t *testing.T) {
	// "{___{" (3 underscores) yields "{__" (2 underscores) plus the
	// unconsumed trailing "{", which continues as a lone brace.
	tpl, err := Parse("a{___{b")
	require.NoError(t, err)
	require.Len(t, tpl.Chunks(), 1)
	assert.Equal(t, "a{__{b", tpl.Chunks()[0].Raw)
}

func TestTemplate_sameSourceSameChunks(t *testing.T) {
	src := "start {{user_id}} {{chains.c1}} {{env.HOME}} end"
	a, err := Parse(src)
	require.NoError(t, err)
	b, err := Parse(src)
	require.NoError(t, err)
	assert.Equal(t, a.Chunks(), b.Chunks())
}

func TestTemplate_roundTrip(t *testing.T) {
	for _, src := range []string{
		"",
		"hello world",
		"start {{user_id}} end",
		"{{chains.c1}}",
		"{{env.HOME}}",
		"literal brace { not a key",
		"literal double { { with space between",
		"escaped: {_{user_id}}",
		"a{___{b",
	} {
		t.Run(src, func(t *testing.T) {
			tpl, err := Parse(src)
			require.NoError(t, err)
			reparsed, err := Parse(tpl.String())
			require.NoError(t, err)
			assert.Equal(t, tpl.Chunks(), reparsed.Chunks())
		})
	}
}

func TestTemplate_rawAdjacencyForbidden(t *testing.T) {
	tpl, err := Parse("a{_{b{_{c")
	require.NoError(t, err)
	// Both escapes collapse into a single contiguous raw run; there must
	// never be two consecutive raw chunks.
	require.Len(t, tpl.Chunks(), 1)
}

func TestKey_overrideKeyAndDisplay(t *testing.T) {
	assert.Equal(t, "chains.c1", Key{Kind: KeyChain, Name: "c1"}.OverrideKey())
	assert.Equal(t, "{{chains.c1}}", Key{Kind: KeyChain, Name: "c1"}.Display())
	assert.Equal(t, "env.HOME", Key{Kind: KeyEnvironment, Name: "HOME"}.OverrideKey())
	assert.Equal(t, "user_id", Key{Kind: KeyField, Name: "user_id"}.OverrideKey())
}

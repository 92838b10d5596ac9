package render

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restpilot/restpilot/internal/collection"
	"github.com/restpilot/restpilot/internal/orderedmap"
	"github.com/restpilot/restpilot/internal/template"
)

func contextWithChains(chains *orderedmap.Map[*collection.Chain]) *Context {
	return &Context{
		Collection: mustCollection(chains),
		Overrides:  map[string]string{},
		State:      NewGroupState(),
	}
}

func mustCollection(chains *orderedmap.Map[*collection.Chain]) *collection.Collection {
	c, err := collection.New("", nil, chains, nil)
	if err != nil {
		panic(err)
	}
	return c
}

func TestChain_environmentSource(t *testing.T) {
	require.NoError(t, os.Setenv("RESTPILOT_CHAIN_ENV_TEST", "chain-env-value"))
	defer os.Unsetenv("RESTPILOT_CHAIN_ENV_TEST")

	varName, err := template.Parse("RESTPILOT_CHAIN_ENV_TEST")
	require.NoError(t, err)

	chains := orderedmap.New[*collection.Chain]()
	chains.Set("e", &collection.Chain{
		ID:     "e",
		Source: collection.ChainSource{Kind: collection.SourceEnvironment, Variable: varName},
	})
	rc := contextWithChains(chains)

	tpl, err := template.Parse("{{chains.e}}")
	require.NoError(t, err)

	got, err := RenderText(context.Background(), tpl, rc)
	require.NoError(t, err)
	assert.Equal(t, "chain-env-value", got)
}

func TestChain_fileSourceAndJSONSelector(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id": "abc123", "tags": ["x", "y"]}`), 0o644))

	pathTpl, err := template.Parse(path)
	require.NoError(t, err)

	chains := orderedmap.New[*collection.Chain]()
	chains.Set("f", &collection.Chain{
		ID:       "f",
		Source:   collection.ChainSource{Kind: collection.SourceFile, Path: pathTpl},
		Selector: "$.id",
	})
	rc := contextWithChains(chains)

	tpl, err := template.Parse("{{chains.f}}")
	require.NoError(t, err)

	got, err := RenderText(context.Background(), tpl, rc)
	require.NoError(t, err)
	assert.Equal(t, "abc123", got)
}

func TestChain_fileSourceMultipleResultsSelector(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"tags": ["x", "y"]}`), 0o644))

	pathTpl, err := template.Parse(path)
	require.NoError(t, err)

	chains := orderedmap.New[*collection.Chain]()
	chains.Set("f", &collection.Chain{
		ID:       "f",
		Source:   collection.ChainSource{Kind: collection.SourceFile, Path: pathTpl},
		Selector: "$.tags[*]",
	})
	rc := contextWithChains(chains)

	tpl, err := template.Parse("{{chains.f}}")
	require.NoError(t, err)

	_, err = RenderText(context.Background(), tpl, rc)
	require.Error(t, err)
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	var cerr *ChainError
	require.ErrorAs(t, rerr.Inner, &cerr)
	assert.Equal(t, ErrMultipleResults, cerr.Kind)
}

func TestChain_fileSourceMissingFile(t *testing.T) {
	pathTpl, err := template.Parse("/definitely/not/a/real/path.json")
	require.NoError(t, err)

	chains := orderedmap.New[*collection.Chain]()
	chains.Set("f", &collection.Chain{
		ID:     "f",
		Source: collection.ChainSource{Kind: collection.SourceFile, Path: pathTpl},
	})
	rc := contextWithChains(chains)

	tpl, err := template.Parse("{{chains.f}}")
	require.NoError(t, err)

	_, err = RenderText(context.Background(), tpl, rc)
	require.Error(t, err)
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	var cerr *ChainError
	require.ErrorAs(t, rerr.Inner, &cerr)
	assert.Equal(t, ErrFile, cerr.Kind)
}

func TestChain_commandSource(t *testing.T) {
	argv0, err := template.Parse("echo")
	require.NoError(t, err)
	argv1, err := template.Parse("hello")
	require.NoError(t, err)

	chains := orderedmap.New[*collection.Chain]()
	chains.Set("c", &collection.Chain{
		ID:     "c",
		Source: collection.ChainSource{Kind: collection.SourceCommand, Argv: []*template.Template{argv0, argv1}},
		Trim:   collection.TrimBoth,
	})
	rc := contextWithChains(chains)

	tpl, err := template.Parse("{{chains.c}}")
	require.NoError(t, err)

	got, err := RenderText(context.Background(), tpl, rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestChain_commandSourceMissingArgv(t *testing.T) {
	chains := orderedmap.New[*collection.Chain]()
	chains.Set("c", &collection.Chain{
		ID:     "c",
		Source: collection.ChainSource{Kind: collection.SourceCommand},
	})
	rc := contextWithChains(chains)

	tpl, err := template.Parse("{{chains.c}}")
	require.NoError(t, err)

	_, err = RenderText(context.Background(), tpl, rc)
	require.Error(t, err)
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	var cerr *ChainError
	require.ErrorAs(t, rerr.Inner, &cerr)
	assert.Equal(t, ErrCommandMissing, cerr.Kind)
}

func TestChain_requestSourceWithoutEngineFailsNotAllowed(t *testing.T) {
	urlTpl, err := template.Parse("http://example.test")
	require.NoError(t, err)

	recipes := orderedmap.New[*collection.RecipeNode]()
	recipes.Set("login", &collection.RecipeNode{Recipe: &collection.Recipe{ID: "login", Method: "GET", URL: urlTpl}})
	tree := &collection.RecipeTree{Root: recipes}

	chains := orderedmap.New[*collection.Chain]()
	chains.Set("r", &collection.Chain{
		ID:     "r",
		Source: collection.ChainSource{Kind: collection.SourceRequest, RecipeID: "login", Trigger: collection.TriggerAlways, Section: collection.SectionBody},
	})
	c, err := collection.New("", nil, chains, tree)
	require.NoError(t, err)
	rc := &Context{Collection: c, Overrides: map[string]string{}, State: NewGroupState()}

	tpl, err := template.Parse("{{chains.r}}")
	require.NoError(t, err)

	_, err = RenderText(context.Background(), tpl, rc)
	require.Error(t, err)
	assert.True(t, HasTriggerDisabledError(err))
}

func TestChain_requestSourceNeverWithoutHistoryFails(t *testing.T) {
	urlTpl, err := template.Parse("http://example.test")
	require.NoError(t, err)

	recipes := orderedmap.New[*collection.RecipeNode]()
	recipes.Set("login", &collection.RecipeNode{Recipe: &collection.Recipe{ID: "login", Method: "GET", URL: urlTpl}})
	tree := &collection.RecipeTree{Root: recipes}

	chains := orderedmap.New[*collection.Chain]()
	chains.Set("r", &collection.Chain{
		ID:     "r",
		Source: collection.ChainSource{Kind: collection.SourceRequest, RecipeID: "login", Trigger: collection.TriggerNever, Section: collection.SectionBody},
	})
	c, err := collection.New("", nil, chains, tree)
	require.NoError(t, err)
	rc := &Context{Collection: c, Overrides: map[string]string{}, State: NewGroupState()}

	tpl, err := template.Parse("{{chains.r}}")
	require.NoError(t, err)

	_, err = RenderText(context.Background(), tpl, rc)
	require.Error(t, err)
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	var cerr *ChainError
	require.ErrorAs(t, rerr.Inner, &cerr)
	assert.Equal(t, ErrNoResponse, cerr.Kind)
}

func TestChain_requestSourceUnknownRecipe(t *testing.T) {
	chains := orderedmap.New[*collection.Chain]()
	chains.Set("r", &collection.Chain{
		ID:     "r",
		Source: collection.ChainSource{Kind: collection.SourceRequest, RecipeID: "nope", Trigger: collection.TriggerAlways},
	})
	rc := contextWithChains(chains)

	tpl, err := template.Parse("{{chains.r}}")
	require.NoError(t, err)

	_, err = RenderText(context.Background(), tpl, rc)
	require.Error(t, err)
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	var cerr *ChainError
	require.ErrorAs(t, rerr.Inner, &cerr)
	assert.Equal(t, ErrRecipeUnknown, cerr.Kind)
}

func TestChain_sensitiveFlagCarriesToChunk(t *testing.T) {
	varName, err := template.Parse("RESTPILOT_CHAIN_SENSITIVE_TEST")
	require.NoError(t, err)
	require.NoError(t, os.Setenv("RESTPILOT_CHAIN_SENSITIVE_TEST", "secret"))
	defer os.Unsetenv("RESTPILOT_CHAIN_SENSITIVE_TEST")

	chains := orderedmap.New[*collection.Chain]()
	chains.Set("s", &collection.Chain{
		ID:        "s",
		Source:    collection.ChainSource{Kind: collection.SourceEnvironment, Variable: varName},
		Sensitive: true,
	})
	rc := contextWithChains(chains)

	tpl, err := template.Parse("{{chains.s}}")
	require.NoError(t, err)

	chunks := RenderChunks(context.Background(), tpl, rc)
	require.Len(t, chunks, 1)
	require.NoError(t, chunks[0].Err)
	assert.True(t, chunks[0].Sensitive)
}

package httpengine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/restpilot/restpilot/internal/collection"
	"github.com/restpilot/restpilot/internal/orderedmap"
	"github.com/restpilot/restpilot/internal/render"
	"github.com/restpilot/restpilot/internal/template"
)

func tpl(t *testing.T, src string) *template.Template {
	t.Helper()
	parsed, err := template.Parse(src)
	require.NoError(t, err)
	return parsed
}

func templateList(t *testing.T, pairs ...string) orderedmap.List[*template.Template] {
	t.Helper()
	var out orderedmap.List[*template.Template]
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, orderedmap.Pair[*template.Template]{Key: pairs[i], Value: tpl(t, pairs[i+1])})
	}
	return out
}

// newRecipeContext builds a minimal collection holding a single recipe and a
// render.Context with no profile selected, sufficient for rendering recipes
// whose templates are plain text (no {{field}} references).
func newRecipeContext(t *testing.T, recipe *collection.Recipe) *render.Context {
	t.Helper()
	recipes := orderedmap.New[*collection.RecipeNode]()
	recipes.Set(recipe.ID, &collection.RecipeNode{Recipe: recipe})
	c, err := collection.New("test", nil, nil, &collection.RecipeTree{Root: recipes})
	require.NoError(t, err)
	return &render.Context{
		Collection: c,
		Overrides:  map[string]string{},
		State:      render.NewGroupState(),
	}
}

// recipesOf builds a Collection holding exactly the given recipes, for
// tests that need BuildURL/Build/BuildCurl to look one up by id.
func recipesOf(t *testing.T, recipes ...*collection.Recipe) *collection.Collection {
	t.Helper()
	nodes := orderedmap.New[*collection.RecipeNode]()
	for _, r := range recipes {
		nodes.Set(r.ID, &collection.RecipeNode{Recipe: r})
	}
	c, err := collection.New("test", nil, nil, &collection.RecipeTree{Root: nodes})
	require.NoError(t, err)
	return c
}

// newProfileContext builds a render.Context with a default profile whose
// fields are the given map, for templates that reference {{field}} keys.
func newProfileContext(t *testing.T, fields map[string]string) *render.Context {
	t.Helper()
	fieldMap := orderedmap.New[*template.Template]()
	for k, v := range fields {
		fieldMap.Set(k, tpl(t, v))
	}
	profiles := orderedmap.New[*collection.Profile]()
	profiles.Set("p1", &collection.Profile{ID: "p1", Default: true, Fields: fieldMap})
	c, err := collection.New("test", profiles, nil, nil)
	require.NoError(t, err)
	return &render.Context{
		Collection: c,
		ProfileID:  "p1",
		HasProfile: true,
		Overrides:  map[string]string{},
		State:      render.NewGroupState(),
	}
}

// Package collection implements the typed in-memory representation of
// profiles, recipes, chains and their templates described in spec.md §3,
// and the YAML loading contract from spec.md §6. This is the leaf component
// of the system (10% of the core budget): it holds data, not behavior.
package collection

import (
	"fmt"

	"github.com/restpilot/restpilot/internal/orderedmap"
	"github.com/restpilot/restpilot/internal/template"
)

// Collection is the root aggregate: an optional name, an ordered registry
// of profiles, an ordered registry of chains, and a recipe tree.
type Collection struct {
	Name     string
	Profiles *orderedmap.Map[*Profile]
	Chains   *orderedmap.Map[*Chain]
	Recipes  *RecipeTree

	// recipeIndex and folderIndex flatten the recipe tree once at
	// construction time, so lookups by id are O(1) instead of a tree walk
	// per call — recovered from slumber's own Collection construction step
	// (see SPEC_FULL.md §6, "Recipe tree folder collapsing for id lookup").
	recipeIndex map[string]*Recipe
	folderIndex map[string]*Folder
}

// New builds a Collection from its parts, validating the cross-cutting
// invariants from spec.md §3: globally unique recipe/folder ids and at most
// one default profile. Chain/profile id references inside recipes are
// intentionally NOT resolved here — per spec.md, that happens at render
// time, not load time.
func New(name string, profiles *orderedmap.Map[*Profile], chains *orderedmap.Map[*Chain], recipes *RecipeTree) (*Collection, error) {
	if profiles == nil {
		profiles = orderedmap.New[*Profile]()
	}
	if chains == nil {
		chains = orderedmap.New[*Chain]()
	}
	if recipes == nil {
		recipes = &RecipeTree{Root: orderedmap.New[*RecipeNode]()}
	}

	var defaultIDs []string
	profiles.Range(func(id string, p *Profile) bool {
		if p.Default {
			defaultIDs = append(defaultIDs, id)
		}
		return true
	})
	if len(defaultIDs) > 1 {
		return nil, fmt.Errorf("at most one profile may be default, found multiple: %v", defaultIDs)
	}

	recipeIndex := make(map[string]*Recipe)
	folderIndex := make(map[string]*Folder)
	seen := make(map[string]bool)
	var walk func(nodes *orderedmap.Map[*RecipeNode]) error
	walk = func(nodes *orderedmap.Map[*RecipeNode]) error {
		var walkErr error
		nodes.Range(func(_ string, node *RecipeNode) bool {
			id := node.ID()
			if seen[id] {
				walkErr = fmt.Errorf("duplicate recipe/folder id %q", id)
				return false
			}
			seen[id] = true
			if node.Folder != nil {
				folderIndex[id] = node.Folder
				if err := walk(node.Folder.Children); err != nil {
					walkErr = err
					return false
				}
			} else {
				recipeIndex[id] = node.Recipe
			}
			return true
		})
		return walkErr
	}
	if recipes.Root != nil {
		if err := walk(recipes.Root); err != nil {
			return nil, err
		}
	}

	return &Collection{
		Name:        name,
		Profiles:    profiles,
		Chains:      chains,
		Recipes:     recipes,
		recipeIndex: recipeIndex,
		folderIndex: folderIndex,
	}, nil
}

// RecipeByID returns the recipe with the given id, if any.
func (c *Collection) RecipeByID(id string) (*Recipe, bool) {
	r, ok := c.recipeIndex[id]
	return r, ok
}

// FolderByID returns the folder with the given id, if any.
func (c *Collection) FolderByID(id string) (*Folder, bool) {
	f, ok := c.folderIndex[id]
	return f, ok
}

// ProfileByID returns the profile with the given id, if any.
func (c *Collection) ProfileByID(id string) (*Profile, bool) {
	return c.Profiles.Get(id)
}

// ChainByID returns the chain with the given id, if any.
func (c *Collection) ChainByID(id string) (*Chain, bool) {
	return c.Chains.Get(id)
}

// DefaultProfileID returns the id of the collection's default profile, if
// one is marked default.
func (c *Collection) DefaultProfileID() (string, bool) {
	var id string
	var found bool
	c.Profiles.Range(func(k string, p *Profile) bool {
		if p.Default {
			id, found = k, true
			return false
		}
		return true
	})
	return id, found
}

// Profile is a named set of template-valued fields, at most one of which
// may be marked default per collection (spec.md §3).
type Profile struct {
	ID      string
	Name    string
	Default bool
	Fields  *orderedmap.Map[*template.Template]
}

// RecipeTree is a tree of folders and recipes. Folder and recipe ids share
// a single namespace (spec.md §3).
type RecipeTree struct {
	Root *orderedmap.Map[*RecipeNode]
}

// RecipeNode is either a Folder or a Recipe; exactly one of the two fields
// is non-nil.
type RecipeNode struct {
	Folder *Folder
	Recipe *Recipe
}

// ID returns the node's id regardless of which variant it is.
func (n *RecipeNode) ID() string {
	if n.Folder != nil {
		return n.Folder.ID
	}
	return n.Recipe.ID
}

// Name returns the node's display name regardless of which variant it is.
func (n *RecipeNode) Name() string {
	if n.Folder != nil {
		return n.Folder.Name
	}
	return n.Recipe.Name
}

// Folder groups child recipes/folders under a name.
type Folder struct {
	ID       string
	Name     string
	Children *orderedmap.Map[*RecipeNode]
}

// Recipe is a template for an HTTP request (spec.md §3).
type Recipe struct {
	ID             string
	Name           string
	Method         string
	URL            *template.Template
	Query          orderedmap.List[*template.Template]
	Headers        orderedmap.List[*template.Template]
	Body           *RecipeBody
	Authentication *Authentication
	Persist        bool
}

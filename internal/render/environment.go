package render

import (
	"context"

	"github.com/restpilot/restpilot/internal/collection"
)

// resolveEnvironmentSource renders the variable-name template and reads the
// named process environment variable (spec.md §4.3).
func resolveEnvironmentSource(ctx context.Context, source collection.ChainSource, rc *Context, stack keyStack) (sourceResult, error) {
	name, err := renderChainConfig(ctx, "variable", source.Variable, rc, stack)
	if err != nil {
		return sourceResult{}, err
	}
	return sourceResult{value: []byte(loadEnvironmentVariable(name))}, nil
}

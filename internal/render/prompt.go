package render

import (
	"context"

	"github.com/restpilot/restpilot/internal/collection"
)

// resolvePromptSource renders the optional message/default templates (the
// message defaults to the chain id) and asks the context's prompter for a
// value, blocking until the reply channel produces one or is closed
// without a reply (spec.md §4.3).
func resolvePromptSource(ctx context.Context, chainID string, source collection.ChainSource, sensitive bool, rc *Context, stack keyStack) (sourceResult, error) {
	message := chainID
	if source.Message != nil {
		rendered, err := renderChainConfig(ctx, "message", source.Message, rc, stack)
		if err != nil {
			return sourceResult{}, err
		}
		message = rendered
	}

	var defaultValue string
	var hasDefault bool
	if source.Default != nil {
		rendered, err := renderChainConfig(ctx, "default", source.Default, rc, stack)
		if err != nil {
			return sourceResult{}, err
		}
		defaultValue, hasDefault = rendered, true
	}

	reply := make(chan string, 1)
	rc.Prompter.Prompt(Prompt{
		Message:    message,
		Default:    defaultValue,
		HasDefault: hasDefault,
		Sensitive:  sensitive,
		Reply:      reply,
	})

	value, ok := <-reply
	if !ok {
		return sourceResult{}, &ChainError{Kind: ErrPromptNoResponse}
	}
	return sourceResult{value: []byte(value)}, nil
}

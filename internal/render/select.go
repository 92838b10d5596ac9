package render

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/restpilot/restpilot/internal/collection"
	"github.com/restpilot/restpilot/internal/contenttype"
	"github.com/restpilot/restpilot/internal/template"
)

// resolveSelectSource renders a Select chain source's option list — either
// a fixed template list, or a dynamic JSON-array source optionally
// filtered by a JSONPath selector, whose resulting elements are themselves
// template strings (spec.md §4.3) — then asks the prompter to choose one.
func resolveSelectSource(ctx context.Context, chainID string, source collection.ChainSource, rc *Context, stack keyStack) (sourceResult, error) {
	message := chainID
	if source.SelectMessage != nil {
		rendered, err := renderChainConfig(ctx, "message", source.SelectMessage, rc, stack)
		if err != nil {
			return sourceResult{}, err
		}
		message = rendered
	}

	var options []string
	var err error
	if source.SelectOptions.Dynamic {
		options, err = resolveDynamicOptions(ctx, source.SelectOptions, rc, stack)
	} else {
		options, err = renderFixedOptions(ctx, source.SelectOptions.Fixed, rc, stack)
	}
	if err != nil {
		return sourceResult{}, err
	}

	reply := make(chan string, 1)
	rc.Prompter.Select(Select{Message: message, Options: options, Reply: reply})

	value, ok := <-reply
	if !ok {
		return sourceResult{}, &ChainError{Kind: ErrPromptNoResponse}
	}
	return sourceResult{value: []byte(value)}, nil
}

func renderFixedOptions(ctx context.Context, templates []*template.Template, rc *Context, stack keyStack) ([]string, error) {
	options := make([]string, len(templates))
	g, gctx := errgroup.WithContext(ctx)
	for i, tpl := range templates {
		i, tpl := i, tpl
		g.Go(func() error {
			rendered, err := renderChainConfig(gctx, fmt.Sprintf("options[%d]", i), tpl, rc, stack.clone())
			if err != nil {
				return err
			}
			options[i] = rendered
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return options, nil
}

func resolveDynamicOptions(ctx context.Context, opts collection.SelectOptions, rc *Context, stack keyStack) ([]string, error) {
	rendered, err := renderChainConfig(ctx, "source", opts.DynamicSource, rc, stack)
	if err != nil {
		return nil, err
	}

	doc, parseErr := contenttype.ParseJSON([]byte(rendered))
	arr, isArray := doc.([]interface{})
	if parseErr != nil || !isArray {
		return nil, &ChainError{Kind: ErrDynamicSelectDeserialize, Inner: parseErr}
	}

	if opts.DynamicSelector != "" {
		filtered, err := evaluateJSONPath(arr, opts.DynamicSelector)
		if err != nil {
			return nil, err
		}
		arr = filtered
	}

	templates := make([]*template.Template, len(arr))
	for i, elem := range arr {
		tpl, err := template.Parse(stringifyJSON(elem))
		if err != nil {
			return nil, &ChainError{Kind: ErrDynamicSelectDeserialize, Inner: err}
		}
		templates[i] = tpl
	}
	return renderFixedOptions(ctx, templates, rc, stack)
}

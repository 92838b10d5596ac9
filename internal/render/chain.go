package render

import (
	"context"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/restpilot/restpilot/internal/collection"
	"github.com/restpilot/restpilot/internal/contenttype"
	"github.com/restpilot/restpilot/internal/exchange"
)

// sourceResult is the raw outcome of resolving a chain's source, before
// selector evaluation and trimming are applied (spec.md §4.3 steps 2-3).
type sourceResult struct {
	value       []byte
	contentType collection.ContentType
	hasType     bool
}

// renderChain resolves a chain reference, deduplicating concurrent
// references to the same chain id within the render group onto a single
// in-flight computation (spec.md §4.2's chain future cache).
func renderChain(ctx context.Context, chainID string, rc *Context, stack keyStack) (RenderedChunk, error) {
	slot, outcome := rc.State.getOrInit(chainID)
	if outcome == chainHit {
		return slot.await()
	}

	chunk, err := renderChainUncached(ctx, chainID, rc, stack)
	slot.resolve(chunk, err)
	return chunk, err
}

func renderChainUncached(ctx context.Context, chainID string, rc *Context, stack keyStack) (RenderedChunk, error) {
	chain, ok := rc.Collection.ChainByID(chainID)
	if !ok {
		return RenderedChunk{}, &ChainError{Kind: ErrChainUnknown}
	}

	result, err := resolveSource(ctx, chainID, chain, rc, stack)
	if err != nil {
		return RenderedChunk{}, err
	}

	effectiveType := result.contentType
	if chain.ContentType != "" {
		effectiveType = chain.ContentType
	}

	value := result.value
	if chain.Selector != "" {
		if effectiveType == "" {
			return RenderedChunk{}, &ChainError{Kind: ErrUnknownContentType}
		}
		value, err = applySelector(effectiveType, value, chain.Selector)
		if err != nil {
			return RenderedChunk{}, err
		}
	}

	value = applyTrim(chain.Trim, value)
	return RenderedChunk{Value: value, Sensitive: chain.Sensitive}, nil
}

func resolveSource(ctx context.Context, chainID string, chain *collection.Chain, rc *Context, stack keyStack) (sourceResult, error) {
	switch chain.Source.Kind {
	case collection.SourceRequest:
		return resolveRequestSource(ctx, chain.Source, rc, stack)
	case collection.SourceCommand:
		return resolveCommandSource(ctx, chain.Source, rc, stack)
	case collection.SourceFile:
		return resolveFileSource(ctx, chain.Source, rc, stack)
	case collection.SourceEnvironment:
		return resolveEnvironmentSource(ctx, chain.Source, rc, stack)
	case collection.SourcePrompt:
		return resolvePromptSource(ctx, chainID, chain.Source, chain.Sensitive, rc, stack)
	case collection.SourceSelect:
		return resolveSelectSource(ctx, chainID, chain.Source, rc, stack)
	default:
		return sourceResult{}, &ChainError{Kind: ErrChainUnknown}
	}
}

// resolveRequestSource implements the Request chain source's trigger
// policy (spec.md §4.3): reuse history, or recursively invoke the HTTP
// engine to produce a fresh exchange, then extract the requested section.
func resolveRequestSource(ctx context.Context, source collection.ChainSource, rc *Context, stack keyStack) (sourceResult, error) {
	recipe, ok := rc.Collection.RecipeByID(source.RecipeID)
	if !ok {
		return sourceResult{}, &ChainError{Kind: ErrRecipeUnknown, RecipeID: source.RecipeID}
	}

	loadLatest := func() (*exchange.Exchange, error) {
		if rc.Persistence == nil {
			return nil, nil
		}
		ex, found, err := rc.Persistence.GetLatestExchange(rc.ProfileID, source.RecipeID)
		if err != nil {
			return nil, &ChainError{Kind: ErrNoResponse, Inner: err}
		}
		if !found {
			return nil, nil
		}
		return ex, nil
	}
	sendFresh := func() (*exchange.Exchange, error) {
		if rc.HTTPEngine == nil {
			return nil, &ChainError{Kind: ErrTrigger, RecipeID: recipe.ID, Inner: NotAllowedError{}}
		}
		ex, err := rc.HTTPEngine.SendDefault(ctx, recipe.ID, rc.WithGroupState())
		if err != nil {
			return nil, &ChainError{Kind: ErrTrigger, RecipeID: recipe.ID, Inner: err}
		}
		return ex, nil
	}

	var ex *exchange.Exchange
	var err error
	switch source.Trigger {
	case collection.TriggerNever:
		ex, err = loadLatest()
		if err == nil && ex == nil {
			err = &ChainError{Kind: ErrNoResponse}
		}
	case collection.TriggerNoHistory:
		ex, err = loadLatest()
		if err == nil && ex == nil {
			ex, err = sendFresh()
		}
	case collection.TriggerExpire:
		ex, err = loadLatest()
		if err == nil {
			if ex == nil || time.Since(ex.EndTime) >= source.TriggerExpire {
				ex, err = sendFresh()
			}
		}
	case collection.TriggerAlways:
		ex, err = sendFresh()
	}
	if err != nil {
		return sourceResult{}, err
	}

	switch source.Section {
	case collection.SectionBody:
		ct, hasType := contenttype.FromHeader(ex.ContentType())
		return sourceResult{value: ex.Response.Body, contentType: ct, hasType: hasType}, nil
	case collection.SectionHeader:
		headerName, err := renderChainConfig(ctx, "section", source.HeaderName, rc, stack)
		if err != nil {
			return sourceResult{}, err
		}
		values, ok := ex.Response.Headers[http.CanonicalHeaderKey(headerName)]
		if !ok || len(values) == 0 {
			return sourceResult{}, &ChainError{Kind: ErrMissingHeader, Header: headerName}
		}
		return sourceResult{value: []byte(values[0])}, nil
	default:
		return sourceResult{}, &ChainError{Kind: ErrChainUnknown}
	}
}

func applyTrim(policy collection.TrimPolicy, value []byte) []byte {
	if !utf8.Valid(value) {
		return value
	}
	s := string(value)
	switch policy {
	case collection.TrimStart:
		return []byte(strings.TrimLeft(s, " \t\n\r"))
	case collection.TrimEnd:
		return []byte(strings.TrimRight(s, " \t\n\r"))
	case collection.TrimBoth:
		return []byte(strings.TrimSpace(s))
	default:
		return value
	}
}

package render

import (
	"context"
	"os"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/restpilot/restpilot/internal/template"
)

// RenderedChunk is the outcome of rendering a single chunk: either raw text
// carried through verbatim, or a value produced by a template key (spec.md
// §4.2).
type RenderedChunk struct {
	Value     []byte
	Sensitive bool
	Err       error // set only for a key chunk that failed; Value/Sensitive are zero
}

// keyStack tracks the template keys currently being expanded along the
// current branch, for cycle detection (spec.md §4.2). It is forked (cloned)
// at every concurrent branch point so parallel chunks don't contaminate
// each other's cycle state.
type keyStack []template.Key

func (s keyStack) clone() keyStack {
	out := make(keyStack, len(s))
	copy(out, s)
	return out
}

func (s keyStack) push(key template.Key) (keyStack, error) {
	for _, k := range s {
		if k == key {
			cycle := append(s.clone(), key)
			return nil, &Error{Kind: ErrInfiniteLoop, Stack: cycle}
		}
	}
	return append(s.clone(), key), nil
}

// RenderBytes renders tpl to its concatenated byte value. The first chunk
// error (in chunk order) is returned; all chunks are still driven to
// completion so the future cache and render_chunks output are fully
// populated (spec.md §4.2).
func RenderBytes(ctx context.Context, tpl *template.Template, rc *Context) ([]byte, error) {
	chunks := RenderChunks(ctx, tpl, rc)
	var out []byte
	var firstErr error
	for _, c := range chunks {
		if c.Err != nil {
			if firstErr == nil {
				firstErr = c.Err
			}
			continue
		}
		out = append(out, c.Value...)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// RenderText renders tpl and converts the result to a string, failing with
// InvalidUtf8 if the bytes aren't valid UTF-8.
func RenderText(ctx context.Context, tpl *template.Template, rc *Context) (string, error) {
	b, err := RenderBytes(ctx, tpl, rc)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", &Error{Kind: ErrInvalidUTF8}
	}
	return string(b), nil
}

// RenderChunks renders every chunk of tpl concurrently and returns their
// per-chunk outcomes in template order, regardless of completion order.
// Per-chunk errors are carried in RenderedChunk.Err rather than
// short-circuiting (spec.md §4.2).
func RenderChunks(ctx context.Context, tpl *template.Template, rc *Context) []RenderedChunk {
	return renderChunks(ctx, tpl, rc, nil)
}

func renderChunks(ctx context.Context, tpl *template.Template, rc *Context, stack keyStack) []RenderedChunk {
	chunks := tpl.Chunks()
	out := make([]RenderedChunk, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range chunks {
		i, c := i, c
		if !c.IsKey {
			out[i] = RenderedChunk{Value: []byte(c.Raw)}
			continue
		}
		g.Go(func() error {
			out[i] = renderKey(gctx, c.Key, rc, stack.clone())
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// renderKey resolves a single template key: first against the override
// map (keyed by the key's OverrideKey form), otherwise dispatched by kind.
func renderKey(ctx context.Context, key template.Key, rc *Context, stack keyStack) RenderedChunk {
	if v, ok := rc.Overrides[key.OverrideKey()]; ok {
		return RenderedChunk{Value: []byte(v), Sensitive: false}
	}

	nextStack, err := stack.push(key)
	if err != nil {
		return RenderedChunk{Err: err}
	}

	switch key.Kind {
	case template.KeyField:
		value, err := renderField(ctx, key.Name, rc, nextStack)
		if err != nil {
			return RenderedChunk{Err: err}
		}
		return RenderedChunk{Value: value}
	case template.KeyChain:
		chunk, err := renderChain(ctx, key.Name, rc, nextStack)
		if err != nil {
			return RenderedChunk{Err: &Error{Kind: ErrChain, ChainID: key.Name, Inner: err}}
		}
		return chunk
	case template.KeyEnvironment:
		return RenderedChunk{Value: []byte(loadEnvironmentVariable(key.Name))}
	default:
		return RenderedChunk{Err: &Error{Kind: ErrFieldUnknown, Field: key.Name}}
	}
}

// renderField resolves a profile field reference, deduplicating concurrent
// references to the same field identifier within the render group.
func renderField(ctx context.Context, field string, rc *Context, stack keyStack) ([]byte, error) {
	slot, outcome := rc.State.getOrInitField(field)
	if outcome == chainHit {
		chunk, err := slot.await()
		if err != nil {
			return nil, err
		}
		return chunk.Value, nil
	}

	value, err := renderFieldUncached(ctx, field, rc, stack)
	if err != nil {
		slot.resolve(RenderedChunk{}, err)
		return nil, err
	}
	chunk := RenderedChunk{Value: value}
	slot.resolve(chunk, nil)
	return value, nil
}

func renderFieldUncached(ctx context.Context, field string, rc *Context, stack keyStack) ([]byte, error) {
	if !rc.HasProfile {
		return nil, &Error{Kind: ErrNoProfileSelected}
	}
	profile, ok := rc.Collection.ProfileByID(rc.ProfileID)
	if !ok {
		return nil, &Error{Kind: ErrProfileUnknown, Field: rc.ProfileID}
	}
	tpl, ok := profile.Fields.Get(field)
	if !ok {
		return nil, &Error{Kind: ErrFieldUnknown, Field: field}
	}

	chunks := renderChunks(ctx, tpl, rc, stack)
	value, err := stitchChunks(chunks)
	if err != nil {
		return nil, &Error{Kind: ErrFieldNested, Field: field, Inner: err}
	}
	return value, nil
}

// stitchChunks concatenates a rendered chunk set, returning the first
// chunk error (in order) if any chunk failed.
func stitchChunks(chunks []RenderedChunk) ([]byte, error) {
	var out []byte
	for _, c := range chunks {
		if c.Err != nil {
			return nil, c.Err
		}
		out = append(out, c.Value...)
	}
	return out, nil
}

// renderChainConfig renders a chain source's own template-valued
// configuration fields (path, argv, message, ...), wrapping any failure as
// ChainError.Nested per spec.md's render_chain_config helper.
func renderChainConfig(ctx context.Context, field string, tpl *template.Template, rc *Context, stack keyStack) (string, error) {
	chunks := renderChunks(ctx, tpl, rc, stack)
	value, err := stitchChunks(chunks)
	if err != nil {
		return "", &ChainError{Kind: ErrNested, Field: field, Inner: err}
	}
	if !utf8.Valid(value) {
		return "", &ChainError{Kind: ErrNested, Field: field, Inner: &Error{Kind: ErrInvalidUTF8}}
	}
	return string(value), nil
}

// loadEnvironmentVariable reads a process environment variable, returning
// an empty string if it's missing or not valid UTF-8 (spec.md §4.2 mirrors
// shell semantics).
func loadEnvironmentVariable(name string) string {
	v, ok := os.LookupEnv(name)
	if !ok || !utf8.ValidString(v) {
		return ""
	}
	return v
}

package render

import (
	"context"
	"sync"

	"github.com/restpilot/restpilot/internal/collection"
	"github.com/restpilot/restpilot/internal/exchange"
)

// HTTPEngineHandle lets the chain resolver trigger a fresh sub-request for
// a Request chain source's NoHistory/Expire/Always trigger policies,
// without this package importing internal/httpengine — which itself
// depends on render to drive a recipe's own template rendering. httpengine.Engine
// implements this interface.
type HTTPEngineHandle interface {
	// SendDefault builds recipeID with default build options and sends it,
	// reusing rc (so further chaining inside the triggered request shares
	// the same collection, profile and overrides, but gets its own group
	// state). The returned error, if any, satisfies TriggerOutcomeError.
	SendDefault(ctx context.Context, recipeID string, rc *Context) (*exchange.Exchange, error)
}

// PersistenceHandle is the subset of the persistence store the chain
// resolver needs to look up prior exchanges for Request chain sources.
type PersistenceHandle interface {
	GetLatestExchange(profileID, recipeID string) (*exchange.Exchange, bool, error)
}

// Prompt is a request for the user to supply a single value.
type Prompt struct {
	Message   string
	Default   string
	HasDefault bool
	Sensitive bool
	Reply     chan<- string
}

// Select is a request for the user to choose one of a fixed set of options.
type Select struct {
	Message string
	Options []string
	Reply   chan<- string
}

// Prompter is the render context's bridge to whatever is asking the human
// for input. Implementations must eventually send exactly once on the
// reply channel, or close it without sending to signal PromptNoResponse.
type Prompter interface {
	Prompt(p Prompt)
	Select(s Select)
}

// Context carries everything a render needs, per spec.md §4.2: the shared
// collection, the selected profile (if any), an optional HTTP engine
// handle, a persistence handle, flat string overrides keyed by a
// template key's OverrideKey form, a prompter, and the render group's shared
// state (future cache).
type Context struct {
	Collection    *collection.Collection
	ProfileID     string
	HasProfile    bool
	HTTPEngine    HTTPEngineHandle // nil => triggered sub-requests fail with NotAllowed
	Persistence   PersistenceHandle
	Overrides     map[string]string
	Prompter      Prompter
	State         *GroupState
}

// WithGroupState returns a shallow copy of rc with a fresh GroupState,
// for entering a new render group (e.g. a triggered sub-request's own
// recipe render) that must not share cache entries with its parent.
func (rc *Context) WithGroupState() *Context {
	next := *rc
	next.State = NewGroupState()
	return &next
}

// chainSlot is the future-cache entry for one chain id: exactly one render
// computes the result and broadcasts it by closing done.
type chainSlot struct {
	done   chan struct{}
	value  RenderedChunk
	err    error
}

// GroupState holds the per-render-group future caches described in spec.md
// §4.2: at-most-one execution per chain id, and deduplication (not
// caching — see note on dedup below) per field identifier, both shared
// across concurrent renders of the same template tree. Its lifetime is one
// render group (typically one recipe build) and it is never shared across
// groups.
type GroupState struct {
	mu     sync.Mutex
	chains map[string]*chainSlot
	fields map[string]*chainSlot
}

// NewGroupState returns a fresh, empty group state.
func NewGroupState() *GroupState {
	return &GroupState{
		chains: make(map[string]*chainSlot),
		fields: make(map[string]*chainSlot),
	}
}

// chainOutcome is Hit (another render already produced or is producing a
// result — caller should await it), or Miss (caller is responsible for
// computing and calling resolve).
type chainOutcome int

const (
	chainMiss chainOutcome = iota
	chainHit
)

func getOrInit(mu *sync.Mutex, table map[string]*chainSlot, key string) (*chainSlot, chainOutcome) {
	mu.Lock()
	defer mu.Unlock()
	if slot, ok := table[key]; ok {
		return slot, chainHit
	}
	slot := &chainSlot{done: make(chan struct{})}
	table[key] = slot
	return slot, chainMiss
}

// getOrInit returns the existing slot for chainID if one exists (chainHit,
// caller awaits it), or installs a fresh pending slot and returns chainMiss
// (caller computes the result and calls resolve exactly once).
func (g *GroupState) getOrInit(chainID string) (*chainSlot, chainOutcome) {
	return getOrInit(&g.mu, g.chains, chainID)
}

// getOrInitField is the field-identifier counterpart of getOrInit: fields
// aren't semantically "cached" (each reference re-renders the same
// template), but concurrent references to the same field within a group
// are deduplicated onto a single in-flight render the same way chains are.
func (g *GroupState) getOrInitField(field string) (*chainSlot, chainOutcome) {
	return getOrInit(&g.mu, g.fields, field)
}

// resolve stores the computed result in slot and wakes any renders
// awaiting it. Must be called exactly once, only by the goroutine that
// received chainMiss from getOrInit for this slot.
func (slot *chainSlot) resolve(value RenderedChunk, err error) {
	slot.value, slot.err = value, err
	close(slot.done)
}

// await blocks until the slot's producer calls resolve, then returns its
// result.
func (slot *chainSlot) await() (RenderedChunk, error) {
	<-slot.done
	return slot.value, slot.err
}

// Package persistence implements the opaque exchange store spec.md §3
// leaves to the hosting application: get_request, get_latest_request,
// get_all_requests, insert_exchange. Store is deliberately the only
// interface this package exports, so a hosting application can swap in a
// disk-backed implementation without the render/httpengine packages (which
// depend only on render.PersistenceHandle) ever noticing.
package persistence

import (
	"sort"
	"sync"

	"github.com/restpilot/restpilot/internal/exchange"
)

// Store is the persistence trait from spec.md §3.
type Store interface {
	GetRequest(id string) (*exchange.Exchange, bool, error)
	GetLatestRequest(profileID string, recipeID string) (*exchange.Exchange, bool, error)
	GetAllRequests(profileID string, recipeID string) ([]*exchange.Exchange, error)
	InsertExchange(ex *exchange.Exchange) error
}

// Memory is an in-memory Store, most-recent-first for GetAllRequests, one
// entry per request id (a later InsertExchange for the same id replaces the
// earlier one rather than appending) per SPEC_FULL.md §5. Its zero value is
// not usable; construct one with NewMemory.
type Memory struct {
	mu      sync.RWMutex
	byID    map[string]*exchange.Exchange
	order   []string // insertion order of ids, oldest first
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{byID: make(map[string]*exchange.Exchange)}
}

// GetRequest returns the exchange recorded under id, if any.
func (m *Memory) GetRequest(id string) (*exchange.Exchange, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ex, ok := m.byID[id]
	return ex, ok, nil
}

// GetLatestRequest returns the most recently inserted exchange for
// (profileID, recipeID), or found=false if none exists. An empty profileID
// matches exchanges recorded with no profile selected.
func (m *Memory) GetLatestRequest(profileID string, recipeID string) (*exchange.Exchange, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.order) - 1; i >= 0; i-- {
		ex := m.byID[m.order[i]]
		if ex != nil && ex.RecipeID == recipeID && ex.ProfileID == profileID {
			return ex, true, nil
		}
	}
	return nil, false, nil
}

// GetLatestExchange implements render.PersistenceHandle.
func (m *Memory) GetLatestExchange(profileID, recipeID string) (*exchange.Exchange, bool, error) {
	return m.GetLatestRequest(profileID, recipeID)
}

// GetAllRequests returns every exchange for (profileID, recipeID),
// most-recent-first.
func (m *Memory) GetAllRequests(profileID string, recipeID string) ([]*exchange.Exchange, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*exchange.Exchange
	for _, id := range m.order {
		ex := m.byID[id]
		if ex != nil && ex.RecipeID == recipeID && ex.ProfileID == profileID {
			out = append(out, ex)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EndTime.After(out[j].EndTime) })
	return out, nil
}

// InsertExchange records ex, replacing any prior exchange with the same id.
func (m *Memory) InsertExchange(ex *exchange.Exchange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byID[ex.ID]; !exists {
		m.order = append(m.order, ex.ID)
	}
	m.byID[ex.ID] = ex
	return nil
}

var (
	_ Store                 = (*Memory)(nil)
)

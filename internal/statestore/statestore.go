// Package statestore implements the in-memory request state store from
// spec.md §4.5: a map keyed by request id tracking each request through the
// Building → Loading → Response/RequestError/BuildError/Cancelled state
// machine (spec.md §4.4), plus a facade over the persistence store for
// load/load_latest/load_summaries.
package statestore

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/restpilot/restpilot/internal/exchange"
	"github.com/restpilot/restpilot/internal/persistence"
)

// Phase is one state of the per-request state machine (spec.md §4.4).
type Phase int

const (
	Building Phase = iota
	Loading
	Response
	BuildError
	RequestError
	Cancelled
)

func (p Phase) String() string {
	switch p {
	case Building:
		return "building"
	case Loading:
		return "loading"
	case Response:
		return "response"
	case BuildError:
		return "build_error"
	case RequestError:
		return "request_error"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether p is one of the sticky terminal states.
func (p Phase) IsTerminal() bool {
	switch p {
	case Response, BuildError, RequestError, Cancelled:
		return true
	default:
		return false
	}
}

// State is the full record held for one request id.
type State struct {
	ID        string
	ProfileID string
	RecipeID  string
	Phase     Phase

	Record   exchange.RequestRecord // set once Loading is reached
	Exchange *exchange.Exchange     // set in Response
	Err      error                  // set in BuildError/RequestError

	StartedAt time.Time
}

// clone returns a defensive shallow copy, since Get/Load hand states out to
// callers that must not be able to mutate the store's own record.
func (s *State) clone() *State {
	cp := *s
	return &cp
}

type entry struct {
	state  *State
	cancel context.CancelFunc
}

// Store is the request state store. Its zero value is not usable; construct
// one with New.
type Store struct {
	mu    sync.RWMutex
	byID  map[string]*entry
	order []string // insertion order, oldest first

	persistence persistence.Store
}

// New returns an empty state store backed by store for history lookups.
func New(store persistence.Store) *Store {
	return &Store{byID: make(map[string]*entry), persistence: store}
}

// Start inserts a fresh Building state for id, per spec.md §4.5's
// start(id, profile_id, recipe_id, cancel_handle).
func (s *Store) Start(id, profileID, recipeID string, cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[id]; !exists {
		s.order = append(s.order, id)
	}
	s.byID[id] = &entry{
		state: &State{ID: id, ProfileID: profileID, RecipeID: recipeID, Phase: Building, StartedAt: time.Now()},
		cancel: cancel,
	}
}

// Loading transitions id from Building to Loading, recording the built
// request. Called from any other non-terminal state, it logs a warning and
// proceeds anyway, matching spec.md §4.5's "unexpected prior states log
// warnings".
func (s *Store) Loading(id string, record exchange.RequestRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		slog.Warn("loading transition for unknown request", "request_id", id)
		return
	}
	if e.state.Phase.IsTerminal() {
		return
	}
	if e.state.Phase != Building {
		slog.Warn("loading transition from unexpected phase", "request_id", id, "phase", e.state.Phase.String())
	}
	e.state.Phase = Loading
	e.state.Record = record
}

// BuildError records a terminal build failure for id.
func (s *Store) BuildError(id string, err error) {
	s.terminal(id, BuildError, func(st *State) { st.Err = err })
}

// RequestError records a terminal send failure for id.
func (s *Store) RequestError(id string, err error) {
	s.terminal(id, RequestError, func(st *State) { st.Err = err })
}

// Response records a successful exchange for id in memory only.
func (s *Store) Response(id string, ex *exchange.Exchange) {
	s.terminal(id, Response, func(st *State) { st.Exchange = ex })
}

// Complete records a successful exchange for id and, when persist is true
// (the originating recipe's persist flag, spec.md §3.8's "Lifecycle"),
// inserts it into the persistence store too.
func (s *Store) Complete(id string, ex *exchange.Exchange, persist bool) error {
	s.Response(id, ex)
	if persist && s.persistence != nil {
		return s.persistence.InsertExchange(ex)
	}
	return nil
}

func (s *Store) terminal(id string, phase Phase, apply func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		slog.Warn("terminal transition for unknown request", "request_id", id, "phase", phase.String())
		return
	}
	if e.state.Phase.IsTerminal() {
		slog.Warn("ignoring terminal transition; request already terminal", "request_id", id, "existing_phase", e.state.Phase.String(), "attempted_phase", phase.String())
		return
	}
	e.state.Phase = phase
	apply(e.state)
}

// Cancel transitions id from Building or Loading to Cancelled, invoking its
// stored cancel handle. Cancelling from any other state is a no-op that
// logs (spec.md §4.4).
func (s *Store) Cancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		slog.Warn("cancel for unknown request", "request_id", id)
		return
	}
	if e.state.Phase != Building && e.state.Phase != Loading {
		slog.Warn("cancel from non-cancellable phase", "request_id", id, "phase", e.state.Phase.String())
		return
	}
	e.state.Phase = Cancelled
	if e.cancel != nil {
		e.cancel()
	}
}

// Get returns the in-memory state for id, without consulting persistence.
func (s *Store) Get(id string) (*State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return e.state.clone(), true
}

// Load returns id's state, falling back to persistence (and caching the
// result in memory) if it isn't held live, per spec.md §4.5.
func (s *Store) Load(id string) (*State, bool, error) {
	if st, ok := s.Get(id); ok {
		return st, true, nil
	}
	if s.persistence == nil {
		return nil, false, nil
	}
	ex, found, err := s.persistence.GetRequest(id)
	if err != nil || !found {
		return nil, false, err
	}
	st := &State{ID: ex.ID, ProfileID: ex.ProfileID, RecipeID: ex.RecipeID, Phase: Response, Exchange: ex, StartedAt: ex.StartTime}
	s.mu.Lock()
	s.byID[id] = &entry{state: st}
	s.order = append(s.order, id)
	s.mu.Unlock()
	return st.clone(), true, nil
}

// LoadLatest returns the newest of: any in-memory state matching
// (profileID, recipeID), or the newest persisted exchange for that pair
// (spec.md §4.5).
func (s *Store) LoadLatest(profileID, recipeID string) (*State, bool, error) {
	var best *State
	s.mu.RLock()
	for _, id := range s.order {
		e := s.byID[id]
		if e.state.ProfileID != profileID || e.state.RecipeID != recipeID {
			continue
		}
		if best == nil || e.state.StartedAt.After(best.StartedAt) {
			best = e.state
		}
	}
	s.mu.RUnlock()

	if s.persistence != nil {
		ex, found, err := s.persistence.GetLatestRequest(profileID, recipeID)
		if err != nil {
			return nil, false, err
		}
		if found && (best == nil || ex.StartTime.After(best.StartedAt)) {
			best = &State{ID: ex.ID, ProfileID: ex.ProfileID, RecipeID: ex.RecipeID, Phase: Response, Exchange: ex, StartedAt: ex.StartTime}
		}
	}
	if best == nil {
		return nil, false, nil
	}
	return best.clone(), true, nil
}

// Summary is one entry of a load_summaries page: just enough to render a
// history list without pulling full request/response bodies.
type Summary struct {
	ID        string
	ProfileID string
	RecipeID  string
	Phase     Phase
	StartedAt time.Time
}

// LoadSummaries returns a most-recent-first, id-deduplicated page of
// summaries combining in-memory and persisted state for (profileID,
// recipeID), per spec.md §4.5.
func (s *Store) LoadSummaries(profileID, recipeID string, offset, limit int) ([]Summary, error) {
	seen := make(map[string]bool)
	var all []Summary

	s.mu.RLock()
	for _, id := range s.order {
		e := s.byID[id]
		if e.state.ProfileID != profileID || e.state.RecipeID != recipeID {
			continue
		}
		seen[id] = true
		all = append(all, Summary{ID: id, ProfileID: profileID, RecipeID: recipeID, Phase: e.state.Phase, StartedAt: e.state.StartedAt})
	}
	s.mu.RUnlock()

	if s.persistence != nil {
		exchanges, err := s.persistence.GetAllRequests(profileID, recipeID)
		if err != nil {
			return nil, err
		}
		for _, ex := range exchanges {
			if seen[ex.ID] {
				continue
			}
			all = append(all, Summary{ID: ex.ID, ProfileID: profileID, RecipeID: recipeID, Phase: Response, StartedAt: ex.StartTime})
		}
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].StartedAt.After(all[j].StartedAt) })

	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// HasActiveRequests reports whether any tracked request is Building or
// Loading.
func (s *Store) HasActiveRequests() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.byID {
		if e.state.Phase == Building || e.state.Phase == Loading {
			return true
		}
	}
	return false
}

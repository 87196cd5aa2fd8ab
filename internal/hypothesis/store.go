package hypothesis

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// NotFoundError reports an unknown hypothesis id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("hypothesis not found: %s", e.ID)
}

// Store holds hypotheses by id. Updates serialize per store; the planner
// is the only writer.
type Store struct {
	mu         sync.RWMutex
	hypotheses map[string]*Hypothesis
	now        func() time.Time
}

// NewStore returns an empty store using wall-clock time.
func NewStore() *Store {
	return &Store{
		hypotheses: make(map[string]*Hypothesis),
		now:        time.Now,
	}
}

// NewStoreWithClock returns a store with a fixed clock, for tests.
func NewStoreWithClock(now func() time.Time) *Store {
	s := NewStore()
	s.now = now
	return s
}

// Create registers a fresh hypothesis and returns a copy.
func (s *Store) Create(id, userID, missionID, world string, start Difficulty) *Hypothesis {
	h := New(id, userID, missionID, world, start, s.now())
	s.mu.Lock()
	s.hypotheses[id] = h
	s.mu.Unlock()
	return h.clone()
}

// Get returns a copy of the hypothesis, or a NotFoundError.
func (s *Store) Get(id string) (*Hypothesis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.hypotheses[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return h.clone(), nil
}

// Update applies sig to the hypothesis and returns the updated copy.
func (s *Store) Update(id string, sig Signals) (*Hypothesis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hypotheses[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	h.Apply(sig, s.now())
	return h.clone(), nil
}

// ByUser returns copies of the user's hypotheses, newest first.
func (s *Store) ByUser(userID string) []*Hypothesis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Hypothesis
	for _, h := range s.hypotheses {
		if h.UserID == userID {
			out = append(out, h.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

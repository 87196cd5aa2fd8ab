package progress

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/junosixteen/questengine/internal/rubric"
)

// NotFoundError reports a missing progress record.
type NotFoundError struct {
	UserID    string
	MissionID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no progress for %s:%s", e.UserID, e.MissionID)
}

// Store holds progress records keyed by (user, mission). Operations on
// different keys run independently; operations on the same key serialize
// on a per-key lock so attempts apply atomically in submission order.
type Store struct {
	mu      sync.RWMutex
	records map[string]*entry
	now     func() time.Time
}

type entry struct {
	mu  sync.Mutex
	rec *Record
}

// NewStore returns an empty store using wall-clock time.
func NewStore() *Store {
	return &Store{
		records: make(map[string]*entry),
		now:     time.Now,
	}
}

// NewStoreWithClock returns a store with a fixed clock, for tests.
func NewStoreWithClock(now func() time.Time) *Store {
	s := NewStore()
	s.now = now
	return s
}

func key(userID, missionID string) string {
	return userID + ":" + missionID
}

func (s *Store) get(userID, missionID string) (*entry, error) {
	s.mu.RLock()
	e, ok := s.records[key(userID, missionID)]
	s.mu.RUnlock()
	if !ok {
		return nil, &NotFoundError{UserID: userID, MissionID: missionID}
	}
	return e, nil
}

// Start creates a fresh record at question 1 with the given lives.
// Restarting a mission replaces the previous record.
func (s *Store) Start(userID, missionID string, lives int) *Record {
	rec := &Record{
		UserID:        userID,
		MissionID:     missionID,
		Lives:         lives,
		QuestionIndex: 1,
		StartedAt:     s.now(),
	}
	s.mu.Lock()
	s.records[key(userID, missionID)] = &entry{rec: rec}
	s.mu.Unlock()
	return rec.clone()
}

// Get returns a copy of the record, or a NotFoundError.
func (s *Store) Get(userID, missionID string) (*Record, error) {
	e, err := s.get(userID, missionID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rec.clone(), nil
}

// AppendAttempt applies one attempt: banks its points, decrements a life
// on challenge failure (never below zero), and advances the question index
// on a correct answer or challenge success. Finished records reject
// further writes.
func (s *Store) AppendAttempt(userID, missionID string, a Attempt) (*Record, error) {
	e, err := s.get(userID, missionID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	rec := e.rec
	if rec.Finished {
		return nil, fmt.Errorf("progress for %s:%s is finished", userID, missionID)
	}

	if a.AttemptedAt.IsZero() {
		a.AttemptedAt = s.now()
	}
	rec.History = append(rec.History, a)
	rec.Points += a.PointDelta

	if a.Challenge == rubric.ChallengeFail && rec.Lives > 0 {
		rec.Lives--
	}
	if a.Correct || a.Challenge == rubric.ChallengeSuccess {
		rec.QuestionIndex++
	}
	return rec.clone(), nil
}

// Finish marks the record complete. Further writes are rejected.
func (s *Store) Finish(userID, missionID string, success bool) (*Record, error) {
	e, err := s.get(userID, missionID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	rec := e.rec
	if !rec.Finished {
		rec.Finished = true
		rec.Success = success
		rec.FinishedAt = s.now()
	}
	return rec.clone(), nil
}

// AddLife grants one life up to cap and returns the new count.
func (s *Store) AddLife(userID, missionID string, cap int) (int, error) {
	e, err := s.get(userID, missionID)
	if err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	rec := e.rec
	if rec.Finished {
		return rec.Lives, fmt.Errorf("progress for %s:%s is finished", userID, missionID)
	}
	if rec.Lives < cap {
		rec.Lives++
	}
	return rec.Lives, nil
}

// Reset moves the record back to question 1 without touching history or
// banked points, for rule-driven mission resets.
func (s *Store) Reset(userID, missionID string) (*Record, error) {
	e, err := s.get(userID, missionID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.rec.QuestionIndex = 1
	return e.rec.clone(), nil
}

// Stats summarizes the record's history.
func (s *Store) Stats(userID, missionID string) (Stats, error) {
	e, err := s.get(userID, missionID)
	if err != nil {
		return Stats{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	rec := e.rec
	st := Stats{
		TotalAttempts: len(rec.History),
		Points:        rec.Points,
		Lives:         rec.Lives,
		QuestionIndex: rec.QuestionIndex,
		Streak:        rec.Streak(),
	}
	if len(rec.History) == 0 {
		return st, nil
	}

	var scoreSum float64
	var helpCount int
	for _, a := range rec.History {
		scoreSum += a.Score
		if a.Correct {
			st.CorrectAttempts++
		}
		if a.HelpUsed {
			helpCount++
		}
	}
	n := float64(len(rec.History))
	st.ScoreAvg = scoreSum / n
	st.HelpRate = float64(helpCount) / n
	return st, nil
}

// UserHistory returns copies of all of a user's records, newest first.
func (s *Store) UserHistory(userID string) []*Record {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.records))
	for _, e := range s.records {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	var out []*Record
	for _, e := range entries {
		e.mu.Lock()
		if e.rec.UserID == userID {
			out = append(out, e.rec.clone())
		}
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

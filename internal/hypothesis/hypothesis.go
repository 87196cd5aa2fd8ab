// Package hypothesis tracks the planner's adaptive difficulty belief for
// one mission attempt. Difficulty moves one step at a time on an ordered
// scale; every move appends a note recording what triggered it.
package hypothesis

import (
	"fmt"
	"time"
)

// Difficulty is the ordered adaptive scale.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

var scale = []Difficulty{Easy, Medium, Hard}

// Valid reports whether d names a level on the scale.
func (d Difficulty) Valid() bool {
	return d == Easy || d == Medium || d == Hard
}

// Step moves d by delta on the scale, clamping at the bounds. Any delta is
// reduced to a single step.
func (d Difficulty) Step(delta int) Difficulty {
	if delta > 1 {
		delta = 1
	}
	if delta < -1 {
		delta = -1
	}
	idx := 1
	for i, level := range scale {
		if level == d {
			idx = i
			break
		}
	}
	idx += delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(scale) {
		idx = len(scale) - 1
	}
	return scale[idx]
}

// Signals is the rolling behavioral state folded into a hypothesis.
type Signals struct {
	ScoreAvg      float64
	HelpRate      float64
	DifficultyAdj int
	Fatigue       bool
	GuessPattern  bool
}

// Hypothesis is the planner's belief about the right difficulty for a
// user's mission attempt.
type Hypothesis struct {
	ID         string
	UserID     string
	MissionID  string
	World      string
	Difficulty Difficulty
	Signals    Signals
	Notes      []string
	StartedAt  time.Time
	UpdatedAt  time.Time
}

// New returns a fresh hypothesis at the given starting difficulty with an
// initial note.
func New(id, userID, missionID, world string, start Difficulty, now time.Time) *Hypothesis {
	return &Hypothesis{
		ID:         id,
		UserID:     userID,
		MissionID:  missionID,
		World:      world,
		Difficulty: start,
		Notes:      []string{fmt.Sprintf("initial hypothesis: difficulty=%s", start)},
		StartedAt:  now,
		UpdatedAt:  now,
	}
}

// Apply merges sig into h and adjusts difficulty by at most one step in
// the indicated direction. A difficulty change appends exactly one note
// recording the old level, the new level, and the rolling average that
// triggered it. Pattern flags each add their own note.
func (h *Hypothesis) Apply(sig Signals, now time.Time) {
	h.Signals = sig

	if sig.DifficultyAdj != 0 {
		next := h.Difficulty.Step(sig.DifficultyAdj)
		if next != h.Difficulty {
			h.Notes = append(h.Notes, fmt.Sprintf(
				"difficulty adjusted: %s -> %s (avg: %.2f)", h.Difficulty, next, sig.ScoreAvg))
			h.Difficulty = next
		}
	}

	if sig.GuessPattern {
		h.Notes = append(h.Notes, "guessing pattern detected: answers arriving implausibly fast")
	}
	if sig.Fatigue {
		h.Notes = append(h.Notes, "fatigue detected: performance declining")
	}
	h.UpdatedAt = now
}

// clone returns a copy safe to hand to callers.
func (h *Hypothesis) clone() *Hypothesis {
	cp := *h
	cp.Notes = make([]string, len(h.Notes))
	copy(cp.Notes, h.Notes)
	return &cp
}

// Package progress tracks per (user, mission) bookkeeping: lives, banked
// points, question index, and the ordered attempt history. Records are
// mutated only through the store; callers get copies.
package progress

import (
	"time"

	"github.com/junosixteen/questengine/internal/rubric"
)

// Attempt is one scored answer appended to a record's history.
type Attempt struct {
	QuestID     string
	Selected    string
	Correct     bool
	ElapsedMs   int64
	Score       float64
	PointDelta  int
	HelpUsed    bool
	Challenge   rubric.ChallengeOutcome
	Kind        rubric.QuestKind
	Telemetry   map[string]int
	AttemptedAt time.Time
}

// Record is the bookkeeping state for one mission run.
type Record struct {
	UserID     string
	MissionID  string
	Lives      int
	Points     int
	// QuestionIndex is 1-based and only moves forward, on a correct
	// answer or a successful challenge.
	QuestionIndex int
	Finished      bool
	Success       bool
	History       []Attempt
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Streak returns the length of the trailing run of correct attempts.
func (r *Record) Streak() int {
	n := 0
	for i := len(r.History) - 1; i >= 0; i-- {
		if !r.History[i].Correct {
			break
		}
		n++
	}
	return n
}

// RapidRun returns the length of the trailing run of attempts faster than
// thresholdMs, used for diminishing returns.
func (r *Record) RapidRun(thresholdMs int64) int {
	n := 0
	for i := len(r.History) - 1; i >= 0; i-- {
		if r.History[i].ElapsedMs >= thresholdMs {
			break
		}
		n++
	}
	return n
}

// clone returns a deep copy safe to hand to callers.
func (r *Record) clone() *Record {
	cp := *r
	cp.History = make([]Attempt, len(r.History))
	copy(cp.History, r.History)
	for i := range cp.History {
		if t := cp.History[i].Telemetry; t != nil {
			m := make(map[string]int, len(t))
			for k, v := range t {
				m[k] = v
			}
			cp.History[i].Telemetry = m
		}
	}
	return &cp
}

// Stats is the summary view of a record's history.
type Stats struct {
	ScoreAvg        float64
	HelpRate        float64
	TotalAttempts   int
	CorrectAttempts int
	Points          int
	Lives           int
	QuestionIndex   int
	Streak          int
}

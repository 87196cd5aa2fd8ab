// Package executor runs the per-answer pipeline: score the attempt,
// compute its point delta, bank it into progress, and derive a convergence
// hint for the planner.
package executor

import (
	"errors"
	"log"
	"strings"

	"github.com/junosixteen/questengine/internal/points"
	"github.com/junosixteen/questengine/internal/progress"
	"github.com/junosixteen/questengine/internal/rubric"
)

// Hint is the convergence signal fed back to the planner.
type Hint string

const (
	HintRaise Hint = "raise"
	HintLower Hint = "lower"
	HintKeep  Hint = "keep"
)

// Request is one submitted answer.
type Request struct {
	UserID    string
	MissionID string
	QuestID   string
	Selected  string
	Correct   bool
	ElapsedMs int64
	HelpUsed  bool
	Challenge rubric.ChallengeOutcome
	Telemetry map[string]int
	// Kind overrides quest-kind detection from the quest id when set.
	Kind rubric.QuestKind
}

// Response is the scoring outcome returned to the caller. It is produced
// even when progress bookkeeping fails.
type Response struct {
	Score      float64
	Feedback   string
	PointDelta int
	Signals    rubric.Signals
	Hint       Hint
	// StreakBonus is the additive award for the streak this attempt
	// completes. It is reported separately from the per-quest delta.
	StreakBonus int
	// Banked is false when the attempt could not be appended to progress.
	Banked bool
}

// rapidThresholdMs bounds what counts as a rapid answer for diminishing
// returns.
const rapidThresholdMs = 3000

// PointsSource resolves the points engine for a session. Missions planned
// under different world policies carry different base tables.
type PointsSource interface {
	PointsFor(userID, missionID string) *points.Engine
}

// PointsFunc adapts a function to a PointsSource.
type PointsFunc func(userID, missionID string) *points.Engine

func (f PointsFunc) PointsFor(userID, missionID string) *points.Engine {
	return f(userID, missionID)
}

type fixedPoints struct{ engine *points.Engine }

func (f fixedPoints) PointsFor(string, string) *points.Engine { return f.engine }

// Executor wires the rubric and points engine to the progress store.
type Executor struct {
	points   PointsSource
	progress *progress.Store
	logf     func(format string, args ...any)
}

// New builds an executor that uses one points engine for every session.
func New(pts *points.Engine, prog *progress.Store) *Executor {
	return NewWithSource(fixedPoints{engine: pts}, prog)
}

// NewWithSource builds an executor that resolves the points engine per
// session.
func NewWithSource(src PointsSource, prog *progress.Store) *Executor {
	return &Executor{points: src, progress: prog, logf: log.Printf}
}

// Evaluate scores one answer. A missing progress record is logged and the
// scoring result still returned: the score and feedback are useful on
// their own, and the append is retried on the next attempt's natural flow.
func (e *Executor) Evaluate(req Request) (*Response, error) {
	kind := req.Kind
	if kind == "" {
		kind = detectKind(req.QuestID)
	}

	history := e.history(req.UserID, req.MissionID)
	res := rubric.Score(rubric.Attempt{
		Kind:      kind,
		Correct:   req.Correct,
		ElapsedMs: req.ElapsedMs,
		HelpUsed:  req.HelpUsed,
		Challenge: req.Challenge,
		Telemetry: req.Telemetry,
	}, history)

	pts := e.points.PointsFor(req.UserID, req.MissionID)
	if pts == nil {
		pts = points.NewEngine(points.Config{})
	}
	delta := pts.Compute(res.Score, points.Context{
		Kind:       kind,
		Correct:    req.Correct,
		ElapsedMs:  req.ElapsedMs,
		HelpUsed:   req.HelpUsed,
		Challenge:  req.Challenge,
		RapidCount: e.rapidCount(req.UserID, req.MissionID, req.ElapsedMs),
	})

	banked := true
	streakBonus := 0
	rec, err := e.progress.AppendAttempt(req.UserID, req.MissionID, progress.Attempt{
		QuestID:    req.QuestID,
		Selected:   req.Selected,
		Correct:    req.Correct,
		ElapsedMs:  req.ElapsedMs,
		Score:      res.Score,
		PointDelta: delta,
		HelpUsed:   req.HelpUsed,
		Challenge:  req.Challenge,
		Kind:       kind,
		Telemetry:  req.Telemetry,
	})
	if err != nil {
		var nf *progress.NotFoundError
		if !errors.As(err, &nf) {
			return nil, err
		}
		e.logf("executor: attempt not banked for %s:%s: %v", req.UserID, req.MissionID, err)
		banked = false
	} else {
		streakBonus = points.StreakBonus(rec.Streak())
	}

	return &Response{
		Score:       res.Score,
		Feedback:    res.Feedback,
		PointDelta:  delta,
		Signals:     res.Signals,
		Hint:        hint(res.Score, res.Signals),
		StreakBonus: streakBonus,
		Banked:      banked,
	}, nil
}

// hint maps a score and signals to a difficulty direction.
func hint(score float64, sig rubric.Signals) Hint {
	switch {
	case score < 0.55 || sig.Fatigue:
		return HintLower
	case score > 0.85 && !sig.GuessPattern:
		return HintRaise
	default:
		return HintKeep
	}
}

// history converts the progress record's attempts into rubric history.
// Missing records yield an empty history.
func (e *Executor) history(userID, missionID string) []rubric.HistoryEntry {
	rec, err := e.progress.Get(userID, missionID)
	if err != nil {
		return nil
	}
	out := make([]rubric.HistoryEntry, len(rec.History))
	for i, a := range rec.History {
		out[i] = rubric.HistoryEntry{
			Kind:      a.Kind,
			Correct:   a.Correct,
			ElapsedMs: a.ElapsedMs,
			Score:     a.Score,
			HelpUsed:  a.HelpUsed,
		}
	}
	return out
}

// rapidCount is the length of the trailing rapid run this attempt would
// make, including itself.
func (e *Executor) rapidCount(userID, missionID string, elapsedMs int64) int {
	if elapsedMs >= rapidThresholdMs {
		return 0
	}
	rec, err := e.progress.Get(userID, missionID)
	if err != nil {
		return 1
	}
	return rec.RapidRun(rapidThresholdMs) + 1
}

// detectKind infers the quest kind from its id. Risk quests sit at the
// fixed boss positions; team quests at the shared position.
func detectKind(questID string) rubric.QuestKind {
	switch {
	case strings.Contains(questID, "risk"), strings.HasSuffix(questID, "q5"), strings.HasSuffix(questID, "q10"):
		return rubric.KindRisk
	case strings.Contains(questID, "team"), strings.HasSuffix(questID, "q9"):
		return rubric.KindTeam
	default:
		return rubric.KindStandard
	}
}

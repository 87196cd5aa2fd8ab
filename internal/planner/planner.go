// Package planner composes mission quest sequences from world policies and
// maintains the adaptive difficulty hypothesis for each mission attempt.
package planner

import (
	"fmt"
	"log"
	"slices"

	"github.com/google/uuid"

	"github.com/junosixteen/questengine/internal/hypothesis"
	"github.com/junosixteen/questengine/internal/policy"
	"github.com/junosixteen/questengine/internal/progress"
	"github.com/junosixteen/questengine/internal/rubric"
)

// ValidationError reports a plan request missing required fields.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// Goal identifies what to plan for.
type Goal struct {
	UserID    string
	MissionID string
	World     string
}

// PlanContext carries optional overrides for a plan request.
type PlanContext struct {
	// Difficulty overrides the policy's starting difficulty when set.
	Difficulty hypothesis.Difficulty
}

// Plan is the planner's output: an ordered quest sequence plus the
// narrative framing for the mission.
type Plan struct {
	HypothesisID   string
	Quests         []Quest
	Briefing       string
	DebriefSuccess string
	DebriefFail    string
	Cliffhanger    string
	Lives          int
	Difficulty     hypothesis.Difficulty
}

// MissionState is the lifecycle phase of one mission attempt.
type MissionState string

const (
	StatePlanned          MissionState = "PLANNED"
	StateActive           MissionState = "ACTIVE"
	StateCompletedSuccess MissionState = "COMPLETED_SUCCESS"
	StateCompletedFail    MissionState = "COMPLETED_FAIL"
)

// StateOf derives the mission state from a progress record.
func StateOf(rec *progress.Record) MissionState {
	switch {
	case rec.Finished && rec.Success:
		return StateCompletedSuccess
	case rec.Finished || rec.Lives == 0:
		return StateCompletedFail
	case len(rec.History) > 0:
		return StateActive
	default:
		return StatePlanned
	}
}

// Planner composes quest sequences and owns hypothesis updates.
type Planner struct {
	policies   *policy.Loader
	hypotheses *hypothesis.Store
	progress   *progress.Store
	newID      func() string
	logf       func(format string, args ...any)
}

// New builds a planner over the given stores.
func New(policies *policy.Loader, hyp *hypothesis.Store, prog *progress.Store) *Planner {
	return &Planner{
		policies:   policies,
		hypotheses: hyp,
		progress:   prog,
		newID:      uuid.NewString,
		logf:       log.Printf,
	}
}

// Plan validates the goal, loads the world policy (falling back to the
// built-in default if the lookup fails), composes the quest sequence,
// creates a fresh hypothesis, and starts progress bookkeeping.
func (p *Planner) Plan(goal Goal, ctx PlanContext) (*Plan, error) {
	if goal.MissionID == "" {
		return nil, &ValidationError{Field: "missionId"}
	}
	if goal.World == "" {
		return nil, &ValidationError{Field: "world"}
	}

	pol, err := p.policies.ForWorld(goal.World)
	if err != nil {
		// The loader returns the default policy alongside the error;
		// planning proceeds degraded rather than failing the request.
		p.logf("planner: %v (user=%s mission=%s), using default policy", err, goal.UserID, goal.MissionID)
	}

	difficulty := hypothesis.Difficulty(pol.StartDifficulty)
	if !difficulty.Valid() {
		difficulty = hypothesis.Medium
	}
	if ctx.Difficulty != "" {
		if !ctx.Difficulty.Valid() {
			return nil, &ValidationError{Field: "difficulty"}
		}
		difficulty = ctx.Difficulty
	}

	quests := p.compose(pol, goal.MissionID, difficulty)

	hypID := p.newID()
	p.hypotheses.Create(hypID, goal.UserID, goal.MissionID, pol.World, difficulty)
	p.progress.Start(goal.UserID, goal.MissionID, pol.Mission.LivesStart)

	return &Plan{
		HypothesisID:   hypID,
		Quests:         quests,
		Briefing:       pol.Story.Briefing,
		DebriefSuccess: pol.Story.DebriefSuccess,
		DebriefFail:    pol.Story.DebriefFail,
		Cliffhanger:    pol.Story.Cliffhanger,
		Lives:          pol.Mission.LivesStart,
		Difficulty:     difficulty,
	}, nil
}

// compose builds the full quest sequence, placing risk and team quests at
// their policy-configured positions.
func (p *Planner) compose(pol *policy.Policy, missionID string, difficulty hypothesis.Difficulty) []Quest {
	total := pol.Mission.Questions.Standard
	quests := make([]Quest, 0, total)
	for i := 1; i <= total; i++ {
		kind := rubric.KindStandard
		var risk *RiskConfig
		switch {
		case slices.Contains(pol.Mission.Questions.RiskAt, i):
			kind = rubric.KindRisk
			risk = &RiskConfig{
				MaxAttempts: pol.RiskGuard.MaxAttempts,
				CooldownMs:  pol.RiskGuard.CooldownMs,
			}
		case slices.Contains(pol.Mission.Questions.TeamAt, i):
			kind = rubric.KindTeam
		}
		quests = append(quests, composeQuest(missionID, pol.World, i, kind, difficulty, risk))
	}
	return quests
}

// Update folds evaluation signals into the hypothesis, moving difficulty
// at most one step. Unknown ids return hypothesis.NotFoundError.
func (p *Planner) Update(hypothesisID string, sig hypothesis.Signals) (*hypothesis.Hypothesis, error) {
	if hypothesisID == "" {
		return nil, &ValidationError{Field: "hypothesisId"}
	}
	return p.hypotheses.Update(hypothesisID, sig)
}

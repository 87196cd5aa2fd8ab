// Package engine is the facade over planning, per-answer evaluation, and
// rule-based gating. It owns the session state the sub-packages share and
// writes the audit trail.
package engine

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/junosixteen/questengine/internal/executor"
	"github.com/junosixteen/questengine/internal/hypothesis"
	"github.com/junosixteen/questengine/internal/narrative"
	"github.com/junosixteen/questengine/internal/planner"
	"github.com/junosixteen/questengine/internal/points"
	"github.com/junosixteen/questengine/internal/policy"
	"github.com/junosixteen/questengine/internal/progress"
	"github.com/junosixteen/questengine/internal/rubric"
	"github.com/junosixteen/questengine/internal/rules"
	"github.com/junosixteen/questengine/internal/store"
)

// Options configures an Engine. Zero values take defaults; Audit and
// Narrative are optional.
type Options struct {
	// PolicyDir is where world policy documents live.
	PolicyDir string
	// Points overrides the default point configuration.
	Points points.Config
	// Evaluator overrides the in-process rule evaluator, e.g. with a
	// delegated solver client.
	Evaluator rules.Evaluator
	// Rules overrides the canonical rule set.
	Rules rules.Set
	// Audit receives attempt and decision events when set.
	Audit store.AuditRepo
	// Narrative rewrites policy story text when set.
	Narrative *narrative.Service
}

// Engine ties the planner, executor, and rule evaluator together.
type Engine struct {
	policies   *policy.Loader
	hypotheses *hypothesis.Store
	progress   *progress.Store
	planner    *planner.Planner
	executor   *executor.Executor
	evaluator  rules.Evaluator
	ruleset    rules.Set
	audit      store.AuditRepo
	narrative  *narrative.Service
	logf       func(format string, args ...any)

	pointsCfg     points.Config
	defaultPoints *points.Engine

	mu       sync.RWMutex
	missions map[string]missionLayout
	asserts  map[string]assertedFacts
}

// New builds an engine from options.
func New(opts Options) *Engine {
	policies := policy.NewLoader(opts.PolicyDir)
	hyp := hypothesis.NewStore()
	prog := progress.NewStore()

	eval := opts.Evaluator
	if eval == nil {
		eval = rules.NewDirectEvaluator()
	}
	rs := opts.Rules
	if !rs.Valid() {
		rs = rules.DefaultSet()
	}

	e := &Engine{
		policies:      policies,
		hypotheses:    hyp,
		progress:      prog,
		planner:       planner.New(policies, hyp, prog),
		evaluator:     eval,
		ruleset:       rs,
		audit:         opts.Audit,
		narrative:     opts.Narrative,
		logf:          log.Printf,
		pointsCfg:     opts.Points,
		defaultPoints: points.NewEngine(opts.Points),
		missions:      make(map[string]missionLayout),
		asserts:       make(map[string]assertedFacts),
	}
	e.executor = executor.NewWithSource(executor.PointsFunc(e.pointsFor), prog)
	return e
}

// pointsFor resolves the points engine for a session: the planned world's
// table when the mission was planned here, the engine-wide one otherwise.
func (e *Engine) pointsFor(userID, missionID string) *points.Engine {
	layout := e.layout(sessionKey(userID, missionID))
	if layout.points != nil {
		return layout.points
	}
	return e.defaultPoints
}

// Plan composes a mission for the goal and registers its layout for
// gating. The briefing is rewritten through the narrative service when one
// is configured.
func (e *Engine) Plan(ctx context.Context, goal planner.Goal, pctx planner.PlanContext) (*planner.Plan, error) {
	plan, err := e.planner.Plan(goal, pctx)
	if err != nil {
		return nil, err
	}

	pol, perr := e.policies.ForWorld(goal.World)
	if perr != nil {
		pol = policy.Default()
	}
	e.mu.Lock()
	e.missions[sessionKey(goal.UserID, goal.MissionID)] = missionLayout{
		world:        pol.World,
		total:        pol.Mission.Questions.Standard,
		riskAt:       pol.Mission.Questions.RiskAt,
		teamAt:       pol.Mission.Questions.TeamAt,
		hypothesisID: plan.HypothesisID,
		lifeCap:      pol.Mission.LifeCap,
		bonusLives:   pol.Gamification.BonusMinigame.LifePlus,
		points:       points.NewEngine(pointsConfig(e.pointsCfg, pol)),
		story: storyText{
			debriefSuccess: pol.Story.DebriefSuccess,
			debriefFail:    pol.Story.DebriefFail,
			cliffhanger:    pol.Story.Cliffhanger,
		},
	}
	e.mu.Unlock()

	plan.Briefing = e.narrative.Briefing(ctx, narrative.BriefingInput{
		World:      pol.World,
		Difficulty: string(plan.Difficulty),
		QuestCount: len(plan.Quests),
		BaseText:   plan.Briefing,
	})
	return plan, nil
}

// Update folds evaluation signals into a hypothesis.
func (e *Engine) Update(hypothesisID string, sig hypothesis.Signals) (*hypothesis.Hypothesis, error) {
	return e.planner.Update(hypothesisID, sig)
}

// Recalibrate folds the session's whole attempt history into its
// hypothesis, instead of the single-attempt hints Evaluate produces.
func (e *Engine) Recalibrate(userID, missionID string) (*hypothesis.Hypothesis, error) {
	session := sessionKey(userID, missionID)
	layout := e.layout(session)
	if layout.hypothesisID == "" {
		return nil, &NotFoundError{Session: session}
	}
	rec, err := e.progress.Get(userID, missionID)
	if err != nil {
		return nil, &NotFoundError{Session: session}
	}

	history := make([]rubric.HistoryEntry, len(rec.History))
	for i, a := range rec.History {
		history[i] = rubric.HistoryEntry{
			Kind:      a.Kind,
			Correct:   a.Correct,
			ElapsedMs: a.ElapsedMs,
			Score:     a.Score,
			HelpUsed:  a.HelpUsed,
		}
	}
	agg := rubric.Aggregate(history)
	return e.hypotheses.Update(layout.hypothesisID, hypothesis.Signals{
		ScoreAvg:      agg.ScoreAvg,
		HelpRate:      agg.HelpRate,
		DifficultyAdj: agg.DifficultyDelta,
		Fatigue:       agg.Fatigue,
		GuessPattern:  agg.GuessPattern,
	})
}

// EvaluateRequest is one submitted answer plus the session-level context
// only the caller knows.
type EvaluateRequest struct {
	executor.Request

	// TeamSize and TeamCorrect report the team outcome when known. Zero
	// TeamSize means no team facts are asserted. Once asserted, the outcome
	// is retained for the session and folded into later decisions.
	TeamSize    int
	TeamCorrect int
	// Deadline gates the mission on wall-clock time when set, and is
	// retained for the session like the team outcome.
	Deadline time.Time
}

// EvaluateResult combines the per-answer scoring outcome with the rule
// evaluator's session decision.
type EvaluateResult struct {
	executor.Response

	Decision *rules.Decision
	// HypothesisID names the hypothesis the caller should feed the hint
	// into, when the mission was planned through this engine.
	HypothesisID string
}

// Evaluate scores one answer, banks it, re-derives the session decision,
// and appends both to the audit log. Evaluation failures fail closed: the
// scoring result is returned with no decision and an EvaluationError.
func (e *Engine) Evaluate(ctx context.Context, req EvaluateRequest) (*EvaluateResult, error) {
	resp, err := e.executor.Evaluate(req.Request)
	if err != nil {
		return nil, err
	}

	session := sessionKey(req.UserID, req.MissionID)
	layout := e.layout(session)

	if e.audit != nil {
		if aerr := e.audit.AppendAttempt(ctx, store.AttemptEvent{
			UserID:     req.UserID,
			MissionID:  req.MissionID,
			QuestID:    req.QuestID,
			Correct:    req.Correct,
			Score:      resp.Score,
			PointDelta: resp.PointDelta,
			ElapsedMs:  req.ElapsedMs,
			HelpUsed:   req.HelpUsed,
			Challenge:  string(req.Challenge),
		}); aerr != nil {
			e.logf("engine: attempt audit for %s not recorded: %v", session, aerr)
		}
	}

	result := &EvaluateResult{
		Response:     *resp,
		HypothesisID: layout.hypothesisID,
	}

	decision, derr := e.decide(ctx, session, layout, req)
	if derr != nil {
		e.logf("engine: %v", derr)
		return result, derr
	}
	result.Decision = decision

	if e.audit != nil {
		if aerr := e.audit.AppendDecision(ctx, store.DecisionEvent{
			Session:      session,
			Status:       string(decision.Status),
			FiredRules:   decision.Fired,
			PointsRaw:    int(decision.PointsRaw),
			PointsFinal:  int(decision.PointsFinal),
			NextQuestion: int(decision.NextQuestion),
			RuleVersion:  decision.RuleVersion,
		}); aerr != nil {
			e.logf("engine: decision audit for %s not recorded: %v", session, aerr)
		}
	}
	return result, nil
}

// Gate re-derives the session decision without recording an attempt, from
// the progress record plus the session's retained caller-asserted facts. It
// is safe to call before every question transition.
func (e *Engine) Gate(ctx context.Context, userID, missionID string) (*rules.Decision, error) {
	session := sessionKey(userID, missionID)
	return e.decide(ctx, session, e.layout(session), EvaluateRequest{
		Request: executor.Request{UserID: userID, MissionID: missionID},
	})
}

// withAsserted banks the request's caller-asserted facts for the session
// and returns the request widened with everything asserted earlier, so a
// later Gate sees the same deadline and team outcome Evaluate saw.
func (e *Engine) withAsserted(session string, req EvaluateRequest) EvaluateRequest {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.asserts[session]
	if req.TeamSize > 0 {
		st.teamSize, st.teamCorrect = req.TeamSize, req.TeamCorrect
	}
	if !req.Deadline.IsZero() {
		st.deadline = req.Deadline
	}
	e.asserts[session] = st

	req.TeamSize, req.TeamCorrect = st.teamSize, st.teamCorrect
	if req.Deadline.IsZero() {
		req.Deadline = st.deadline
	}
	return req
}

func (e *Engine) decide(ctx context.Context, session string, layout missionLayout, req EvaluateRequest) (*rules.Decision, error) {
	req = e.withAsserted(session, req)
	rec, err := e.progress.Get(req.UserID, req.MissionID)
	if err != nil {
		var nf *progress.NotFoundError
		if !errors.As(err, &nf) {
			return nil, &EvaluationError{Session: session, Err: err}
		}
		rec = nil
	}

	fs := buildFacts(session, rec, layout, req)
	decision, err := e.evaluator.Decide(ctx, fs, e.ruleset)
	if err != nil {
		return nil, &EvaluationError{Session: session, Err: err}
	}
	return decision, nil
}

// Stats is the session summary returned by GetStats.
type Stats struct {
	progress.Stats

	State        planner.MissionState
	HypothesisID string
	Difficulty   hypothesis.Difficulty
	// StreakBonus is the additive award the current streak has earned.
	StreakBonus int
}

// GetStats summarizes a session's progress and adaptive state.
func (e *Engine) GetStats(userID, missionID string) (*Stats, error) {
	session := sessionKey(userID, missionID)
	rec, err := e.progress.Get(userID, missionID)
	if err != nil {
		return nil, &NotFoundError{Session: session}
	}
	ps, err := e.progress.Stats(userID, missionID)
	if err != nil {
		return nil, &NotFoundError{Session: session}
	}

	out := &Stats{Stats: ps, State: planner.StateOf(rec), StreakBonus: points.StreakBonus(ps.Streak)}
	layout := e.layout(session)
	if layout.hypothesisID != "" {
		out.HypothesisID = layout.hypothesisID
		if hyp, herr := e.hypotheses.Get(layout.hypothesisID); herr == nil {
			out.Difficulty = hyp.Difficulty
		}
	}
	return out, nil
}

// Explain returns the most recent recorded decision for a session, with
// the ordered fired-rule names that produced its status.
func (e *Engine) Explain(ctx context.Context, userID, missionID string) (*store.DecisionEvent, error) {
	session := sessionKey(userID, missionID)
	if e.audit == nil {
		return nil, &NotFoundError{Session: session}
	}
	ev, err := e.audit.LatestDecision(ctx, session)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, &NotFoundError{Session: session}
	}
	return ev, nil
}

// Finish freezes a session's progress and returns the debrief text,
// rewritten through the narrative service when one is configured.
func (e *Engine) Finish(ctx context.Context, userID, missionID string, success bool) (*progress.Record, string, error) {
	rec, err := e.progress.Finish(userID, missionID, success)
	if err != nil {
		return nil, "", err
	}

	layout := e.layout(sessionKey(userID, missionID))
	base := layout.story.debriefFail
	if success {
		base = layout.story.debriefSuccess
	}
	if base == "" {
		def := policy.Default().Story
		base = def.DebriefFail
		if success {
			base = def.DebriefSuccess
		}
	}

	correct := 0
	for _, a := range rec.History {
		if a.Correct {
			correct++
		}
	}
	debrief := e.narrative.Debrief(ctx, narrative.DebriefInput{
		World:     layout.world,
		Success:   success,
		Points:    rec.Points,
		Correct:   correct,
		Attempted: len(rec.History),
		BaseText:  base,
	})
	return rec, debrief, nil
}

// Reset sends a session back to question 1. Banked points and history
// survive the reset.
func (e *Engine) Reset(userID, missionID string) (*progress.Record, error) {
	return e.progress.Reset(userID, missionID)
}

// AwardBonusLife grants the bonus-minigame lives up to the mission's cap
// and returns the new life count.
func (e *Engine) AwardBonusLife(userID, missionID string) (int, error) {
	layout := e.layout(sessionKey(userID, missionID))
	lifeCap := layout.lifeCap
	if lifeCap == 0 {
		lifeCap = policy.Default().Mission.LifeCap
	}
	grant := layout.bonusLives
	if grant == 0 {
		grant = 1
	}
	lives := 0
	for i := 0; i < grant; i++ {
		n, err := e.progress.AddLife(userID, missionID, lifeCap)
		if err != nil {
			return 0, err
		}
		lives = n
	}
	return lives, nil
}

// layout returns the mission layout registered at plan time, or the
// default policy's layout for sessions planned elsewhere.
func (e *Engine) layout(session string) missionLayout {
	e.mu.RLock()
	layout, ok := e.missions[session]
	e.mu.RUnlock()
	if ok {
		return layout
	}
	pol := policy.Default()
	return missionLayout{
		world:      pol.World,
		total:      pol.Mission.Questions.Standard,
		riskAt:     pol.Mission.Questions.RiskAt,
		teamAt:     pol.Mission.Questions.TeamAt,
		lifeCap:    pol.Mission.LifeCap,
		bonusLives: pol.Gamification.BonusMinigame.LifePlus,
		story: storyText{
			debriefSuccess: pol.Story.DebriefSuccess,
			debriefFail:    pol.Story.DebriefFail,
			cliffhanger:    pol.Story.Cliffhanger,
		},
	}
}

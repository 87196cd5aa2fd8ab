package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/junosixteen/questengine/internal/facts"
)

// Status is the derived mission status for a session.
type Status string

const (
	StatusResetRisk     Status = "RESET_RISK"
	StatusResetDeadline Status = "RESET_DEADLINE"
	StatusPassed        Status = "PASSED"
	StatusInProgress    Status = "IN_PROGRESS"
)

// Row is one bound result of a query: column name to value.
type Row map[string]facts.Value

// Evaluator derives conclusions from a fact set under a rule set. It is the
// gating authority: callers consult it before granting access to the next
// question. Implementations must be side-effect-free and idempotent.
type Evaluator interface {
	// Evaluate runs the named query predicate and returns bound rows.
	// Supported queries: status, risk_failed, team_success, points_raw,
	// points_final, next_question.
	Evaluate(ctx context.Context, fs *facts.Set, rs Set, query string) ([]Row, error)

	// Decide runs every query at once and returns the combined conclusion
	// with the ordered list of fired rule names.
	Decide(ctx context.Context, fs *facts.Set, rs Set) (*Decision, error)
}

// Decision is the combined conclusion for a session.
type Decision struct {
	Session      string
	Status       Status
	RiskFailed   bool
	TeamSuccess  bool
	PointsRaw    int64
	PointsFinal  int64
	NextQuestion int64
	// Fired lists rule names in the order they held, for audit.
	Fired []string
	// RuleVersion records which rule set produced the decision.
	RuleVersion string
	EvaluatedAt time.Time
}

// DirectEvaluator computes the canonical derivations in-process, without an
// external Datalog engine. The status precedence (risk reset > deadline
// reset > passed > in-progress) is enforced here by evaluation order.
type DirectEvaluator struct {
	// Now supplies the clock for deadline checks. Defaults to time.Now.
	Now func() time.Time
}

// NewDirectEvaluator creates a DirectEvaluator using the wall clock.
func NewDirectEvaluator() *DirectEvaluator {
	return &DirectEvaluator{Now: time.Now}
}

func (e *DirectEvaluator) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Decide derives status, team success, point totals, and the next permitted
// question index in one pass. Re-running on the same fact set yields the
// same result; no fact is consumed.
func (e *DirectEvaluator) Decide(_ context.Context, fs *facts.Set, rs Set) (*Decision, error) {
	if fs == nil {
		return nil, fmt.Errorf("nil fact set")
	}
	if !rs.Valid() {
		return nil, fmt.Errorf("malformed rule set (version %q)", rs.Version)
	}

	d := &Decision{
		Session:     fs.Session(),
		RuleVersion: rs.Version,
		EvaluatedAt: e.now(),
	}

	d.RiskFailed = rs.Has(RuleRiskFailed) && riskFailed(fs)
	if d.RiskFailed {
		d.Fired = append(d.Fired, RuleRiskFailed)
	}

	// Status precedence, in order. The first rule that holds wins.
	switch {
	case d.RiskFailed && rs.Has(RuleStatusResetRisk):
		d.Status = StatusResetRisk
		d.Fired = append(d.Fired, RuleStatusResetRisk)
	case rs.Has(RuleStatusResetDeadline) && deadlineExceeded(fs, e.now()):
		d.Status = StatusResetDeadline
		d.Fired = append(d.Fired, RuleStatusResetDeadline)
	case rs.Has(RuleStatusPassed) && allRequiredComplete(fs):
		d.Status = StatusPassed
		d.Fired = append(d.Fired, RuleStatusPassed)
	default:
		d.Status = StatusInProgress
		d.Fired = append(d.Fired, RuleStatusInProgress)
	}

	d.TeamSuccess = rs.Has(RuleTeamSuccess) && teamSuccess(fs)
	if d.TeamSuccess {
		d.Fired = append(d.Fired, RuleTeamSuccess)
	}

	d.PointsRaw = pointsRaw(fs)
	d.PointsFinal = d.PointsRaw
	if rs.Has(RulePointsFinal) {
		if d.TeamSuccess {
			d.PointsFinal = d.PointsRaw * 3
		}
		d.Fired = append(d.Fired, RulePointsFinal)
	}

	if rs.Has(RuleNextQuestion) {
		d.NextQuestion = nextQuestion(fs, d.Status)
		d.Fired = append(d.Fired, RuleNextQuestion)
	}

	return d, nil
}

// Evaluate answers a single query predicate with bound rows.
func (e *DirectEvaluator) Evaluate(ctx context.Context, fs *facts.Set, rs Set, query string) ([]Row, error) {
	d, err := e.Decide(ctx, fs, rs)
	if err != nil {
		return nil, err
	}

	switch query {
	case "status":
		return []Row{{"status": facts.String(string(d.Status))}}, nil
	case "risk_failed":
		if !d.RiskFailed {
			return nil, nil
		}
		return []Row{{"session": facts.String(d.Session)}}, nil
	case "team_success":
		if !d.TeamSuccess {
			return nil, nil
		}
		return []Row{{"session": facts.String(d.Session)}}, nil
	case "points_raw":
		return []Row{{"points": facts.Int(d.PointsRaw)}}, nil
	case "points_final":
		return []Row{{"points": facts.Int(d.PointsFinal)}}, nil
	case "next_question":
		return []Row{{"index": facts.Int(d.NextQuestion)}}, nil
	}
	return nil, fmt.Errorf("unknown query predicate %q", query)
}

// riskFailed holds if any answered fact for a designated risk index, under
// either sub-part, was marked incorrect.
func riskFailed(fs *facts.Set) bool {
	riskIdx := indexSet(fs, facts.PredRiskIndex)
	for _, f := range fs.ByPredicate(facts.PredAnswered) {
		idx := f.Arg(0).Int
		if !riskIdx[idx] {
			continue
		}
		if !f.Arg(2).Bool {
			return true
		}
	}
	return false
}

// deadlineExceeded holds if the session has a deadline fact in the past.
func deadlineExceeded(fs *facts.Set, now time.Time) bool {
	f, ok := fs.First(facts.PredDeadline)
	if !ok {
		return false
	}
	return now.After(f.Arg(0).Time)
}

// allRequiredComplete holds if every required question index has a
// correct/success-recorded attempt. Risk indices need both sub-parts
// recorded correct.
func allRequiredComplete(fs *facts.Set) bool {
	required := fs.ByPredicate(facts.PredRequiredIndex)
	if len(required) == 0 {
		return false
	}
	riskIdx := indexSet(fs, facts.PredRiskIndex)
	answered := fs.ByPredicate(facts.PredAnswered)
	challenged := indexSet(fs, facts.PredChallengeSuccess)

	for _, req := range required {
		idx := req.Arg(0).Int
		if challenged[idx] {
			continue
		}
		if riskIdx[idx] {
			if !riskComplete(answered, idx) {
				return false
			}
			continue
		}
		if !anyCorrect(answered, idx) {
			return false
		}
	}
	return true
}

// riskComplete holds when both sub-parts of a risk question are recorded
// correct. Any incorrect sub-part fails the whole question.
func riskComplete(answered []facts.Fact, idx int64) bool {
	var partA, partB bool
	for _, f := range answered {
		if f.Arg(0).Int != idx {
			continue
		}
		if !f.Arg(2).Bool {
			return false
		}
		switch f.Arg(1).Str {
		case facts.PartA:
			partA = true
		case facts.PartB:
			partB = true
		}
	}
	return partA && partB
}

func anyCorrect(answered []facts.Fact, idx int64) bool {
	for _, f := range answered {
		if f.Arg(0).Int == idx && f.Arg(2).Bool {
			return true
		}
	}
	return false
}

// teamSuccess holds iff correct team answers, doubled, strictly exceed the
// team size: a strict majority.
func teamSuccess(fs *facts.Set) bool {
	correct, okC := fs.First(facts.PredTeamCorrect)
	size, okS := fs.First(facts.PredTeamSize)
	if !okC || !okS {
		return false
	}
	return correct.Arg(1).Int*2 > size.Arg(0).Int
}

// pointsRaw sums every base_points fact recorded for the session.
func pointsRaw(fs *facts.Set) int64 {
	var total int64
	for _, f := range fs.ByPredicate(facts.PredBasePoints) {
		total += f.Arg(0).Int
	}
	return total
}

// nextQuestion derives the next permitted question index. A reset status
// sends the session back to question 1.
func nextQuestion(fs *facts.Set, status Status) int64 {
	if status == StatusResetRisk || status == StatusResetDeadline {
		return 1
	}

	var current int64 = 1
	if f, ok := fs.First(facts.PredCurrentIndex); ok {
		current = f.Arg(0).Int
	}

	challenged := indexSet(fs, facts.PredChallengeSuccess)
	if challenged[current] {
		return current + 1
	}
	riskIdx := indexSet(fs, facts.PredRiskIndex)
	answered := fs.ByPredicate(facts.PredAnswered)
	if riskIdx[current] {
		if riskComplete(answered, current) {
			return current + 1
		}
		return current
	}
	if anyCorrect(answered, current) {
		return current + 1
	}
	return current
}

// indexSet collects the first integer argument of every fact with the given
// predicate.
func indexSet(fs *facts.Set, predicate string) map[int64]bool {
	out := make(map[int64]bool)
	for _, f := range fs.ByPredicate(predicate) {
		out[f.Arg(0).Int] = true
	}
	return out
}

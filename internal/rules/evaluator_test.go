package rules

import (
	"context"
	"testing"
	"time"

	"github.com/junosixteen/questengine/internal/facts"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newEvaluator() *DirectEvaluator {
	return &DirectEvaluator{Now: fixedClock(testNow)}
}

// sessionFacts builds a set with the standard mission layout: 10 questions,
// risk at 5 and 10, team at 9.
func sessionFacts(session string) *facts.Set {
	fs := facts.NewSet(session)
	fs.Append(facts.PredRiskIndex, facts.Int(5))
	fs.Append(facts.PredRiskIndex, facts.Int(10))
	fs.Append(facts.PredTeamIndex, facts.Int(9))
	for i := int64(1); i <= 10; i++ {
		fs.Append(facts.PredRequiredIndex, facts.Int(i))
	}
	return fs
}

func TestDecide_RiskFailureForcesReset(t *testing.T) {
	fs := sessionFacts("s1")
	fs.Append(facts.PredAnswered, facts.Int(5), facts.String(facts.PartA), facts.Bool(true))
	fs.Append(facts.PredAnswered, facts.Int(5), facts.String(facts.PartB), facts.Bool(false))

	d, err := newEvaluator().Decide(context.Background(), fs, DefaultSet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.Status != StatusResetRisk {
		t.Errorf("status = %s, want %s", d.Status, StatusResetRisk)
	}
	if !d.RiskFailed {
		t.Error("expected risk_failed to hold")
	}
	if d.NextQuestion != 1 {
		t.Errorf("next question = %d, want 1 after reset", d.NextQuestion)
	}
}

func TestDecide_RiskPassStaysInProgress(t *testing.T) {
	fs := sessionFacts("s2")
	fs.Append(facts.PredAnswered, facts.Int(5), facts.String(facts.PartA), facts.Bool(true))
	fs.Append(facts.PredAnswered, facts.Int(5), facts.String(facts.PartB), facts.Bool(true))

	d, err := newEvaluator().Decide(context.Background(), fs, DefaultSet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.Status != StatusInProgress {
		t.Errorf("status = %s, want %s", d.Status, StatusInProgress)
	}
	if d.RiskFailed {
		t.Error("risk_failed should not hold when both sub-parts are correct")
	}
}

// A failed risk question must override team success: the reset wins even
// when the team multiplier rule would otherwise apply.
func TestDecide_RiskOverridesTeamSuccess(t *testing.T) {
	fs := sessionFacts("s3")
	fs.Append(facts.PredAnswered, facts.Int(10), facts.String(facts.PartB), facts.Bool(false))
	fs.Append(facts.PredTeamCorrect, facts.Int(9), facts.Int(4))
	fs.Append(facts.PredTeamSize, facts.Int(5))

	d, err := newEvaluator().Decide(context.Background(), fs, DefaultSet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.Status != StatusResetRisk {
		t.Errorf("status = %s, want %s despite team success", d.Status, StatusResetRisk)
	}
	if !d.TeamSuccess {
		t.Error("team_success should still be derivable; only status precedence changes")
	}
}

func TestDecide_DeadlineReset(t *testing.T) {
	fs := sessionFacts("s4")
	fs.Append(facts.PredDeadline, facts.Time(testNow.Add(-time.Hour)))

	d, err := newEvaluator().Decide(context.Background(), fs, DefaultSet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.Status != StatusResetDeadline {
		t.Errorf("status = %s, want %s", d.Status, StatusResetDeadline)
	}
	if d.NextQuestion != 1 {
		t.Errorf("next question = %d, want 1 after deadline reset", d.NextQuestion)
	}
}

func TestDecide_RiskResetBeatsDeadlineReset(t *testing.T) {
	fs := sessionFacts("s5")
	fs.Append(facts.PredDeadline, facts.Time(testNow.Add(-time.Hour)))
	fs.Append(facts.PredAnswered, facts.Int(5), facts.String(facts.PartA), facts.Bool(false))

	d, err := newEvaluator().Decide(context.Background(), fs, DefaultSet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.Status != StatusResetRisk {
		t.Errorf("status = %s, want %s (risk precedence)", d.Status, StatusResetRisk)
	}
}

func TestDecide_PassedWhenAllRequiredComplete(t *testing.T) {
	fs := sessionFacts("s6")
	for i := int64(1); i <= 10; i++ {
		if i == 5 || i == 10 {
			fs.Append(facts.PredAnswered, facts.Int(i), facts.String(facts.PartA), facts.Bool(true))
			fs.Append(facts.PredAnswered, facts.Int(i), facts.String(facts.PartB), facts.Bool(true))
			continue
		}
		fs.Append(facts.PredAnswered, facts.Int(i), facts.String(facts.PartNone), facts.Bool(true))
	}

	d, err := newEvaluator().Decide(context.Background(), fs, DefaultSet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.Status != StatusPassed {
		t.Errorf("status = %s, want %s", d.Status, StatusPassed)
	}
}

func TestDecide_ChallengeSuccessSatisfiesRequiredIndex(t *testing.T) {
	fs := sessionFacts("s7")
	for i := int64(1); i <= 10; i++ {
		if i == 3 {
			// Wrong answer, but the linked challenge succeeded.
			fs.Append(facts.PredAnswered, facts.Int(i), facts.String(facts.PartNone), facts.Bool(false))
			fs.Append(facts.PredChallengeSuccess, facts.Int(i))
			continue
		}
		if i == 5 || i == 10 {
			fs.Append(facts.PredAnswered, facts.Int(i), facts.String(facts.PartA), facts.Bool(true))
			fs.Append(facts.PredAnswered, facts.Int(i), facts.String(facts.PartB), facts.Bool(true))
			continue
		}
		fs.Append(facts.PredAnswered, facts.Int(i), facts.String(facts.PartNone), facts.Bool(true))
	}

	d, err := newEvaluator().Decide(context.Background(), fs, DefaultSet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.Status != StatusPassed {
		t.Errorf("status = %s, want %s with challenge success covering index 3", d.Status, StatusPassed)
	}
}

func TestDecide_TeamMajority(t *testing.T) {
	tests := []struct {
		name    string
		correct int64
		size    int64
		want    bool
	}{
		{"three of five", 3, 5, true},
		{"two of five", 2, 5, false},
		{"four of six", 4, 6, true},
		{"three of six is not strict majority", 3, 6, false},
		{"one of one", 1, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := sessionFacts("team")
			fs.Append(facts.PredTeamCorrect, facts.Int(9), facts.Int(tt.correct))
			fs.Append(facts.PredTeamSize, facts.Int(tt.size))

			d, err := newEvaluator().Decide(context.Background(), fs, DefaultSet())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.TeamSuccess != tt.want {
				t.Errorf("team_success = %v, want %v", d.TeamSuccess, tt.want)
			}
		})
	}
}

func TestDecide_PointsFinalTriplesOnTeamSuccess(t *testing.T) {
	fs := sessionFacts("s8")
	fs.Append(facts.PredBasePoints, facts.Int(100))
	fs.Append(facts.PredTeamCorrect, facts.Int(9), facts.Int(4))
	fs.Append(facts.PredTeamSize, facts.Int(6))

	d, err := newEvaluator().Decide(context.Background(), fs, DefaultSet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.PointsRaw != 100 {
		t.Errorf("points_raw = %d, want 100", d.PointsRaw)
	}
	if d.PointsFinal != 300 {
		t.Errorf("points_final = %d, want 300", d.PointsFinal)
	}
}

func TestDecide_PointsFinalUnchangedWithoutTeamSuccess(t *testing.T) {
	fs := sessionFacts("s9")
	fs.Append(facts.PredBasePoints, facts.Int(60))
	fs.Append(facts.PredBasePoints, facts.Int(40))

	d, err := newEvaluator().Decide(context.Background(), fs, DefaultSet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.PointsRaw != 100 || d.PointsFinal != 100 {
		t.Errorf("points raw/final = %d/%d, want 100/100", d.PointsRaw, d.PointsFinal)
	}
}

func TestDecide_NextQuestionAdvance(t *testing.T) {
	tests := []struct {
		name  string
		setup func(fs *facts.Set)
		want  int64
	}{
		{
			"correct answer advances",
			func(fs *facts.Set) {
				fs.Append(facts.PredCurrentIndex, facts.Int(3))
				fs.Append(facts.PredAnswered, facts.Int(3), facts.String(facts.PartNone), facts.Bool(true))
			},
			4,
		},
		{
			"wrong answer holds",
			func(fs *facts.Set) {
				fs.Append(facts.PredCurrentIndex, facts.Int(3))
				fs.Append(facts.PredAnswered, facts.Int(3), facts.String(facts.PartNone), facts.Bool(false))
			},
			3,
		},
		{
			"challenge success advances",
			func(fs *facts.Set) {
				fs.Append(facts.PredCurrentIndex, facts.Int(4))
				fs.Append(facts.PredAnswered, facts.Int(4), facts.String(facts.PartNone), facts.Bool(false))
				fs.Append(facts.PredChallengeSuccess, facts.Int(4))
			},
			5,
		},
		{
			"risk question needs both sub-parts",
			func(fs *facts.Set) {
				fs.Append(facts.PredCurrentIndex, facts.Int(5))
				fs.Append(facts.PredAnswered, facts.Int(5), facts.String(facts.PartA), facts.Bool(true))
			},
			5,
		},
		{
			"risk question holds on sub-part B alone",
			func(fs *facts.Set) {
				fs.Append(facts.PredCurrentIndex, facts.Int(5))
				fs.Append(facts.PredAnswered, facts.Int(5), facts.String(facts.PartB), facts.Bool(true))
			},
			5,
		},
		{
			"risk question advances with both sub-parts correct",
			func(fs *facts.Set) {
				fs.Append(facts.PredCurrentIndex, facts.Int(5))
				fs.Append(facts.PredAnswered, facts.Int(5), facts.String(facts.PartA), facts.Bool(true))
				fs.Append(facts.PredAnswered, facts.Int(5), facts.String(facts.PartB), facts.Bool(true))
			},
			6,
		},
		{
			"no attempt holds at current",
			func(fs *facts.Set) {
				fs.Append(facts.PredCurrentIndex, facts.Int(7))
			},
			7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := sessionFacts("next")
			tt.setup(fs)
			d, err := newEvaluator().Decide(context.Background(), fs, DefaultSet())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.NextQuestion != tt.want {
				t.Errorf("next_question = %d, want %d", d.NextQuestion, tt.want)
			}
		})
	}
}

// Re-running the evaluator on an unchanged fact set must yield the same
// result: no fact is consumed.
func TestDecide_Idempotent(t *testing.T) {
	fs := sessionFacts("s10")
	fs.Append(facts.PredAnswered, facts.Int(5), facts.String(facts.PartA), facts.Bool(false))
	fs.Append(facts.PredBasePoints, facts.Int(250))
	fs.Append(facts.PredTeamCorrect, facts.Int(9), facts.Int(3))
	fs.Append(facts.PredTeamSize, facts.Int(4))

	ev := newEvaluator()
	first, err := ev.Decide(context.Background(), fs, DefaultSet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := ev.Decide(context.Background(), fs, DefaultSet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.Status != second.Status {
		t.Errorf("status changed between runs: %s then %s", first.Status, second.Status)
	}
	if first.PointsFinal != second.PointsFinal {
		t.Errorf("points changed between runs: %d then %d", first.PointsFinal, second.PointsFinal)
	}
	if len(first.Fired) != len(second.Fired) {
		t.Errorf("fired rules changed between runs: %v then %v", first.Fired, second.Fired)
	}
}

func TestDecide_MalformedRuleSet(t *testing.T) {
	fs := sessionFacts("s11")

	_, err := newEvaluator().Decide(context.Background(), fs, Set{Version: "not-semver"})
	if err == nil {
		t.Fatal("expected error for malformed rule set")
	}
}

func TestDecide_FiredRuleOrder(t *testing.T) {
	fs := sessionFacts("s12")
	fs.Append(facts.PredAnswered, facts.Int(5), facts.String(facts.PartB), facts.Bool(false))

	d, err := newEvaluator().Decide(context.Background(), fs, DefaultSet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(d.Fired) < 2 || d.Fired[0] != RuleRiskFailed || d.Fired[1] != RuleStatusResetRisk {
		t.Errorf("fired = %v, want risk_failed then status_reset_risk first", d.Fired)
	}
}

func TestEvaluate_StatusQuery(t *testing.T) {
	fs := sessionFacts("s13")
	rows, err := newEvaluator().Evaluate(context.Background(), fs, DefaultSet(), "status")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if got := rows[0]["status"].Str; got != string(StatusInProgress) {
		t.Errorf("status = %s, want %s", got, StatusInProgress)
	}
}

func TestEvaluate_UnknownQuery(t *testing.T) {
	fs := sessionFacts("s14")
	_, err := newEvaluator().Evaluate(context.Background(), fs, DefaultSet(), "bogus")
	if err == nil {
		t.Fatal("expected error for unknown query predicate")
	}
}

func TestSet_VersionSelection(t *testing.T) {
	older := Set{Version: "v1.0.0", Rules: DefaultSet().Rules}
	newer := Set{Version: "v1.2.0", Rules: DefaultSet().Rules}

	if !newer.Newer(older) {
		t.Error("v1.2.0 should supersede v1.0.0")
	}
	if older.Newer(newer) {
		t.Error("v1.0.0 should not supersede v1.2.0")
	}
}

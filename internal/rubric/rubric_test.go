package rubric

import "testing"

func TestScore_CorrectAnswer(t *testing.T) {
	r := Score(Attempt{Kind: KindStandard, Correct: true, ElapsedMs: 8000, Challenge: ChallengeNone}, nil)
	if r.Score != 1.0 {
		t.Errorf("score = %v, want 1.0", r.Score)
	}
	if r.Feedback == "" {
		t.Error("expected feedback text")
	}
}

func TestScore_WrongAnswer(t *testing.T) {
	r := Score(Attempt{Kind: KindStandard, Correct: false, ElapsedMs: 8000, Challenge: ChallengeNone}, nil)
	if r.Score != 0 {
		t.Errorf("score = %v, want 0", r.Score)
	}
}

func TestScore_HelpPenalty(t *testing.T) {
	r := Score(Attempt{Kind: KindStandard, Correct: true, ElapsedMs: 8000, HelpUsed: true, Challenge: ChallengeNone}, nil)
	if r.Score != 0.8 {
		t.Errorf("score = %v, want 0.8 with help used", r.Score)
	}
}

func TestScore_FastAnswerPenalty(t *testing.T) {
	r := Score(Attempt{Kind: KindStandard, Correct: true, ElapsedMs: 1500, Challenge: ChallengeNone}, nil)
	if r.Score != 0.9 {
		t.Errorf("score = %v, want 0.9 for implausibly fast answer", r.Score)
	}
}

func TestScore_ChallengeSuccessBonus(t *testing.T) {
	r := Score(Attempt{Kind: KindStandard, Correct: true, ElapsedMs: 8000, HelpUsed: true, Challenge: ChallengeSuccess}, nil)
	if r.Score != 1.0 {
		t.Errorf("score = %v, want 1.0 (0.8 + 0.2 capped)", r.Score)
	}
}

func TestScore_ChallengeFailZeroes(t *testing.T) {
	r := Score(Attempt{Kind: KindStandard, Correct: true, ElapsedMs: 8000, Challenge: ChallengeFail}, nil)
	if r.Score != 0 {
		t.Errorf("score = %v, want 0 after challenge failure", r.Score)
	}
	if r.Feedback != "Challenge failed. Next time!" {
		t.Errorf("feedback = %q, want challenge-fail line", r.Feedback)
	}
}

func TestScore_GuessPattern(t *testing.T) {
	fast := []HistoryEntry{
		{Kind: KindStandard, ElapsedMs: 1000},
		{Kind: KindStandard, ElapsedMs: 1200},
	}

	r := Score(Attempt{Kind: KindStandard, Correct: true, ElapsedMs: 900, Challenge: ChallengeNone}, fast)
	if !r.Signals.GuessPattern {
		t.Error("expected guess pattern after three consecutive fast attempts")
	}

	// A single fast attempt is not a pattern.
	r = Score(Attempt{Kind: KindStandard, Correct: true, ElapsedMs: 900, Challenge: ChallengeNone}, nil)
	if r.Signals.GuessPattern {
		t.Error("single fast attempt should not flag a guess pattern")
	}

	// A slow attempt breaks the run.
	mixed := []HistoryEntry{
		{Kind: KindStandard, ElapsedMs: 1000},
		{Kind: KindStandard, ElapsedMs: 9000},
		{Kind: KindStandard, ElapsedMs: 1200},
	}
	r = Score(Attempt{Kind: KindStandard, Correct: true, ElapsedMs: 900, Challenge: ChallengeNone}, mixed)
	if r.Signals.GuessPattern {
		t.Error("slow attempt inside the run should break the pattern")
	}
}

func TestScore_MinThinkTimeVariesByKind(t *testing.T) {
	// 4s is fast for a risk question but fine for a standard one.
	r := Score(Attempt{Kind: KindRisk, Correct: true, ElapsedMs: 4000, Challenge: ChallengeNone}, nil)
	if r.Score != 0.9 {
		t.Errorf("risk score = %v, want 0.9 (4s is under risk think time)", r.Score)
	}

	r = Score(Attempt{Kind: KindStandard, Correct: true, ElapsedMs: 4000, Challenge: ChallengeNone}, nil)
	if r.Score != 1.0 {
		t.Errorf("standard score = %v, want 1.0", r.Score)
	}
}

func TestScore_FatigueFromDecline(t *testing.T) {
	var history []HistoryEntry
	// Strong early run.
	for i := 0; i < 5; i++ {
		history = append(history, HistoryEntry{Kind: KindStandard, Correct: true, ElapsedMs: 8000, Score: 1})
	}
	// Collapsing recent window.
	for i := 0; i < 5; i++ {
		history = append(history, HistoryEntry{Kind: KindStandard, Correct: false, ElapsedMs: 8000})
	}

	r := Score(Attempt{Kind: KindStandard, Correct: false, ElapsedMs: 8000, Challenge: ChallengeNone}, history)
	if !r.Signals.Fatigue {
		t.Error("expected fatigue when recent correctness collapses")
	}
}

func TestScore_FatigueFromSlowAnswer(t *testing.T) {
	r := Score(Attempt{Kind: KindStandard, Correct: true, ElapsedMs: 70000, Challenge: ChallengeNone}, nil)
	if !r.Signals.Fatigue {
		t.Error("expected fatigue for a 70s answer")
	}
}

func TestScore_TelemetrySignals(t *testing.T) {
	r := Score(Attempt{
		Kind: KindStandard, Correct: true, ElapsedMs: 8000, Challenge: ChallengeNone,
		Telemetry: map[string]int{"clicks": 9},
	}, nil)
	if !r.Signals.GuessPattern {
		t.Error("expected guess pattern from rapid clicking telemetry")
	}

	r = Score(Attempt{
		Kind: KindStandard, Correct: true, ElapsedMs: 8000, Challenge: ChallengeNone,
		Telemetry: map[string]int{"focusLost": 4},
	}, nil)
	if !r.Signals.Fatigue {
		t.Error("expected fatigue from focus-loss telemetry")
	}
}

func TestScore_DifficultyDelta(t *testing.T) {
	r := Score(Attempt{Kind: KindStandard, Correct: true, ElapsedMs: 8000, Challenge: ChallengeNone}, nil)
	if r.Signals.DifficultyDelta != 1 {
		t.Errorf("delta = %d, want +1 for clean correct answer", r.Signals.DifficultyDelta)
	}

	r = Score(Attempt{Kind: KindStandard, Correct: false, ElapsedMs: 8000, Challenge: ChallengeNone}, nil)
	if r.Signals.DifficultyDelta != -1 {
		t.Errorf("delta = %d, want -1 for wrong answer", r.Signals.DifficultyDelta)
	}
}

func TestScore_Deterministic(t *testing.T) {
	a := Attempt{Kind: KindRisk, Correct: true, ElapsedMs: 12000, HelpUsed: true, Challenge: ChallengeSuccess}
	history := []HistoryEntry{{Kind: KindStandard, Correct: true, ElapsedMs: 8000, Score: 1}}

	first := Score(a, history)
	second := Score(a, history)
	if first != second {
		t.Errorf("rubric is not deterministic: %+v vs %+v", first, second)
	}
}

func TestAggregate_Empty(t *testing.T) {
	agg := Aggregate(nil)
	if agg.ScoreAvg != 0 || agg.DifficultyDelta != 0 {
		t.Errorf("empty aggregate = %+v, want zero value", agg)
	}
}

func TestAggregate_RaiseAndLower(t *testing.T) {
	strong := []HistoryEntry{
		{Kind: KindStandard, Correct: true, ElapsedMs: 8000, Score: 0.9},
		{Kind: KindStandard, Correct: true, ElapsedMs: 9000, Score: 0.95},
		{Kind: KindStandard, Correct: true, ElapsedMs: 7000, Score: 1.0},
	}
	if agg := Aggregate(strong); agg.DifficultyDelta != 1 {
		t.Errorf("delta = %d, want +1 for strong history", agg.DifficultyDelta)
	}

	weak := []HistoryEntry{
		{Kind: KindStandard, ElapsedMs: 8000, Score: 0.2},
		{Kind: KindStandard, ElapsedMs: 9000, Score: 0.4},
		{Kind: KindStandard, Correct: true, ElapsedMs: 7000, Score: 0.8},
	}
	if agg := Aggregate(weak); agg.DifficultyDelta != -1 {
		t.Errorf("delta = %d, want -1 for weak history", agg.DifficultyDelta)
	}
}

func TestAggregate_HelpRate(t *testing.T) {
	history := []HistoryEntry{
		{Kind: KindStandard, Correct: true, ElapsedMs: 8000, Score: 1.0, HelpUsed: true},
		{Kind: KindStandard, Correct: true, ElapsedMs: 8000, Score: 1.0},
	}
	agg := Aggregate(history)
	if agg.HelpRate != 0.5 {
		t.Errorf("help rate = %v, want 0.5", agg.HelpRate)
	}
	// High help rate forces a lower move even with high scores.
	if agg.DifficultyDelta != -1 {
		t.Errorf("delta = %d, want -1 when help rate is high", agg.DifficultyDelta)
	}
}

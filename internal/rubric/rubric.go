// Package rubric scores a single answer attempt into a normalized score,
// a short feedback line, and behavioral signals. Everything here is a pure
// function of its inputs; the caller supplies recent history for pattern
// detection.
package rubric

// ChallengeOutcome is the result of a linked challenge, if any.
type ChallengeOutcome string

const (
	ChallengeNone    ChallengeOutcome = "none"
	ChallengeSuccess ChallengeOutcome = "success"
	ChallengeFail    ChallengeOutcome = "fail"
)

// QuestKind mirrors the quest taxonomy: standard, risk, team.
type QuestKind string

const (
	KindStandard QuestKind = "standard"
	KindRisk     QuestKind = "risk"
	KindTeam     QuestKind = "team"
)

// Attempt is the scoring input for one submitted answer.
type Attempt struct {
	Kind      QuestKind
	Correct   bool
	ElapsedMs int64
	HelpUsed  bool
	Challenge ChallengeOutcome
	// Telemetry carries raw client counters (clicks, focus losses, retries).
	Telemetry map[string]int
}

// HistoryEntry is a prior attempt, oldest first, used for pattern detection.
type HistoryEntry struct {
	Kind      QuestKind
	Correct   bool
	ElapsedMs int64
	Score     float64
	HelpUsed  bool
}

// Signals are the behavioral flags derived alongside the score.
type Signals struct {
	// DifficultyDelta suggests a one-step difficulty move: -1, 0, or +1.
	DifficultyDelta int
	Fatigue         bool
	GuessPattern    bool
}

// Result is the rubric output for one attempt.
type Result struct {
	Score    float64
	Feedback string
	Signals  Signals
}

// minThinkMs is the per-kind minimum plausible think time. Answers faster
// than this look like guesses.
var minThinkMs = map[QuestKind]int64{
	KindStandard: 3000,
	KindRisk:     5000,
	KindTeam:     4000,
}

const (
	// slowAnswerMs marks an answer slow enough to suggest fatigue.
	slowAnswerMs = 60000
	// fatigueWindow is the number of trailing attempts compared against the
	// earlier session rate.
	fatigueWindow = 5
	// fatigueRatio is the fraction of the earlier correctness rate below
	// which the rolling rate counts as fatigue.
	fatigueRatio = 0.6
	// guessRunLength is how many consecutive implausibly fast attempts
	// (including the current one) establish a guessing pattern.
	guessRunLength = 3
)

// Score evaluates one attempt. history is the session's prior attempts,
// oldest first; it is read, never modified.
func Score(a Attempt, history []HistoryEntry) Result {
	score := 0.0
	if a.Correct {
		score = 1.0
		if a.HelpUsed {
			score *= 0.8
		}
		if tooFast(a.Kind, a.ElapsedMs) {
			score *= 0.9
		}
	}

	sig := Signals{
		GuessPattern: guessPattern(a, history),
		Fatigue:      fatigue(a, history),
	}

	switch a.Challenge {
	case ChallengeSuccess:
		score = min(1.0, score+0.2)
	case ChallengeFail:
		score = 0
	}

	analyzeTelemetry(a.Telemetry, &sig)
	sig.DifficultyDelta = difficultyDelta(score, sig)

	return Result{
		Score:    score,
		Feedback: feedback(a, score, len(history)),
		Signals:  sig,
	}
}

func tooFast(kind QuestKind, elapsedMs int64) bool {
	m, ok := minThinkMs[kind]
	if !ok {
		m = minThinkMs[KindStandard]
	}
	return elapsedMs < m
}

// guessPattern fires when the current attempt and enough immediately
// preceding attempts all completed implausibly fast for their quest kind.
func guessPattern(a Attempt, history []HistoryEntry) bool {
	if !tooFast(a.Kind, a.ElapsedMs) {
		return false
	}
	run := 1
	for i := len(history) - 1; i >= 0 && run < guessRunLength; i-- {
		if !tooFast(history[i].Kind, history[i].ElapsedMs) {
			break
		}
		run++
	}
	return run >= guessRunLength
}

// fatigue fires when the rolling correctness rate over the trailing window
// drops well below the session's earlier rate, or when a single attempt
// drags on long enough to suggest exhaustion.
func fatigue(a Attempt, history []HistoryEntry) bool {
	if a.ElapsedMs > slowAnswerMs {
		return true
	}
	if len(history) < 2*fatigueWindow {
		return false
	}

	recent := history[len(history)-fatigueWindow:]
	earlier := history[:len(history)-fatigueWindow]

	earlierRate := correctRate(earlier)
	if earlierRate == 0 {
		return false
	}
	return correctRate(recent) < earlierRate*fatigueRatio
}

func correctRate(entries []HistoryEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	correct := 0
	for _, e := range entries {
		if e.Correct {
			correct++
		}
	}
	return float64(correct) / float64(len(entries))
}

func analyzeTelemetry(t map[string]int, sig *Signals) {
	if t == nil {
		return
	}
	if t["clicks"] > 5 {
		sig.GuessPattern = true
	}
	if t["focusLost"] > 3 || t["retries"] > 2 {
		sig.Fatigue = true
	}
}

func difficultyDelta(score float64, sig Signals) int {
	if score < 0.5 || sig.Fatigue {
		return -1
	}
	if score >= 0.9 && !sig.GuessPattern {
		return 1
	}
	return 0
}

package rubric

// AggregateSignals summarizes a mission's attempt history for the planner.
type AggregateSignals struct {
	ScoreAvg        float64
	HelpRate        float64
	DifficultyDelta int
	Fatigue         bool
	GuessPattern    bool
}

// flagShare is the fraction of flagged attempts above which a session-level
// fatigue or guess flag is raised.
const flagShare = 0.3

// Aggregate folds an attempt history into session-level signals. Fast
// attempts stand in for guess flags and slow ones for fatigue, mirroring
// the per-attempt detection.
func Aggregate(history []HistoryEntry) AggregateSignals {
	if len(history) == 0 {
		return AggregateSignals{}
	}

	var scoreSum float64
	var helpCount, fastCount, slowCount int
	for _, e := range history {
		scoreSum += e.Score
		if e.HelpUsed {
			helpCount++
		}
		if tooFast(e.Kind, e.ElapsedMs) {
			fastCount++
		}
		if e.ElapsedMs > slowAnswerMs {
			slowCount++
		}
	}

	n := float64(len(history))
	agg := AggregateSignals{
		ScoreAvg:     scoreSum / n,
		HelpRate:     float64(helpCount) / n,
		Fatigue:      float64(slowCount) > n*flagShare,
		GuessPattern: float64(fastCount) > n*flagShare,
	}

	switch {
	case agg.ScoreAvg < 0.55 || agg.HelpRate > 0.25:
		agg.DifficultyDelta = -1
	case agg.ScoreAvg > 0.82 && agg.HelpRate < 0.1:
		agg.DifficultyDelta = 1
	}
	return agg
}

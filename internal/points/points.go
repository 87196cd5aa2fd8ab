// Package points converts a rubric score plus attempt context into an
// integer point delta. All computations are deterministic; the team
// multiplier is applied downstream by rule evaluation, never here.
package points

import (
	"math"

	"github.com/junosixteen/questengine/internal/rubric"
)

// Config carries the overridable point table. Values come from the active
// policy; zero fields fall back to defaults.
type Config struct {
	// BasePoints maps quest kind to base award.
	BasePoints map[rubric.QuestKind]int
	// BonusGamePoints is the flat award for winning a bonus minigame.
	BonusGamePoints int
}

// DefaultConfig returns the built-in point table.
func DefaultConfig() Config {
	return Config{
		BasePoints: map[rubric.QuestKind]int{
			rubric.KindStandard: 200,
			rubric.KindRisk:     400,
			rubric.KindTeam:     300,
		},
		BonusGamePoints: 5000,
	}
}

// Context is the per-attempt input beyond the score itself.
type Context struct {
	Kind      rubric.QuestKind
	Correct   bool
	ElapsedMs int64
	HelpUsed  bool
	Challenge rubric.ChallengeOutcome
	// RapidCount is how many consecutive rapid answers this attempt makes,
	// including itself. Zero or one means no diminishing returns.
	RapidCount int
}

// Engine computes point deltas from scores and context.
type Engine struct {
	cfg Config
}

// NewEngine builds an engine over cfg, filling missing table entries from
// the defaults. The caller's map is copied, never written to.
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	table := make(map[rubric.QuestKind]int, len(def.BasePoints))
	for kind, base := range def.BasePoints {
		table[kind] = base
	}
	for kind, base := range cfg.BasePoints {
		table[kind] = base
	}
	cfg.BasePoints = table
	if cfg.BonusGamePoints == 0 {
		cfg.BonusGamePoints = def.BonusGamePoints
	}
	return &Engine{cfg: cfg}
}

// Compute returns the raw point delta for one attempt. The result is
// rounded to the nearest integer and never negative.
func (e *Engine) Compute(score float64, ctx Context) int {
	base := float64(e.cfg.BasePoints[ctx.Kind])

	mult := math.Max(0.5, math.Min(1.0, score))
	total := base * mult

	if score >= 1.0 && !ctx.HelpUsed {
		total *= 1.2
	}

	if ctx.Correct && ctx.ElapsedMs < 10000 {
		bonus := 50 - ctx.ElapsedMs/200
		if bonus > 0 {
			total += float64(bonus)
		}
	}

	if ctx.Challenge == rubric.ChallengeSuccess {
		total += 100
	}

	total = diminish(total, ctx.RapidCount)

	if total < 0 {
		return 0
	}
	return int(math.Round(total))
}

// diminish reduces pts by 10% for each consecutive rapid answer after the
// first, capped at 50%.
func diminish(pts float64, rapidCount int) float64 {
	if rapidCount <= 1 {
		return pts
	}
	reduction := math.Min(0.5, float64(rapidCount-1)*0.1)
	return pts * (1 - reduction)
}

// StreakBonus is the additive award for a run of consecutive correct
// answers. It is banked separately from per-quest points.
func StreakBonus(streak int) int {
	switch {
	case streak < 3:
		return 0
	case streak < 5:
		return 50
	case streak < 10:
		return 100
	default:
		return 200
	}
}

// TeamMultiplier maps a team success rate to the session multiplier
// applied by rule evaluation.
func TeamMultiplier(successRate float64) float64 {
	switch {
	case successRate > 0.5:
		return 3
	case successRate > 0.25:
		return 1.5
	default:
		return 1
	}
}

// BonusGame returns the flat award for a bonus minigame outcome.
func (e *Engine) BonusGame(success bool) int {
	if !success {
		return 0
	}
	return e.cfg.BonusGamePoints
}

// Package policy loads per-world mission policies: quest counts and
// positions, base points, risk guard limits, lives, and narrative text.
// Policies are JSON documents validated against an embedded schema.
package policy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/mod/semver"
)

// Questions configures the quest sequence shape.
type Questions struct {
	// Standard is the total number of questions in the mission.
	Standard int `json:"standard"`
	// RiskAt lists 1-based indices carrying risk questions.
	RiskAt []int `json:"risk_at"`
	// TeamAt lists 1-based indices carrying team questions.
	TeamAt []int `json:"team_at"`
}

// MissionTemplate shapes a planned mission.
type MissionTemplate struct {
	LivesStart        int       `json:"lives_start"`
	LifeCap           int       `json:"life_cap"`
	Questions         Questions `json:"questions"`
	ChallengeFallback bool      `json:"challenge_fallback"`
}

// RiskGuard limits retries on risk questions.
type RiskGuard struct {
	MaxAttempts int   `json:"max_attempts"`
	CooldownMs  int64 `json:"cooldown_ms"`
}

// BasePoints is the per-kind base award table.
type BasePoints struct {
	Standard int `json:"standard"`
	Risk     int `json:"risk"`
	Team     int `json:"team"`
}

// BonusMinigame configures the optional bonus game rewards.
type BonusMinigame struct {
	Points   int `json:"points"`
	LifePlus int `json:"life_plus"`
}

// Gamification groups the point configuration.
type Gamification struct {
	BasePoints    BasePoints    `json:"base_points"`
	BonusMinigame BonusMinigame `json:"bonus_minigame"`
}

// Story carries the narrative framing for a world's missions.
type Story struct {
	Briefing       string `json:"briefing"`
	DebriefSuccess string `json:"debrief_success"`
	DebriefFail    string `json:"debrief_fail"`
	Cliffhanger    string `json:"cliffhanger"`
}

// Policy is one world's mission configuration.
type Policy struct {
	Version         string          `json:"policy_version"`
	World           string          `json:"world"`
	StartDifficulty string          `json:"start_difficulty"`
	Mission         MissionTemplate `json:"mission_template"`
	RiskGuard       RiskGuard       `json:"risk_guard"`
	Gamification    Gamification    `json:"gamification"`
	Story           Story           `json:"story"`
}

// Default returns the built-in fallback policy used when a world's policy
// cannot be loaded.
func Default() *Policy {
	return &Policy{
		Version:         "v1.0.0",
		World:           "default",
		StartDifficulty: "medium",
		Mission: MissionTemplate{
			LivesStart: 3,
			LifeCap:    5,
			Questions: Questions{
				Standard: 10,
				RiskAt:   []int{5, 10},
				TeamAt:   []int{9},
			},
			ChallengeFallback: true,
		},
		RiskGuard: RiskGuard{
			MaxAttempts: 2,
			CooldownMs:  30000,
		},
		Gamification: Gamification{
			BasePoints:    BasePoints{Standard: 200, Risk: 400, Team: 300},
			BonusMinigame: BonusMinigame{Points: 5000, LifePlus: 1},
		},
		Story: Story{
			Briefing:       "A new mission awaits. Work through the questions to complete it.",
			DebriefSuccess: "Mission complete. Well done!",
			DebriefFail:    "Mission failed. Regroup and try again.",
			Cliffhanger:    "The next mission is already taking shape...",
		},
	}
}

// UnavailableError reports a policy that could not be loaded; callers fall
// back to the built-in default.
type UnavailableError struct {
	World string
	Err   error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("policy unavailable for world %q: %v", e.World, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Loader reads and caches world policies from a directory of JSON files
// named <world>.json. When several files declare the same world, the one
// with the highest semantic version wins.
type Loader struct {
	dir   string
	mu    sync.RWMutex
	cache map[string]*Policy
}

// NewLoader returns a loader over dir. An empty dir serves only Default().
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir, cache: make(map[string]*Policy)}
}

// ForWorld loads the policy for world. On any failure it returns the
// built-in default alongside an UnavailableError so callers can proceed
// while logging the degradation.
func (l *Loader) ForWorld(world string) (*Policy, error) {
	l.mu.RLock()
	if p, ok := l.cache[world]; ok {
		l.mu.RUnlock()
		return p, nil
	}
	l.mu.RUnlock()

	if l.dir == "" {
		return Default(), &UnavailableError{World: world, Err: fmt.Errorf("no policy directory configured")}
	}

	p, err := l.load(world)
	if err != nil {
		return Default(), &UnavailableError{World: world, Err: err}
	}

	l.mu.Lock()
	l.cache[world] = p
	l.mu.Unlock()
	return p, nil
}

func (l *Loader) load(world string) (*Policy, error) {
	// Candidate files: <world>.json plus versioned variants <world>@*.json.
	pattern := filepath.Join(l.dir, world+"*.json")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no policy file for world %q", world)
	}

	var best *Policy
	for _, path := range matches {
		p, err := parseFile(path)
		if err != nil {
			return nil, err
		}
		if p.World != world {
			return nil, fmt.Errorf("%s: world mismatch: expected %q, got %q", path, world, p.World)
		}
		if best == nil || semver.Compare(p.Version, best.Version) > 0 {
			best = p
		}
	}
	return best, nil
}

func parseFile(path string) (*Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy: %w", err)
	}
	return Parse(raw)
}

// Parse validates raw JSON against the policy schema and decodes it.
func Parse(raw []byte) (*Policy, error) {
	if err := validate(raw); err != nil {
		return nil, err
	}
	var p Policy
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode policy: %w", err)
	}
	if !semver.IsValid(p.Version) {
		return nil, fmt.Errorf("policy version %q is not valid semver", p.Version)
	}
	return &p, nil
}

// ClearCache drops cached policies so the next lookup re-reads disk.
func (l *Loader) ClearCache() {
	l.mu.Lock()
	l.cache = make(map[string]*Policy)
	l.mu.Unlock()
}

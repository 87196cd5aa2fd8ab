package planner

import (
	"fmt"

	"github.com/junosixteen/questengine/internal/hypothesis"
	"github.com/junosixteen/questengine/internal/rubric"
)

// Option is one selectable answer on a quest.
type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// RiskConfig limits retries on a risk quest.
type RiskConfig struct {
	MaxAttempts int   `json:"maxAttempts"`
	CooldownMs  int64 `json:"cooldownMs"`
}

// Quest is one planned question. Quests are immutable once composed.
type Quest struct {
	ID          string           `json:"id"`
	Index       int              `json:"index"`
	World       string           `json:"world"`
	Kind        rubric.QuestKind `json:"kind"`
	Prompt      string           `json:"prompt"`
	Options     []Option         `json:"options"`
	ChallengeID string           `json:"challengeId,omitempty"`
	Risk        *RiskConfig      `json:"riskConfig,omitempty"`
}

type questTemplate struct {
	prompt  string
	options []Option
}

// questTemplates is the built-in question bank, keyed by world. A real
// deployment would load these from a content service.
var questTemplates = map[string][]questTemplate{
	"health": {
		{
			prompt: "Which protective clothing is required in the clean room?",
			options: []Option{
				{ID: "a", Text: "Sterile gown, gloves, mask, and cap", Correct: true},
				{ID: "b", Text: "Only gloves and a mask", Correct: false},
				{ID: "c", Text: "Regular work clothes are enough", Correct: false},
				{ID: "d", Text: "No special requirements", Correct: false},
			},
		},
		{
			prompt: "What is the first step when a patient alarm sounds?",
			options: []Option{
				{ID: "a", Text: "Check the patient immediately", Correct: true},
				{ID: "b", Text: "Silence the alarm and continue", Correct: false},
				{ID: "c", Text: "Wait for the next round", Correct: false},
				{ID: "d", Text: "Log it for the handover", Correct: false},
			},
		},
	},
	"it": {
		{
			prompt: "What is the most important defense against phishing?",
			options: []Option{
				{ID: "a", Text: "Verify links before clicking", Correct: true},
				{ID: "b", Text: "Delete all incoming email", Correct: false},
				{ID: "c", Text: "Share passwords with the helpdesk", Correct: false},
				{ID: "d", Text: "Disable the firewall", Correct: false},
			},
		},
		{
			prompt: "How should a suspected malware infection be handled first?",
			options: []Option{
				{ID: "a", Text: "Disconnect the machine and report it", Correct: true},
				{ID: "b", Text: "Reboot and hope it clears", Correct: false},
				{ID: "c", Text: "Run a personal antivirus from a USB stick", Correct: false},
				{ID: "d", Text: "Ignore it if the machine still works", Correct: false},
			},
		},
	},
	"legal": {
		{
			prompt: "Which GDPR article covers the right to erasure?",
			options: []Option{
				{ID: "a", Text: "Article 17", Correct: true},
				{ID: "b", Text: "Article 5", Correct: false},
				{ID: "c", Text: "Article 32", Correct: false},
				{ID: "d", Text: "Article 88", Correct: false},
			},
		},
	},
	"public": {
		{
			prompt: "What priority does a citizen's urgent application receive?",
			options: []Option{
				{ID: "a", Text: "Highest, processed immediately", Correct: true},
				{ID: "b", Text: "Normal, handled in arrival order", Correct: false},
				{ID: "c", Text: "Low, after standard applications", Correct: false},
				{ID: "d", Text: "No priority at all", Correct: false},
			},
		},
	},
	"factory": {
		{
			prompt: "What applies when the emergency stop is pressed?",
			options: []Option{
				{ID: "a", Text: "Press immediately on danger, then evacuate", Correct: true},
				{ID: "b", Text: "Ask a supervisor first", Correct: false},
				{ID: "c", Text: "Wait until the end of the shift", Correct: false},
				{ID: "d", Text: "Ignore it and keep working", Correct: false},
			},
		},
	},
}

// templatesFor returns the question bank for a world, falling back to the
// health bank for unknown worlds.
func templatesFor(world string) []questTemplate {
	if ts, ok := questTemplates[world]; ok {
		return ts
	}
	return questTemplates["health"]
}

// composeQuest builds the quest at one sequence position.
func composeQuest(missionID, world string, index int, kind rubric.QuestKind, _ hypothesis.Difficulty, risk *RiskConfig) Quest {
	ts := templatesFor(world)
	t := ts[index%len(ts)]

	q := Quest{
		ID:      fmt.Sprintf("%s_q%d", missionID, index),
		Index:   index,
		World:   world,
		Kind:    kind,
		Prompt:  t.prompt,
		Options: t.options,
		Risk:    risk,
	}
	if kind == rubric.KindRisk {
		q.ChallengeID = fmt.Sprintf("boss_%s_q%d", world, index)
	}
	return q
}

package narrative

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/junosixteen/questengine/internal/llm"
)

// BriefingInput describes the mission a briefing should introduce.
type BriefingInput struct {
	World      string
	Difficulty string
	QuestCount int
	// BaseText is the policy's briefing, used as the source material and as
	// the fallback when generation fails.
	BaseText string
}

// DebriefInput describes a finished mission.
type DebriefInput struct {
	World     string
	Success   bool
	Points    int
	Correct   int
	Attempted int
	BaseText  string
}

// Service rewrites policy story text through an LLM provider. Generation is
// best-effort: any provider failure falls back to the policy text, so a
// mission never blocks on narration.
type Service struct {
	provider llm.Provider
	cfg      Config
}

// NewService creates a narrative service. A nil provider disables generation
// and every call returns the base text.
func NewService(provider llm.Provider, cfg Config) *Service {
	return &Service{provider: provider, cfg: cfg}
}

// Briefing returns the mission briefing, rewritten by the provider when one
// is available.
func (s *Service) Briefing(ctx context.Context, input BriefingInput) string {
	if s == nil || s.provider == nil {
		return input.BaseText
	}
	ctx = llm.WithPurpose(ctx, "briefing")
	text, err := s.generate(ctx, briefingSystemPrompt, buildBriefingUserMessage(input))
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: briefing generation failed: %v\n", err)
		return input.BaseText
	}
	return text
}

// Debrief returns the mission debrief, rewritten by the provider when one is
// available.
func (s *Service) Debrief(ctx context.Context, input DebriefInput) string {
	if s == nil || s.provider == nil {
		return input.BaseText
	}
	ctx = llm.WithPurpose(ctx, "debrief")
	text, err := s.generate(ctx, debriefSystemPrompt, buildDebriefUserMessage(input))
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: debrief generation failed: %v\n", err)
		return input.BaseText
	}
	return text
}

func (s *Service) generate(ctx context.Context, system, userMsg string) (string, error) {
	req := llm.Request{
		System: system,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: userMsg},
		},
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	}

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("narrative generation: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("narrative generation: empty response")
	}
	return text, nil
}

package llm

import "context"

// Provider generates text from a model behind one of the supported APIs.
// The engine only uses it for narrative framing; quest gating and scoring
// never depend on a model call.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID reports the configured model identifier.
	ModelID() string
}

// Request is a single generation call. Narrative calls are single-turn,
// so Messages usually holds exactly one user message.
type Request struct {
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Response is the model output with its accounting.
type Response struct {
	Text string

	Usage Usage

	// Model is the model that actually served the call, which can differ
	// from the configured ID when the provider resolves aliases.
	Model string

	// StopReason is normalized to "end". Truncation surfaces as
	// ErrMaxTokensExceeded instead of a response.
	StopReason string
}

// Usage counts tokens for one call.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

package llm

import (
	"testing"

	"google.golang.org/genai"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-2.0-flash"},
		{"gemini-pro", "gemini-2.0-pro"},
		{"gemini-2.5-flash", "gemini-2.5-flash"}, // direct IDs pass through
	}
	for _, tt := range tests {
		if got := resolveModel(tt.input, geminiModels); got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestGeminiTruncationDetection(t *testing.T) {
	full := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{FinishReason: "STOP"}},
	}
	if truncated(full) {
		t.Error("STOP should not count as truncation")
	}

	cut := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{FinishReason: "MAX_TOKENS"}},
	}
	if !truncated(cut) {
		t.Error("MAX_TOKENS should count as truncation")
	}

	if truncated(&genai.GenerateContentResponse{}) {
		t.Error("empty response should not count as truncation")
	}
}

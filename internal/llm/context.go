package llm

import "context"

type purposeKeyType struct{}

var purposeKey purposeKeyType

// WithPurpose labels the context so audit events record what a narrative
// call was for ("briefing", "debrief").
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom reads the purpose label, defaulting to "unknown".
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok {
		return v
	}
	return "unknown"
}

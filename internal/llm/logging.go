package llm

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/junosixteen/questengine/internal/store"
)

// LoggingProvider is a decorator that records every LLM request as an
// audit event, including an estimated cost when the model's pricing is
// known.
type LoggingProvider struct {
	inner Provider
	audit store.AuditRepo
}

// WithLogging wraps a Provider with audit event logging.
func WithLogging(p Provider, audit store.AuditRepo) Provider {
	return &LoggingProvider{inner: p, audit: audit}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	ev := store.LLMEvent{
		Provider:  l.inner.ModelID(),
		Model:     l.inner.ModelID(),
		Purpose:   purpose,
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
	}

	if resp != nil {
		ev.Model = resp.Model
		if cost := LookupCost(resp.Model); cost != nil {
			ev.CostUSD = cost.Cost(resp.Usage.InputTokens, resp.Usage.OutputTokens)
		}
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
	}

	// Log the event but don't fail the request if logging fails.
	if logErr := l.audit.AppendLLM(ctx, ev); logErr != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to log LLM request event: %v\n", logErr)
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

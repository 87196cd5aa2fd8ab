package engine

import (
	"fmt"

	"github.com/junosixteen/questengine/internal/planner"
	"github.com/junosixteen/questengine/internal/policy"
)

// ValidationError reports a request missing required fields.
type ValidationError = planner.ValidationError

// PolicyUnavailableError reports a world policy that could not be loaded.
// Callers receive it alongside a usable default, never instead of one.
type PolicyUnavailableError = policy.UnavailableError

// NotFoundError reports a session with no recorded state.
type NotFoundError struct {
	Session string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no state recorded for session %s", e.Session)
}

// EvaluationError reports a rule evaluation failure. Gating fails closed:
// no question transition is granted while the error stands.
type EvaluationError struct {
	Session string
	Err     error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("rule evaluation for session %s: %v", e.Session, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

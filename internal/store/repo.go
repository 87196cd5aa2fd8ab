package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// AttemptEvent records one scored answer for the audit trail.
type AttemptEvent struct {
	Sequence   int64
	UserID     string
	MissionID  string
	QuestID    string
	Correct    bool
	Score      float64
	PointDelta int
	ElapsedMs  int64
	HelpUsed   bool
	Challenge  string
	CreatedAt  time.Time
}

// DecisionEvent records one gating decision with its fired-rule trace.
type DecisionEvent struct {
	Sequence     int64
	Session      string
	Status       string
	FiredRules   []string
	PointsRaw    int
	PointsFinal  int
	NextQuestion int
	RuleVersion  string
	CreatedAt    time.Time
}

// LLMEvent records one LLM API call.
type LLMEvent struct {
	Sequence     int64
	Provider     string
	Model        string
	Purpose      string
	LatencyMs    int64
	Success      bool
	CostUSD      float64
	ErrorMessage string
	CreatedAt    time.Time
}

// AuditRepo provides append and query access to the audit log.
type AuditRepo interface {
	AppendAttempt(ctx context.Context, ev AttemptEvent) error
	AppendDecision(ctx context.Context, ev DecisionEvent) error
	AppendLLM(ctx context.Context, ev LLMEvent) error

	// AttemptsFor returns a key's attempts in sequence order.
	AttemptsFor(ctx context.Context, userID, missionID string) ([]AttemptEvent, error)

	// LatestDecision returns the session's most recent decision, or nil
	// if none has been recorded.
	LatestDecision(ctx context.Context, session string) (*DecisionEvent, error)

	// LLMEvents returns the most recent LLM events, newest first.
	LLMEvents(ctx context.Context, limit int) ([]LLMEvent, error)
}

type auditRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func (r *auditRepo) AppendAttempt(ctx context.Context, ev AttemptEvent) error {
	seq, err := r.seq.Next(ctx)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO attempt_events
		 (sequence, user_id, mission_id, quest_id, correct, score, point_delta, elapsed_ms, help_used, challenge)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seq, ev.UserID, ev.MissionID, ev.QuestID, ev.Correct, ev.Score,
		ev.PointDelta, ev.ElapsedMs, ev.HelpUsed, ev.Challenge,
	)
	if err != nil {
		return fmt.Errorf("append attempt event: %w", err)
	}
	return nil
}

func (r *auditRepo) AppendDecision(ctx context.Context, ev DecisionEvent) error {
	seq, err := r.seq.Next(ctx)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO decision_events
		 (sequence, session, status, fired_rules, points_raw, points_final, next_question, rule_version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		seq, ev.Session, ev.Status, strings.Join(ev.FiredRules, ","),
		ev.PointsRaw, ev.PointsFinal, ev.NextQuestion, ev.RuleVersion,
	)
	if err != nil {
		return fmt.Errorf("append decision event: %w", err)
	}
	return nil
}

func (r *auditRepo) AppendLLM(ctx context.Context, ev LLMEvent) error {
	seq, err := r.seq.Next(ctx)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO llm_events
		 (sequence, provider, model, purpose, latency_ms, success, cost_usd, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		seq, ev.Provider, ev.Model, ev.Purpose, ev.LatencyMs, ev.Success, ev.CostUSD, ev.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("append llm event: %w", err)
	}
	return nil
}

func (r *auditRepo) AttemptsFor(ctx context.Context, userID, missionID string) ([]AttemptEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT sequence, user_id, mission_id, quest_id, correct, score, point_delta, elapsed_ms, help_used, challenge, created_at
		 FROM attempt_events WHERE user_id = ? AND mission_id = ? ORDER BY sequence`,
		userID, missionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var out []AttemptEvent
	for rows.Next() {
		var ev AttemptEvent
		if err := rows.Scan(
			&ev.Sequence, &ev.UserID, &ev.MissionID, &ev.QuestID, &ev.Correct,
			&ev.Score, &ev.PointDelta, &ev.ElapsedMs, &ev.HelpUsed, &ev.Challenge, &ev.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (r *auditRepo) LatestDecision(ctx context.Context, session string) (*DecisionEvent, error) {
	var ev DecisionEvent
	var fired string
	err := r.db.QueryRowContext(ctx,
		`SELECT sequence, session, status, fired_rules, points_raw, points_final, next_question, rule_version, created_at
		 FROM decision_events WHERE session = ? ORDER BY sequence DESC LIMIT 1`,
		session,
	).Scan(
		&ev.Sequence, &ev.Session, &ev.Status, &fired,
		&ev.PointsRaw, &ev.PointsFinal, &ev.NextQuestion, &ev.RuleVersion, &ev.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest decision: %w", err)
	}
	if fired != "" {
		ev.FiredRules = strings.Split(fired, ",")
	}
	return &ev, nil
}

func (r *auditRepo) LLMEvents(ctx context.Context, limit int) ([]LLMEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT sequence, provider, model, purpose, latency_ms, success, cost_usd, error_message, created_at
		 FROM llm_events ORDER BY sequence DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query llm events: %w", err)
	}
	defer rows.Close()

	var out []LLMEvent
	for rows.Next() {
		var ev LLMEvent
		if err := rows.Scan(
			&ev.Sequence, &ev.Provider, &ev.Model, &ev.Purpose, &ev.LatencyMs,
			&ev.Success, &ev.CostUSD, &ev.ErrorMessage, &ev.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan llm event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

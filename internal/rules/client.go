package rules

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/junosixteen/questengine/internal/facts"
)

// ClientConfig configures the delegating evaluator.
type ClientConfig struct {
	// BaseURL of the external solver, e.g. "http://localhost:8088".
	BaseURL string
	// Timeout bounds a single evaluation round trip. Default: 5s.
	Timeout time.Duration
}

// Client delegates evaluation to an external fact/rule solver over HTTP.
// The wire contract: POST {BaseURL}/eval with facts and queries, receiving
// bound rows per query predicate. Any transport or solver failure surfaces
// as an error; callers must treat it as fail-closed (no advance), never as
// an accidental pass.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a delegating evaluator client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("solver base URL is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

type wireFact struct {
	Pred string `json:"pred"`
	Args []any  `json:"args"`
}

type wireQuery struct {
	Pred string `json:"pred"`
	Args []any  `json:"args"`
}

type evalRequest struct {
	SessionID string      `json:"sessionId"`
	Ruleset   string      `json:"ruleset"`
	Facts     []wireFact  `json:"facts"`
	Queries   []wireQuery `json:"queries"`
}

type evalResponse struct {
	Results map[string][]map[string]any `json:"results"`
	Error   string                      `json:"error,omitempty"`
}

// Evaluate runs one query predicate against the external solver.
func (c *Client) Evaluate(ctx context.Context, fs *facts.Set, rs Set, query string) ([]Row, error) {
	resp, err := c.eval(ctx, fs, rs, []string{query})
	if err != nil {
		return nil, err
	}
	return parseRows(resp.Results[query]), nil
}

// Decide issues every canonical query in one round trip and assembles the
// combined conclusion.
func (c *Client) Decide(ctx context.Context, fs *facts.Set, rs Set) (*Decision, error) {
	queries := []string{"status", "risk_failed", "team_success", "points_raw", "points_final", "next_question"}
	resp, err := c.eval(ctx, fs, rs, queries)
	if err != nil {
		return nil, err
	}

	d := &Decision{
		Session:     fs.Session(),
		RuleVersion: rs.Version,
		EvaluatedAt: time.Now(),
	}

	status, err := singleString(resp.Results["status"], "status")
	if err != nil {
		return nil, fmt.Errorf("solver status: %w", err)
	}
	switch Status(status) {
	case StatusResetRisk, StatusResetDeadline, StatusPassed, StatusInProgress:
		d.Status = Status(status)
	default:
		return nil, fmt.Errorf("solver returned unknown status %q", status)
	}

	d.RiskFailed = len(resp.Results["risk_failed"]) > 0
	d.TeamSuccess = len(resp.Results["team_success"]) > 0

	if d.PointsRaw, err = singleInt(resp.Results["points_raw"], "points"); err != nil {
		return nil, fmt.Errorf("solver points_raw: %w", err)
	}
	if d.PointsFinal, err = singleInt(resp.Results["points_final"], "points"); err != nil {
		return nil, fmt.Errorf("solver points_final: %w", err)
	}
	if d.NextQuestion, err = singleInt(resp.Results["next_question"], "index"); err != nil {
		return nil, fmt.Errorf("solver next_question: %w", err)
	}

	// The external solver does not report a derivation trace; record the
	// rules whose conclusions are visible in the result.
	d.Fired = firedFromDecision(d, rs)
	return d, nil
}

func (c *Client) eval(ctx context.Context, fs *facts.Set, rs Set, queries []string) (*evalResponse, error) {
	if fs == nil {
		return nil, fmt.Errorf("nil fact set")
	}
	if !rs.Valid() {
		return nil, fmt.Errorf("malformed rule set (version %q)", rs.Version)
	}

	req := evalRequest{
		SessionID: fs.Session(),
		Ruleset:   rs.Version,
		Facts:     encodeFacts(fs),
	}
	for _, q := range queries {
		req.Queries = append(req.Queries, wireQuery{Pred: q, Args: []any{fs.Session(), "_X"}})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode eval request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/eval", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build eval request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call solver: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("solver returned HTTP %d", httpResp.StatusCode)
	}

	var resp evalResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode solver response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("solver error: %s", resp.Error)
	}
	return &resp, nil
}

func encodeFacts(fs *facts.Set) []wireFact {
	all := fs.All()
	out := make([]wireFact, 0, len(all))
	for _, f := range all {
		wf := wireFact{Pred: f.Predicate, Args: []any{f.Session}}
		for _, a := range f.Args {
			switch a.Kind {
			case facts.KindString:
				wf.Args = append(wf.Args, a.Str)
			case facts.KindInt:
				wf.Args = append(wf.Args, a.Int)
			case facts.KindBool:
				wf.Args = append(wf.Args, a.Bool)
			case facts.KindTime:
				wf.Args = append(wf.Args, a.Time.UTC().Format(time.RFC3339))
			}
		}
		out = append(out, wf)
	}
	return out
}

func parseRows(raw []map[string]any) []Row {
	var rows []Row
	for _, r := range raw {
		row := make(Row, len(r))
		for k, v := range r {
			switch t := v.(type) {
			case string:
				row[k] = facts.String(t)
			case float64:
				row[k] = facts.Int(int64(t))
			case bool:
				row[k] = facts.Bool(t)
			default:
				row[k] = facts.String(fmt.Sprint(t))
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func singleString(rows []map[string]any, col string) (string, error) {
	if len(rows) == 0 {
		return "", fmt.Errorf("no rows")
	}
	switch v := rows[0][col].(type) {
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("column %q is not a string", col)
	}
}

func singleInt(rows []map[string]any, col string) (int64, error) {
	if len(rows) == 0 {
		return 0, fmt.Errorf("no rows")
	}
	switch v := rows[0][col].(type) {
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("column %q is not numeric", col)
	}
}

// firedFromDecision reconstructs the fired-rule list for a decision whose
// trace is not reported by the solver. Order mirrors the direct evaluator.
func firedFromDecision(d *Decision, rs Set) []string {
	var fired []string
	if d.RiskFailed && rs.Has(RuleRiskFailed) {
		fired = append(fired, RuleRiskFailed)
	}
	switch d.Status {
	case StatusResetRisk:
		fired = append(fired, RuleStatusResetRisk)
	case StatusResetDeadline:
		fired = append(fired, RuleStatusResetDeadline)
	case StatusPassed:
		fired = append(fired, RuleStatusPassed)
	default:
		fired = append(fired, RuleStatusInProgress)
	}
	if d.TeamSuccess && rs.Has(RuleTeamSuccess) {
		fired = append(fired, RuleTeamSuccess)
	}
	if rs.Has(RulePointsFinal) {
		fired = append(fired, RulePointsFinal)
	}
	if rs.Has(RuleNextQuestion) {
		fired = append(fired, RuleNextQuestion)
	}
	return fired
}

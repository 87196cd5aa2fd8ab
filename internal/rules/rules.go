package rules

import "golang.org/x/mod/semver"

// Rule is one declarative derivation over fact predicates. Rules are data:
// the Name selects a derivation the evaluator knows how to compute, and a
// rule set that omits a name disables that derivation. Swapping rule sets
// never requires touching the evaluator.
type Rule struct {
	// Name uniquely identifies the rule within a set.
	Name string
	// Head is the predicate the rule derives.
	Head string
	// Doc is a one-line description used in audit output.
	Doc string
}

// Rule names of the canonical set. Status rules carry a fixed precedence
// (risk reset > deadline reset > passed > in-progress) that the evaluator
// enforces by evaluation order, not by list order.
const (
	RuleRiskFailed          = "risk_failed"
	RuleStatusResetRisk     = "status_reset_risk"
	RuleStatusResetDeadline = "status_reset_deadline"
	RuleStatusPassed        = "status_passed"
	RuleStatusInProgress    = "status_in_progress"
	RuleTeamSuccess         = "team_success"
	RulePointsFinal         = "points_final"
	RuleNextQuestion        = "next_question"
)

// Set is a fixed, versioned list of rules. Version is a semver string
// ("v1.2.0"); when several sets are registered the highest version wins.
type Set struct {
	Version string
	Rules   []Rule
}

// Has reports whether the set contains a rule with the given name.
func (s Set) Has(name string) bool {
	for _, r := range s.Rules {
		if r.Name == name {
			return true
		}
	}
	return false
}

// Find returns the named rule, or false.
func (s Set) Find(name string) (Rule, bool) {
	for _, r := range s.Rules {
		if r.Name == name {
			return r, true
		}
	}
	return Rule{}, false
}

// Valid reports whether the set carries a well-formed semver version and at
// least the status rules needed to gate progression.
func (s Set) Valid() bool {
	if !semver.IsValid(s.Version) {
		return false
	}
	return s.Has(RuleStatusInProgress)
}

// Newer reports whether s supersedes other by semver comparison.
func (s Set) Newer(other Set) bool {
	return semver.Compare(s.Version, other.Version) > 0
}

// DefaultSet returns the canonical rule set.
func DefaultSet() Set {
	return Set{
		Version: "v1.0.0",
		Rules: []Rule{
			{Name: RuleRiskFailed, Head: "risk_failed",
				Doc: "a designated risk question has an incorrect sub-part answer"},
			{Name: RuleStatusResetRisk, Head: "status",
				Doc: "risk failure forces RESET_RISK, overriding every other outcome"},
			{Name: RuleStatusResetDeadline, Head: "status",
				Doc: "deadline exceeded forces RESET_DEADLINE unless a risk reset applies"},
			{Name: RuleStatusPassed, Head: "status",
				Doc: "all required questions answered correctly and no reset applies"},
			{Name: RuleStatusInProgress, Head: "status",
				Doc: "default status when no other status rule fires"},
			{Name: RuleTeamSuccess, Head: "team_success",
				Doc: "strict majority of team members answered the team question correctly"},
			{Name: RulePointsFinal, Head: "points_final",
				Doc: "raw points tripled on team success, unchanged otherwise"},
			{Name: RuleNextQuestion, Head: "next_question",
				Doc: "advance on correct answer or challenge success; reset to 1 on reset"},
		},
	}
}

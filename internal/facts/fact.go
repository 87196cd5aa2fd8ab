package facts

import (
	"fmt"
	"strconv"
	"time"
)

// ValueKind identifies the type of a fact argument.
type ValueKind int

const (
	KindString ValueKind = iota
	KindInt
	KindBool
	KindTime
)

// Value is a single typed fact argument.
type Value struct {
	Kind ValueKind
	Str  string
	Int  int64
	Bool bool
	Time time.Time
}

// String wraps a string argument.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Int wraps an integer argument.
func Int(i int64) Value { return Value{Kind: KindInt, Int: i} }

// Bool wraps a boolean argument.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Time wraps a timestamp argument.
func Time(t time.Time) Value { return Value{Kind: KindTime, Time: t} }

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindString:
		return v.Str == o.Str
	case KindInt:
		return v.Int == o.Int
	case KindBool:
		return v.Bool == o.Bool
	case KindTime:
		return v.Time.Equal(o.Time)
	}
	return false
}

// Display renders the value for traces and audit records.
func (v Value) Display() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindTime:
		return v.Time.UTC().Format(time.RFC3339)
	}
	return "?"
}

// Fact is one immutable observation about a session. Facts are appended,
// never mutated or removed.
type Fact struct {
	Predicate string
	Session   string
	Args      []Value
}

func (f Fact) String() string {
	s := f.Predicate + "(" + f.Session
	for _, a := range f.Args {
		s += ", " + a.Display()
	}
	return s + ")"
}

// Arg returns the i-th argument, or a zero Value if out of range.
func (f Fact) Arg(i int) Value {
	if i < 0 || i >= len(f.Args) {
		return Value{}
	}
	return f.Args[i]
}

// Set is the append-only fact collection for one session. It is the source
// of truth for rule evaluation.
type Set struct {
	session string
	facts   []Fact
}

// NewSet creates an empty fact set for the given session key.
func NewSet(session string) *Set {
	return &Set{session: session}
}

// Session returns the session key this set belongs to.
func (s *Set) Session() string { return s.session }

// Append records a new fact. The session key is stamped automatically.
func (s *Set) Append(predicate string, args ...Value) Fact {
	f := Fact{Predicate: predicate, Session: s.session, Args: args}
	s.facts = append(s.facts, f)
	return f
}

// Add records an already-built fact, rejecting facts for another session.
func (s *Set) Add(f Fact) error {
	if f.Session != s.session {
		return fmt.Errorf("fact session %q does not match set session %q", f.Session, s.session)
	}
	s.facts = append(s.facts, f)
	return nil
}

// All returns a copy of every fact in append order.
func (s *Set) All() []Fact {
	out := make([]Fact, len(s.facts))
	copy(out, s.facts)
	return out
}

// ByPredicate returns all facts with the given predicate, in append order.
func (s *Set) ByPredicate(name string) []Fact {
	var out []Fact
	for _, f := range s.facts {
		if f.Predicate == name {
			out = append(out, f)
		}
	}
	return out
}

// First returns the first fact with the given predicate, or false.
func (s *Set) First(name string) (Fact, bool) {
	for _, f := range s.facts {
		if f.Predicate == name {
			return f, true
		}
	}
	return Fact{}, false
}

// Len returns the number of facts in the set.
func (s *Set) Len() int { return len(s.facts) }

// Well-known predicates produced by the engine. Callers may append
// additional predicates; the evaluator ignores what it does not know.
const (
	PredAnswered         = "answered"           // (session, index, part, correct)
	PredChallengeSuccess = "challenge_success"  // (session, index)
	PredTeamCorrect      = "team_answer_correct" // (session, index, count)
	PredTeamSize         = "team_size"          // (session, total)
	PredBasePoints       = "base_points"        // (session, points)
	PredDeadline         = "deadline"           // (session, timestamp)
	PredRiskIndex        = "risk_index"         // (session, index)
	PredTeamIndex        = "team_index"         // (session, index)
	PredRequiredIndex    = "required_index"     // (session, index)
	PredCurrentIndex     = "current_index"      // (session, index)
)

// Sub-part labels for answered facts. Risk questions record one fact per
// sub-part; other questions use PartNone.
const (
	PartA    = "A"
	PartB    = "B"
	PartNone = "-"
)

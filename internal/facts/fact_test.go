package facts

import (
	"testing"
	"time"
)

func TestValueEqual(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"equal strings", String("a"), String("a"), true},
		{"different strings", String("a"), String("b"), false},
		{"equal ints", Int(5), Int(5), true},
		{"different ints", Int(5), Int(6), false},
		{"equal bools", Bool(true), Bool(true), true},
		{"equal times", Time(now), Time(now), true},
		{"different times", Time(now), Time(now.Add(time.Second)), false},
		{"kind mismatch", String("5"), Int(5), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSet_AppendAndLookup(t *testing.T) {
	fs := NewSet("u1:m1")
	if fs.Session() != "u1:m1" {
		t.Fatalf("session = %q", fs.Session())
	}

	fs.Append(PredAnswered, Int(1), String(PartNone), Bool(true))
	fs.Append(PredAnswered, Int(2), String(PartNone), Bool(false))
	fs.Append(PredCurrentIndex, Int(2))

	if fs.Len() != 3 {
		t.Fatalf("len = %d, want 3", fs.Len())
	}

	answered := fs.ByPredicate(PredAnswered)
	if len(answered) != 2 {
		t.Fatalf("answered = %d facts, want 2", len(answered))
	}
	if answered[0].Arg(0).Int != 1 || answered[1].Arg(0).Int != 2 {
		t.Error("append order not preserved")
	}

	cur, ok := fs.First(PredCurrentIndex)
	if !ok || cur.Arg(0).Int != 2 {
		t.Fatalf("current index fact = %+v, ok %v", cur, ok)
	}
	if _, ok := fs.First(PredDeadline); ok {
		t.Error("found a deadline fact that was never appended")
	}
}

func TestSet_AddRejectsForeignSession(t *testing.T) {
	fs := NewSet("u1:m1")
	err := fs.Add(Fact{Predicate: PredTeamSize, Session: "u2:m9", Args: []Value{Int(4)}})
	if err == nil {
		t.Fatal("expected an error for a foreign-session fact")
	}
	if fs.Len() != 0 {
		t.Fatalf("len = %d, want 0", fs.Len())
	}

	if err := fs.Add(Fact{Predicate: PredTeamSize, Session: "u1:m1", Args: []Value{Int(4)}}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if fs.Len() != 1 {
		t.Fatalf("len = %d, want 1", fs.Len())
	}
}

func TestSet_AllReturnsCopy(t *testing.T) {
	fs := NewSet("u1:m1")
	fs.Append(PredBasePoints, Int(200))

	all := fs.All()
	all[0].Predicate = "tampered"

	kept, ok := fs.First(PredBasePoints)
	if !ok || kept.Predicate != PredBasePoints {
		t.Fatal("mutating the All() result leaked into the set")
	}
}

func TestFactString(t *testing.T) {
	fs := NewSet("u1:m1")
	f := fs.Append(PredAnswered, Int(5), String(PartA), Bool(true))
	want := "answered(u1:m1, 5, A, true)"
	if f.String() != want {
		t.Errorf("String = %q, want %q", f.String(), want)
	}
}

func TestArg_OutOfRange(t *testing.T) {
	f := Fact{Predicate: PredTeamSize, Session: "s", Args: []Value{Int(4)}}
	if got := f.Arg(3); got != (Value{}) {
		t.Errorf("out-of-range arg = %+v, want zero value", got)
	}
	if got := f.Arg(-1); got != (Value{}) {
		t.Errorf("negative arg = %+v, want zero value", got)
	}
}

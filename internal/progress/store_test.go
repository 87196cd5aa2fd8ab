package progress

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/junosixteen/questengine/internal/rubric"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestStore() *Store {
	return NewStoreWithClock(func() time.Time { return testNow })
}

func TestStartAndGet(t *testing.T) {
	s := newTestStore()
	s.Start("u1", "m1", 3)

	rec, err := s.Get("u1", "m1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Lives != 3 || rec.QuestionIndex != 1 || rec.Points != 0 {
		t.Errorf("fresh record = %+v", rec)
	}
	if !rec.StartedAt.Equal(testNow) {
		t.Errorf("StartedAt = %v, want %v", rec.StartedAt, testNow)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := newTestStore()
	_, err := s.Get("u1", "missing")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
	if nf.MissionID != "missing" {
		t.Errorf("MissionID = %q", nf.MissionID)
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	s := newTestStore()
	s.Start("u1", "m1", 3)
	s.AppendAttempt("u1", "m1", Attempt{QuestID: "q1", Correct: true, PointDelta: 100})

	rec, _ := s.Get("u1", "m1")
	rec.Points = 9999
	rec.History[0].PointDelta = 9999

	fresh, _ := s.Get("u1", "m1")
	if fresh.Points != 100 || fresh.History[0].PointDelta != 100 {
		t.Error("mutating a returned record leaked into the store")
	}
}

func TestAppendAttempt_Advancement(t *testing.T) {
	s := newTestStore()
	s.Start("u1", "m1", 3)

	// Wrong answer holds the index.
	rec, err := s.AppendAttempt("u1", "m1", Attempt{QuestID: "q1", Correct: false})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if rec.QuestionIndex != 1 {
		t.Errorf("index after wrong = %d, want 1", rec.QuestionIndex)
	}

	// Correct answer advances.
	rec, _ = s.AppendAttempt("u1", "m1", Attempt{QuestID: "q1", Correct: true, PointDelta: 200})
	if rec.QuestionIndex != 2 {
		t.Errorf("index after correct = %d, want 2", rec.QuestionIndex)
	}
	if rec.Points != 200 {
		t.Errorf("points = %d, want 200", rec.Points)
	}

	// Challenge success advances even when the answer was wrong.
	rec, _ = s.AppendAttempt("u1", "m1", Attempt{QuestID: "q2", Challenge: rubric.ChallengeSuccess})
	if rec.QuestionIndex != 3 {
		t.Errorf("index after challenge success = %d, want 3", rec.QuestionIndex)
	}
}

func TestAppendAttempt_IndexMonotonic(t *testing.T) {
	s := newTestStore()
	s.Start("u1", "m1", 3)

	attempts := []Attempt{
		{Correct: true}, {Correct: false}, {Correct: false},
		{Challenge: rubric.ChallengeSuccess}, {Correct: true}, {Correct: false},
	}
	last := 1
	for i, a := range attempts {
		rec, err := s.AppendAttempt("u1", "m1", a)
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if rec.QuestionIndex < last {
			t.Fatalf("index decreased at attempt %d: %d -> %d", i, last, rec.QuestionIndex)
		}
		advanced := rec.QuestionIndex == last+1
		shouldAdvance := a.Correct || a.Challenge == rubric.ChallengeSuccess
		if advanced != shouldAdvance {
			t.Errorf("attempt %d: advanced=%v, want %v", i, advanced, shouldAdvance)
		}
		last = rec.QuestionIndex
	}
}

func TestAppendAttempt_Lives(t *testing.T) {
	s := newTestStore()
	s.Start("u1", "m1", 1)

	rec, _ := s.AppendAttempt("u1", "m1", Attempt{Challenge: rubric.ChallengeFail})
	if rec.Lives != 0 {
		t.Errorf("lives = %d, want 0", rec.Lives)
	}

	// Lives never go negative.
	rec, _ = s.AppendAttempt("u1", "m1", Attempt{Challenge: rubric.ChallengeFail})
	if rec.Lives != 0 {
		t.Errorf("lives = %d, want 0 (floor)", rec.Lives)
	}
}

func TestAppendAttempt_NotFound(t *testing.T) {
	s := newTestStore()
	_, err := s.AppendAttempt("u1", "m1", Attempt{Correct: true})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}

func TestFinish_Immutable(t *testing.T) {
	s := newTestStore()
	s.Start("u1", "m1", 3)
	s.AppendAttempt("u1", "m1", Attempt{Correct: true, PointDelta: 200})

	rec, err := s.Finish("u1", "m1", true)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if !rec.Finished || !rec.Success || !rec.FinishedAt.Equal(testNow) {
		t.Errorf("finished record = %+v", rec)
	}

	if _, err := s.AppendAttempt("u1", "m1", Attempt{Correct: true}); err == nil {
		t.Error("append after finish should fail")
	}
	if _, err := s.AddLife("u1", "m1", 5); err == nil {
		t.Error("AddLife after finish should fail")
	}

	// Reads still work.
	if _, err := s.Get("u1", "m1"); err != nil {
		t.Errorf("Get after finish: %v", err)
	}
}

func TestAddLife_Cap(t *testing.T) {
	s := newTestStore()
	s.Start("u1", "m1", 3)

	lives, err := s.AddLife("u1", "m1", 5)
	if err != nil || lives != 4 {
		t.Errorf("AddLife = %d, %v, want 4", lives, err)
	}
	s.AddLife("u1", "m1", 5)
	lives, _ = s.AddLife("u1", "m1", 5)
	if lives != 5 {
		t.Errorf("lives = %d, want cap 5", lives)
	}
}

func TestReset(t *testing.T) {
	s := newTestStore()
	s.Start("u1", "m1", 3)
	s.AppendAttempt("u1", "m1", Attempt{Correct: true, PointDelta: 200})
	s.AppendAttempt("u1", "m1", Attempt{Correct: true, PointDelta: 200})

	rec, err := s.Reset("u1", "m1")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if rec.QuestionIndex != 1 {
		t.Errorf("index = %d, want 1", rec.QuestionIndex)
	}
	// History and points survive the reset.
	if rec.Points != 400 || len(rec.History) != 2 {
		t.Errorf("points=%d history=%d, want 400/2", rec.Points, len(rec.History))
	}
}

func TestStats(t *testing.T) {
	s := newTestStore()
	s.Start("u1", "m1", 3)
	s.AppendAttempt("u1", "m1", Attempt{Correct: true, Score: 1.0, PointDelta: 240, HelpUsed: true})
	s.AppendAttempt("u1", "m1", Attempt{Correct: false, Score: 0})
	s.AppendAttempt("u1", "m1", Attempt{Correct: true, Score: 0.5, PointDelta: 160})
	s.AppendAttempt("u1", "m1", Attempt{Correct: true, Score: 0.5, PointDelta: 240})

	st, err := s.Stats("u1", "m1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.TotalAttempts != 4 || st.CorrectAttempts != 3 {
		t.Errorf("attempts = %d/%d, want 4/3", st.TotalAttempts, st.CorrectAttempts)
	}
	if st.ScoreAvg != 0.5 {
		t.Errorf("score avg = %v, want 0.5", st.ScoreAvg)
	}
	if st.HelpRate != 0.25 {
		t.Errorf("help rate = %v, want 0.25", st.HelpRate)
	}
	if st.Points != 640 {
		t.Errorf("points = %d, want 640", st.Points)
	}
	if st.Streak != 2 {
		t.Errorf("streak = %d, want 2", st.Streak)
	}
}

func TestStats_Empty(t *testing.T) {
	s := newTestStore()
	s.Start("u1", "m1", 3)
	st, err := s.Stats("u1", "m1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.ScoreAvg != 0 || st.TotalAttempts != 0 {
		t.Errorf("empty stats = %+v", st)
	}
}

func TestStreakAndRapidRun(t *testing.T) {
	rec := &Record{History: []Attempt{
		{Correct: false, ElapsedMs: 9000},
		{Correct: true, ElapsedMs: 1000},
		{Correct: true, ElapsedMs: 1500},
	}}
	if got := rec.Streak(); got != 2 {
		t.Errorf("streak = %d, want 2", got)
	}
	if got := rec.RapidRun(3000); got != 2 {
		t.Errorf("rapid run = %d, want 2", got)
	}
	if got := rec.RapidRun(500); got != 0 {
		t.Errorf("rapid run with tight threshold = %d, want 0", got)
	}
}

func TestUserHistory(t *testing.T) {
	s := NewStore()
	s.Start("u1", "m1", 3)
	time.Sleep(time.Millisecond)
	s.Start("u1", "m2", 3)
	s.Start("u2", "m1", 3)

	recs := s.UserHistory("u1")
	if len(recs) != 2 {
		t.Fatalf("history len = %d, want 2", len(recs))
	}
	// Newest first.
	if recs[0].MissionID != "m2" || recs[1].MissionID != "m1" {
		t.Errorf("order = %s, %s", recs[0].MissionID, recs[1].MissionID)
	}
}

func TestConcurrentAppends(t *testing.T) {
	s := newTestStore()
	s.Start("u1", "m1", 3)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AppendAttempt("u1", "m1", Attempt{Correct: true, PointDelta: 10})
		}()
	}
	wg.Wait()

	rec, _ := s.Get("u1", "m1")
	if rec.Points != n*10 {
		t.Errorf("points = %d, want %d", rec.Points, n*10)
	}
	if len(rec.History) != n {
		t.Errorf("history = %d, want %d", len(rec.History), n)
	}
	if rec.QuestionIndex != n+1 {
		t.Errorf("index = %d, want %d", rec.QuestionIndex, n+1)
	}
}

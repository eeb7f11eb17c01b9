package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/cgast/vouch/pkg/intent"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResult(id, goal string, success bool, finished time.Time) *intent.ExecutionResult {
	status := intent.StatusCompleted
	if !success {
		status = intent.StatusFailed
	}
	return &intent.ExecutionResult{
		Success:    success,
		Status:     status,
		IntentID:   id,
		Goal:       goal,
		Duration:   42 * time.Millisecond,
		FinishedAt: finished,
		Steps: []intent.Step{
			{Name: "one", Status: intent.StatusCompleted},
			{Name: "two", Status: status},
		},
	}
}

func TestRecordAndGet(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()

	if err := s.Record(sampleResult("int-1", "first run", false, now.Add(-time.Hour))); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := s.Record(sampleResult("int-1", "second run", true, now)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := s.Get("int-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Goal != "second run" || !got.Success {
		t.Errorf("Get returned %q (success=%v), want the most recent run", got.Goal, got.Success)
	}

	if _, err := s.Get("unknown"); err == nil {
		t.Error("Get for an unrecorded intent should fail")
	}
}

func TestListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	base := time.Now()
	for i, goal := range []string{"oldest", "middle", "newest"} {
		res := sampleResult("int-"+goal, goal, true, base.Add(time.Duration(i)*time.Minute))
		if err := s.Record(res); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := s.List(0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Goal != "newest" || got[2].Goal != "oldest" {
		t.Errorf("order = [%s %s %s], want newest first", got[0].Goal, got[1].Goal, got[2].Goal)
	}
	if got[0].StepsTotal != 2 || got[0].StepsCompleted != 2 {
		t.Errorf("summary steps = %d/%d, want 2/2", got[0].StepsCompleted, got[0].StepsTotal)
	}

	limited, err := s.List(2)
	if err != nil {
		t.Fatalf("List(2): %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("List(2) len = %d, want 2", len(limited))
	}
}

func TestPrune(t *testing.T) {
	s := openTestStore(t)
	base := time.Now()
	for i := 0; i < 5; i++ {
		res := sampleResult("int-p", "run", true, base.Add(time.Duration(i)*time.Second))
		if err := s.Record(res); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	if err := s.Prune(2); err != nil {
		t.Fatalf("Prune: %v", err)
	}
	got, err := s.List(0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("after prune len = %d, want 2", len(got))
	}
}

package events

import (
	"fmt"
	"testing"
	"time"
)

func TestTrailOrderAndTimestamps(t *testing.T) {
	tr := NewTrail(0)
	tr.Append(Event{Type: TypeStart, Intent: "goal"})
	tr.Append(Event{Type: TypePhase, Phase: "preconditions"})
	tr.Append(Event{Type: TypeComplete})

	got := tr.Events()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	wantTypes := []Type{TypeStart, TypePhase, TypeComplete}
	for i, e := range got {
		if e.Type != wantTypes[i] {
			t.Errorf("events[%d].Type = %s, want %s", i, e.Type, wantTypes[i])
		}
		if e.Timestamp.IsZero() {
			t.Errorf("events[%d] missing timestamp", i)
		}
	}
}

func TestTrailBound(t *testing.T) {
	tr := NewTrail(3)
	for i := 0; i < 5; i++ {
		tr.Append(Event{Type: TypePhase, Reason: fmt.Sprintf("e%d", i)})
	}

	got := tr.Events()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Reason != "e2" || got[2].Reason != "e4" {
		t.Errorf("bound should discard oldest: got %s..%s", got[0].Reason, got[2].Reason)
	}
	if tr.Discarded() != 2 {
		t.Errorf("Discarded = %d, want 2", tr.Discarded())
	}
}

func TestTrailSink(t *testing.T) {
	tr := NewTrail(0)
	var seen []Type
	tr.SetSink(func(e Event) { seen = append(seen, e.Type) })

	tr.Append(Event{Type: TypeStart})
	tr.Append(Event{Type: TypeStepStart, Step: "build"})

	if len(seen) != 2 || seen[0] != TypeStart || seen[1] != TypeStepStart {
		t.Errorf("sink saw %v, want [start step:start]", seen)
	}
}

func TestTrailEventsIsCopy(t *testing.T) {
	tr := NewTrail(0)
	tr.Append(Event{Type: TypeStart, Timestamp: time.Now()})
	got := tr.Events()
	got[0].Type = TypeFailed
	if tr.Events()[0].Type != TypeStart {
		t.Error("Events() must return an independent copy")
	}
}

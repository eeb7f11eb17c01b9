// Package events records the state-transition events emitted during
// one intent execution. The trail is an explicit, bounded, ordered
// sequence owned by the execution and pulled by the caller from the
// result; an optional sink receives events live for rendering.
package events

import (
	"sync"
	"time"
)

// Type identifies the kind of event emitted by the engine.
type Type string

const (
	TypeStart        Type = "start"
	TypePhase        Type = "phase"
	TypeStepStart    Type = "step:start"
	TypeStepComplete Type = "step:complete"
	TypeStepFailed   Type = "step:failed"
	TypeStepSkipped  Type = "step:skipped"
	TypeComplete     Type = "complete"
	TypeFailed       Type = "failed"
)

// Event is a single state transition during an execution.
type Event struct {
	Type      Type          `json:"type"`
	Timestamp time.Time     `json:"timestamp"`
	Intent    string        `json:"intent,omitempty"` // intent goal
	Phase     string        `json:"phase,omitempty"`
	Step      string        `json:"step,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// Sink receives events as they are recorded. It is called from the
// recording goroutine; slow sinks slow the execution down.
type Sink func(Event)

// DefaultCapacity bounds a trail when no explicit capacity is given.
const DefaultCapacity = 1024

// Trail is an append-only, bounded event sequence. When the bound is
// reached the oldest events are discarded; Discarded reports how many.
type Trail struct {
	mu        sync.Mutex
	capacity  int
	events    []Event
	discarded int
	sink      Sink
}

// NewTrail creates a trail bounded to capacity events. A capacity of
// zero or less uses DefaultCapacity.
func NewTrail(capacity int) *Trail {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Trail{capacity: capacity}
}

// SetSink installs a live event sink. Pass nil to remove it.
func (t *Trail) SetSink(s Sink) {
	t.mu.Lock()
	t.sink = s
	t.mu.Unlock()
}

// Append records an event, stamping it with the current time when the
// timestamp is zero.
func (t *Trail) Append(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	t.mu.Lock()
	if len(t.events) >= t.capacity {
		t.events = t.events[1:]
		t.discarded++
	}
	t.events = append(t.events, e)
	sink := t.sink
	t.mu.Unlock()

	if sink != nil {
		sink(e)
	}
}

// Events returns a copy of the recorded sequence in order.
func (t *Trail) Events() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Event, len(t.events))
	copy(out, t.events)
	return out
}

// Discarded reports how many events were dropped to honor the bound.
func (t *Trail) Discarded() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.discarded
}

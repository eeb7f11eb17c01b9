package verify

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/go-cmp/cmp"

	"github.com/cgast/vouch/pkg/check"
)

// StateStore keeps keyed, deep-copied snapshots of caller state so an
// intent can compare before/after views of the world. Snapshots are
// normalized through a JSON round trip, making every comparison
// structural rather than identity-based.
type StateStore struct {
	mu    sync.RWMutex
	snaps map[string]any
}

// NewStateStore creates an empty store.
func NewStateStore() *StateStore {
	return &StateStore{snaps: make(map[string]any)}
}

// Snapshot stores a deep copy of value under key, replacing any
// earlier snapshot with the same key.
func (s *StateStore) Snapshot(key string, value any) error {
	copied, err := deepCopy(value)
	if err != nil {
		return fmt.Errorf("snapshot %q: %w", key, err)
	}
	s.mu.Lock()
	s.snaps[key] = copied
	s.mu.Unlock()
	return nil
}

// Keys returns the snapshot keys currently held.
func (s *StateStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.snaps))
	for k := range s.snaps {
		keys = append(keys, k)
	}
	return keys
}

// verifyCheck evaluates a StateCheck: the key must have been
// snapshotted, and when an expectation was given the stored value must
// be structurally equal to it.
func (s *StateStore) verifyCheck(c check.StateCheck) Result {
	s.mu.RLock()
	stored, ok := s.snaps[c.Key]
	s.mu.RUnlock()

	if !ok {
		return fail(fmt.Sprintf("no snapshot for key %q", c.Key))
	}
	if !c.HasExpected {
		return pass(fmt.Sprintf("snapshot %q exists", c.Key))
	}

	want, err := deepCopy(c.Expected)
	if err != nil {
		return fail(fmt.Sprintf("state check %q: %v", c.Key, err))
	}

	if diff := cmp.Diff(want, stored); diff != "" {
		res := fail(fmt.Sprintf("snapshot %q does not match expected value", c.Key))
		res.Actual = stored
		res.Expected = c.Expected
		res.Evidence = append(res.Evidence, truncate(diff, 500))
		return res
	}

	res := pass(fmt.Sprintf("snapshot %q matches expected value", c.Key))
	res.Actual = stored
	res.Expected = c.Expected
	return res
}

// diffCheck evaluates a StateDiffCheck: both snapshots must exist and
// be structurally identical.
func (s *StateStore) diffCheck(c check.StateDiffCheck) Result {
	s.mu.RLock()
	a, okA := s.snaps[c.KeyA]
	b, okB := s.snaps[c.KeyB]
	s.mu.RUnlock()

	if !okA {
		return fail(fmt.Sprintf("no snapshot for key %q", c.KeyA))
	}
	if !okB {
		return fail(fmt.Sprintf("no snapshot for key %q", c.KeyB))
	}

	if diff := cmp.Diff(a, b); diff != "" {
		res := fail(fmt.Sprintf("snapshots %q and %q differ", c.KeyA, c.KeyB))
		res.Evidence = append(res.Evidence, truncate(diff, 500))
		return res
	}
	return pass(fmt.Sprintf("snapshots %q and %q are identical", c.KeyA, c.KeyB))
}

// deepCopy normalizes a value through JSON marshaling, producing an
// independent copy decoupled from the caller's references.
func deepCopy(value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal value: %w", err)
	}
	return out, nil
}

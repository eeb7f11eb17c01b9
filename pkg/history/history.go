// Package history persists execution results so past runs can be
// inspected after the process that produced them is gone. Results are
// stored as JSON in a bbolt database, keyed chronologically.
package history

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/cgast/vouch/pkg/intent"
)

const bucketRuns = "runs"

// Summary is the compact view of one recorded run.
type Summary struct {
	Key            string        `json:"key"`
	IntentID       string        `json:"intent_id"`
	Goal           string        `json:"goal"`
	Success        bool          `json:"success"`
	Status         intent.Status `json:"status"`
	FailedStep     string        `json:"failed_step,omitempty"`
	Duration       time.Duration `json:"duration"`
	FinishedAt     time.Time     `json:"finished_at"`
	StepsTotal     int           `json:"steps_total"`
	StepsCompleted int           `json:"steps_completed"`
}

// Store is a bbolt-backed run history.
type Store struct {
	db *bolt.DB
	mu sync.RWMutex
}

// Open creates or opens a history store at the given path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketRuns))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init history bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// runKey orders chronologically in bolt's sorted keyspace and stays
// unique across repeated executions of the same intent.
func runKey(res *intent.ExecutionResult) string {
	return fmt.Sprintf("%020d/%s", res.FinishedAt.UnixNano(), res.IntentID)
}

// Record appends one execution result.
func (s *Store) Record(res *intent.ExecutionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketRuns)).Put([]byte(runKey(res)), data)
	})
}

// Get returns the most recent recorded result for an intent ID.
func (s *Store) Get(intentID string) (*intent.ExecutionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *intent.ExecutionResult
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketRuns)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if !strings.HasSuffix(string(k), "/"+intentID) {
				continue
			}
			var res intent.ExecutionResult
			if err := json.Unmarshal(v, &res); err != nil {
				return fmt.Errorf("parse run %s: %w", k, err)
			}
			found = &res
			return nil
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("no recorded run for intent %q", intentID)
	}
	return found, nil
}

// List returns run summaries, newest first, up to limit (0 for all).
func (s *Store) List(limit int) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Summary
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketRuns)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(out) >= limit {
				return nil
			}
			var res intent.ExecutionResult
			if err := json.Unmarshal(v, &res); err != nil {
				return fmt.Errorf("parse run %s: %w", k, err)
			}
			out = append(out, summarize(string(k), &res))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Prune keeps only the newest max runs.
func (s *Store) Prune(max int) error {
	if max <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketRuns))
		total := b.Stats().KeyN
		excess := total - max
		if excess <= 0 {
			return nil
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil && excess > 0; k, _ = c.Next() {
			if err := c.Delete(); err != nil {
				return err
			}
			excess--
		}
		return nil
	})
}

func summarize(key string, res *intent.ExecutionResult) Summary {
	completed := 0
	for _, s := range res.Steps {
		if s.Status == intent.StatusCompleted {
			completed++
		}
	}
	return Summary{
		Key:            key,
		IntentID:       res.IntentID,
		Goal:           res.Goal,
		Success:        res.Success,
		Status:         res.Status,
		FailedStep:     res.FailedStep,
		Duration:       res.Duration,
		FinishedAt:     res.FinishedAt,
		StepsTotal:     len(res.Steps),
		StepsCompleted: completed,
	}
}

// Package verify implements the verification backends an intent uses
// to observe reality: external commands, predicate functions, file
// inspection, state snapshots and GitHub repository state. Each
// backend consumes one check and returns a pass/fail verdict with
// diagnostic evidence; verification failures are values, never errors.
package verify

import "time"

// Result records the outcome of evaluating a single check.
type Result struct {
	Name      string    `json:"name,omitempty"`
	Passed    bool      `json:"passed"`
	Message   string    `json:"message"`
	Actual    any       `json:"actual,omitempty"`
	Expected  any       `json:"expected,omitempty"`
	Evidence  []string  `json:"evidence,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// pass builds a successful Result stamped with the current time.
func pass(message string) Result {
	return Result{Passed: true, Message: message, Timestamp: time.Now()}
}

// fail builds a failed Result stamped with the current time.
func fail(message string) Result {
	return Result{Message: message, Timestamp: time.Now()}
}

// truncate limits a string to maxLen characters for evidence output.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

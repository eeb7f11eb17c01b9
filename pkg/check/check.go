// Package check defines the verification units an intent observes
// reality with. A Check is a tagged variant decided once at
// construction: the execution engine dispatches on its kind and never
// re-inspects shapes at call time. Checks are treated as immutable
// after construction.
package check

import (
	"context"
	"time"
)

// Kind discriminates the check variants.
type Kind string

const (
	KindCommand   Kind = "command"
	KindPredicate Kind = "predicate"
	KindFile      Kind = "file"
	KindState     Kind = "state"
	KindStateDiff Kind = "state_diff"
	KindGitHub    Kind = "github"
)

// Check is the closed set of verification mechanisms.
type Check interface {
	Kind() Kind
}

// CommandCheck runs a shell command and observes its trimmed stdout.
type CommandCheck struct {
	Command string
	Dir     string            // working directory override, empty for inherited
	Env     map[string]string // environment overrides, merged over the parent env
}

func (CommandCheck) Kind() Kind { return KindCommand }

// PredicateCheck calls a function and observes its boolean result.
type PredicateCheck struct {
	Fn func(context.Context) (bool, error)
}

func (PredicateCheck) Kind() Kind { return KindPredicate }

// FileCheck inspects a file's existence, size, modification time and
// content. Zero-valued fields are not checked. MustExist defaults to
// true when nil.
type FileCheck struct {
	Path           string
	MustExist      *bool
	Contains       []string
	Pattern        string // regular expression applied to the content
	MinSize        string // human-readable, e.g. "1KB"
	MaxSize        string
	ModifiedAfter  time.Time
	ModifiedBefore time.Time
}

func (FileCheck) Kind() Kind { return KindFile }

// ShouldExist resolves the MustExist default.
func (f FileCheck) ShouldExist() bool {
	return f.MustExist == nil || *f.MustExist
}

// StateCheck verifies a previously captured state snapshot.
type StateCheck struct {
	Key      string
	Expected any
	// HasExpected distinguishes "no expectation" (snapshot merely has
	// to exist) from an expectation of nil.
	HasExpected bool
}

func (StateCheck) Kind() Kind { return KindState }

// StateDiffCheck verifies that two captured snapshots are structurally
// identical.
type StateDiffCheck struct {
	KeyA, KeyB string
}

func (StateDiffCheck) Kind() Kind { return KindStateDiff }

// GitHubCheck resolves a repository field via the GitHub API and
// observes its textual value.
type GitHubCheck struct {
	Repo  string // owner/name
	Field string // stars, forks, open_issues, language, default_branch, full_name
}

func (GitHubCheck) Kind() Kind { return KindGitHub }

// Command creates a CommandCheck running in the inherited working
// directory.
func Command(cmd string) CommandCheck {
	return CommandCheck{Command: cmd}
}

// CommandIn creates a CommandCheck with a working directory and
// optional environment overrides.
func CommandIn(cmd, dir string, env map[string]string) CommandCheck {
	c := CommandCheck{Command: cmd, Dir: dir}
	if len(env) > 0 {
		c.Env = make(map[string]string, len(env))
		for k, v := range env {
			c.Env[k] = v
		}
	}
	return c
}

// Predicate creates a PredicateCheck from fn.
func Predicate(fn func(context.Context) (bool, error)) PredicateCheck {
	return PredicateCheck{Fn: fn}
}

// File creates a FileCheck for path. Refine it with struct fields
// before handing it to an intent.
func File(path string) FileCheck {
	return FileCheck{Path: path}
}

// FileAbsent creates a FileCheck asserting that path does not exist.
func FileAbsent(path string) FileCheck {
	exists := false
	return FileCheck{Path: path, MustExist: &exists}
}

// State creates a StateCheck that only requires the snapshot to exist.
func State(key string) StateCheck {
	return StateCheck{Key: key}
}

// StateEquals creates a StateCheck comparing the snapshot against
// expected by serialized deep equality.
func StateEquals(key string, expected any) StateCheck {
	return StateCheck{Key: key, Expected: expected, HasExpected: true}
}

// StateDiff creates a StateDiffCheck over two snapshot keys.
func StateDiff(keyA, keyB string) StateDiffCheck {
	return StateDiffCheck{KeyA: keyA, KeyB: keyB}
}

// GitHub creates a GitHubCheck for a repository field.
func GitHub(repo, field string) GitHubCheck {
	return GitHubCheck{Repo: repo, Field: field}
}

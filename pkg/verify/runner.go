package verify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cgast/vouch/pkg/check"
)

// Guard validates filesystem paths before a backend touches them.
// A non-nil error is reported as a verification failure, not raised.
type Guard interface {
	CheckPath(path string) error
}

// Runner dispatches checks to their backends. The zero configuration
// is usable: commands, predicates and files work out of the box, state
// checks share the Runner's StateStore, and GitHub checks require a
// client configured via WithGitHub.
type Runner struct {
	state  *StateStore
	github *GitHubClient
	guard  Guard
	logger *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithGuard installs a path guard consulted for file-check paths and
// command working directories.
func WithGuard(g Guard) Option {
	return func(r *Runner) { r.guard = g }
}

// WithGitHub installs the client used by GitHub checks.
func WithGitHub(c *GitHubClient) Option {
	return func(r *Runner) { r.github = c }
}

// WithState replaces the Runner's state store. Useful when snapshots
// are captured outside the runner's lifetime.
func WithState(s *StateStore) Option {
	return func(r *Runner) { r.state = s }
}

// WithLogger installs a logger for per-check debug output.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a Runner with the given options.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		state:  NewStateStore(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the store backing state checks, so callers can capture
// snapshots between steps.
func (r *Runner) State() *StateStore {
	return r.state
}

// Run evaluates one check against an expected value. The verdict is
// always a Result; backends convert their own errors into failed
// results so that nothing propagates as an exception.
func (r *Runner) Run(ctx context.Context, c check.Check, expected any) Result {
	if c == nil {
		return fail("no verification mechanism provided")
	}

	want := expectedString(expected)
	r.logger.Debug("running check", zap.String("kind", string(c.Kind())), zap.String("expected", want))

	var res Result
	switch cc := c.(type) {
	case check.CommandCheck:
		res = r.runCommand(ctx, cc, want)
	case check.PredicateCheck:
		res = r.runPredicate(ctx, cc, expected)
	case check.FileCheck:
		res = r.runFile(cc)
	case check.StateCheck:
		res = r.state.verifyCheck(cc)
	case check.StateDiffCheck:
		res = r.state.diffCheck(cc)
	case check.GitHubCheck:
		res = r.runGitHub(ctx, cc, want)
	default:
		res = fail(fmt.Sprintf("unsupported check kind: %s", c.Kind()))
	}

	if !res.Passed {
		r.logger.Debug("check failed", zap.String("kind", string(c.Kind())), zap.String("message", res.Message))
	}
	return res
}

// expectedString normalizes an expected value of any shape into the
// textual form the expectation matcher understands. A nil expectation
// becomes the empty string, which every output satisfies.
func expectedString(expected any) string {
	switch v := expected.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", v)
	}
}

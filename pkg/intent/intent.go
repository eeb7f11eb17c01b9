// Package intent implements the contract-based execution engine: an
// intent declares a goal, preconditions, a dependency-linked set of
// steps, postconditions and invariants; executing it runs the steps,
// verifies each one against reality through the verify backends, and
// reports success only when every check that ran actually passed.
package intent

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cgast/vouch/pkg/check"
	"github.com/cgast/vouch/pkg/events"
	"github.com/cgast/vouch/pkg/verify"
)

// Status is the lifecycle state of an intent or a step.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"   // steps only
	StatusCancelled Status = "cancelled" // reserved terminal state
)

// Condition is one verification check attached to a contract:
// preconditions, postconditions and invariants are all Conditions.
// Critical conditions abort the run on failure; non-critical failures
// are recorded in the verification log only.
type Condition struct {
	Name     string
	Check    check.Check
	Expected any
	Critical bool
}

// Contract holds the ordered condition lists attached to an intent.
type Contract struct {
	Requires   []Condition
	Ensures    []Condition
	Invariants []Condition
}

// StepDef declares one verifiable unit of work.
type StepDef struct {
	Description string
	DependsOn   []string                    // names of steps that must complete first
	Action      func(context.Context) error // optional side effect, run before verification
	Check       check.Check                 // required verification mechanism
	Expect      any                         // expected value for the check
	Timeout     time.Duration               // bound on action + verification, 0 for none
}

// Step is the runtime instance of a StepDef, owned by its intent and
// mutated only during Execute. Its status only ever advances forward
// through pending → running → (completed | failed | skipped).
type Step struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Status    Status         `json:"status"`
	Result    *verify.Result `json:"result,omitempty"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   time.Time      `json:"ended_at"`
	Duration  time.Duration  `json:"duration"`
	DependsOn []string       `json:"depends_on,omitempty"`

	def StepDef
}

// Intent is the aggregate: one declared goal plus its contract and
// step graph. Build it with New and the chainable Requires / Step /
// Ensures / Invariant calls, then Execute it.
type Intent struct {
	ID        string
	Goal      string
	CreatedAt time.Time
	Status    Status

	contract Contract
	steps    []*Step

	stopOnFailure bool
	verbose       bool
	trailCap      int
	sink          events.Sink
	runner        *verify.Runner
	logger        *zap.Logger
}

// Option configures an Intent at construction.
type Option func(*Intent)

// WithStopOnFailure controls whether the first failing step halts
// execution. The default is true.
func WithStopOnFailure(stop bool) Option {
	return func(in *Intent) { in.stopOnFailure = stop }
}

// WithVerbose enables info-level engine logging.
func WithVerbose(v bool) Option {
	return func(in *Intent) { in.verbose = v }
}

// WithRunner replaces the verification runner, for wiring a path
// guard, a GitHub client or a shared state store.
func WithRunner(r *verify.Runner) Option {
	return func(in *Intent) { in.runner = r }
}

// WithLogger installs a structured logger for engine diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(in *Intent) { in.logger = l }
}

// WithSink installs a live event sink, called for every event the
// execution records.
func WithSink(s events.Sink) Option {
	return func(in *Intent) { in.sink = s }
}

// WithTrailCapacity bounds the event trail recorded per execution.
func WithTrailCapacity(n int) Option {
	return func(in *Intent) { in.trailCap = n }
}

// CondOption configures a single condition.
type CondOption func(*Condition)

// NonCritical marks a condition as advisory: its failure is recorded
// but does not abort the run.
func NonCritical() CondOption {
	return func(c *Condition) { c.Critical = false }
}

// Named attaches a display name to a condition for the verification log.
func Named(name string) CondOption {
	return func(c *Condition) { c.Name = name }
}

// New creates an Intent for the given goal.
func New(goal string, opts ...Option) *Intent {
	in := &Intent{
		ID:            uuid.NewString(),
		Goal:          goal,
		CreatedAt:     time.Now(),
		Status:        StatusPending,
		stopOnFailure: true,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.runner == nil {
		in.runner = verify.NewRunner(verify.WithLogger(in.logger))
	}
	return in
}

// Requires appends a precondition. Chainable.
func (in *Intent) Requires(c check.Check, expected any, opts ...CondOption) *Intent {
	in.contract.Requires = append(in.contract.Requires, newCondition(c, expected, opts))
	return in
}

// Ensures appends a postcondition. Chainable.
func (in *Intent) Ensures(c check.Check, expected any, opts ...CondOption) *Intent {
	in.contract.Ensures = append(in.contract.Ensures, newCondition(c, expected, opts))
	return in
}

// Invariant appends an invariant, re-checked before and after every
// step. Chainable.
func (in *Intent) Invariant(c check.Check, expected any, opts ...CondOption) *Intent {
	in.contract.Invariants = append(in.contract.Invariants, newCondition(c, expected, opts))
	return in
}

// Step appends a named step to the ordered collection. Chainable.
// Name collisions and dependency problems are diagnosed when Execute
// validates the frozen graph.
func (in *Intent) Step(name string, def StepDef) *Intent {
	in.steps = append(in.steps, &Step{
		ID:        uuid.NewString(),
		Name:      name,
		Status:    StatusPending,
		DependsOn: append([]string(nil), def.DependsOn...),
		def:       def,
	})
	return in
}

// State exposes the runner's snapshot store so callers can capture
// state between building and executing.
func (in *Intent) State() *verify.StateStore {
	return in.runner.State()
}

// Steps returns a snapshot of the current step states.
func (in *Intent) Steps() []Step {
	out := make([]Step, len(in.steps))
	for i, s := range in.steps {
		out[i] = *s
	}
	return out
}

func newCondition(c check.Check, expected any, opts []CondOption) Condition {
	cond := Condition{Check: c, Expected: expected, Critical: true}
	for _, opt := range opts {
		opt(&cond)
	}
	return cond
}

package intent

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cgast/vouch/pkg/events"
	"github.com/cgast/vouch/pkg/verify"
)

// Phase labels used in events and in FailedStep for contract phases.
const (
	PhasePreconditions  = "preconditions"
	PhaseSteps          = "steps"
	PhasePostconditions = "postconditions"
	PhaseInvariants     = "invariants"
)

// ExecutionResult is the terminal artifact of one Execute call. Every
// failure path produces a complete result; nothing escapes Execute as
// a panic or error under normal operation.
type ExecutionResult struct {
	Success       bool            `json:"success"`
	Status        Status          `json:"status"`
	Steps         []Step          `json:"steps"`
	FailedStep    string          `json:"failed_step,omitempty"`
	FailureReason string          `json:"failure_reason,omitempty"`
	Duration      time.Duration   `json:"duration"`
	Log           []verify.Result `json:"log"`
	Events        []events.Event  `json:"events"`
	IntentID      string          `json:"intent_id"`
	Goal          string          `json:"goal"`
	FinishedAt    time.Time       `json:"finished_at"`
}

// execution carries the per-run state: the frozen contract and step
// snapshot, the verification log and the event trail.
type execution struct {
	in       *Intent
	ctx      context.Context
	contract Contract
	steps    []*Step
	trail    *events.Trail
	log      []verify.Result
	started  time.Time
}

// Execute runs the intent: preconditions, then steps in declaration
// order honoring dependency gating and invariant re-checks, then
// postconditions. The contract and step graph are frozen at entry;
// mutations made while the run is in flight are not observed.
func (in *Intent) Execute(ctx context.Context) *ExecutionResult {
	e := &execution{
		in:  in,
		ctx: ctx,
		contract: Contract{
			Requires:   append([]Condition(nil), in.contract.Requires...),
			Ensures:    append([]Condition(nil), in.contract.Ensures...),
			Invariants: append([]Condition(nil), in.contract.Invariants...),
		},
		steps:   in.steps[:len(in.steps):len(in.steps)],
		trail:   events.NewTrail(in.trailCap),
		started: time.Now(),
	}
	if in.sink != nil {
		e.trail.SetSink(in.sink)
	}

	// Step state left over from an earlier run must not leak into
	// dependency gating.
	for _, s := range e.steps {
		s.Status = StatusPending
		s.Result = nil
		s.StartedAt = time.Time{}
		s.EndedAt = time.Time{}
		s.Duration = 0
	}

	in.Status = StatusRunning
	e.emit(events.Event{Type: events.TypeStart, Intent: in.Goal})
	in.logger.Info("executing intent", zap.String("goal", in.Goal), zap.String("id", in.ID))

	if err := validateGraph(e.steps); err != nil {
		return e.fail(PhaseSteps, fmt.Sprintf("invalid step graph: %v", err))
	}

	if res := e.runConditions(PhasePreconditions, e.contract.Requires); res != nil {
		return res
	}
	abort, firstFailed := e.runSteps()
	if abort != nil {
		return abort
	}
	if res := e.runConditions(PhasePostconditions, e.contract.Ensures); res != nil {
		return res
	}
	if firstFailed != nil {
		reason := "step failed"
		if firstFailed.Result != nil {
			reason = firstFailed.Result.Message
		}
		return e.fail(firstFailed.Name, reason)
	}

	in.Status = StatusCompleted
	e.emit(events.Event{Type: events.TypeComplete, Intent: in.Goal, Duration: time.Since(e.started)})
	return e.result(true, "", "")
}

// emit appends an event to the trail.
func (e *execution) emit(ev events.Event) {
	e.trail.Append(ev)
}

// runCheck evaluates one condition and appends it to the verification
// log.
func (e *execution) runCheck(name string, c Condition) verify.Result {
	res := e.in.runner.Run(e.ctx, c.Check, c.Expected)
	if res.Name == "" {
		res.Name = name
	}
	e.log = append(e.log, res)
	return res
}

// runConditions evaluates a contract phase in list order. The first
// critical failure aborts the run with the phase as FailedStep;
// non-critical failures are logged and skipped over.
func (e *execution) runConditions(phase string, conds []Condition) *ExecutionResult {
	if len(conds) == 0 {
		return nil
	}
	e.emit(events.Event{Type: events.TypePhase, Phase: phase})

	for i, cond := range conds {
		name := cond.Name
		if name == "" {
			name = fmt.Sprintf("%s[%d]", phase, i)
		}
		res := e.runCheck(name, cond)
		if res.Passed {
			continue
		}
		if !cond.Critical {
			e.in.logger.Warn("non-critical condition failed",
				zap.String("phase", phase), zap.String("condition", name), zap.String("reason", res.Message))
			continue
		}
		return e.fail(phase, fmt.Sprintf("%s: %s", name, res.Message))
	}
	return nil
}

// checkInvariants evaluates every invariant around a step. A failing
// critical invariant aborts the whole run, reporting the step it
// tripped next to.
func (e *execution) checkInvariants(step *Step, position string) *ExecutionResult {
	for i, cond := range e.contract.Invariants {
		name := cond.Name
		if name == "" {
			name = fmt.Sprintf("invariant[%d]", i)
		}
		res := e.runCheck(name, cond)
		if res.Passed {
			continue
		}
		if !cond.Critical {
			e.in.logger.Warn("non-critical invariant failed",
				zap.String("invariant", name), zap.String("step", step.Name), zap.String("reason", res.Message))
			continue
		}
		return e.fail(PhaseInvariants, fmt.Sprintf("%s failed %s step %q: %s", name, position, step.Name, res.Message))
	}
	return nil
}

// runSteps walks the frozen step collection in declaration order. It
// returns a non-nil result only when the run must abort immediately
// (stop-on-failure or a tripped invariant); with stop-on-failure off,
// failures are reported through firstFailed after every step has been
// attempted, letting postconditions still run.
func (e *execution) runSteps() (abort *ExecutionResult, firstFailed *Step) {
	if len(e.steps) == 0 {
		return nil, nil
	}
	e.emit(events.Event{Type: events.TypePhase, Phase: PhaseSteps})

	for _, step := range e.steps {
		// Dependency gating: every declared dependency must have
		// completed, otherwise the step is skipped without running its
		// action or verification.
		if unmet := e.unmetDependency(step); unmet != "" {
			step.Status = StatusSkipped
			e.emit(events.Event{Type: events.TypeStepSkipped, Step: step.Name, Reason: fmt.Sprintf("dependency %q not completed", unmet)})
			e.in.logger.Info("step skipped", zap.String("step", step.Name), zap.String("dependency", unmet))
			continue
		}

		if res := e.checkInvariants(step, "before"); res != nil {
			return res, firstFailed
		}

		failReason, stop := e.runStep(step)
		if failReason != "" {
			if firstFailed == nil {
				firstFailed = step
			}
			if stop {
				return e.fail(step.Name, failReason), firstFailed
			}
		}

		if res := e.checkInvariants(step, "after"); res != nil {
			return res, firstFailed
		}
	}
	return nil, firstFailed
}

// unmetDependency returns the first dependency name that has not
// reached completed status, or "".
func (e *execution) unmetDependency(step *Step) string {
	for _, dep := range step.DependsOn {
		found := false
		for _, other := range e.steps {
			if other.Name == dep {
				found = true
				if other.Status != StatusCompleted {
					return dep
				}
				break
			}
		}
		if !found {
			return dep
		}
	}
	return ""
}

// runStep executes one step: optional action, then verification. It
// returns the failure reason (empty on success) and whether the run
// must abort. An uncaught error from the action is treated identically
// to a verification failure.
func (e *execution) runStep(step *Step) (failReason string, abort bool) {
	step.Status = StatusRunning
	step.StartedAt = time.Now()
	e.emit(events.Event{Type: events.TypeStepStart, Step: step.Name})
	e.in.logger.Info("step started", zap.String("step", step.Name))

	ctx := e.ctx
	if step.def.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, step.def.Timeout)
		defer cancel()
	}

	finish := func(res verify.Result) {
		res.Name = step.Name
		step.Result = &res
		step.EndedAt = time.Now()
		step.Duration = step.EndedAt.Sub(step.StartedAt)
		e.log = append(e.log, res)
	}

	if step.def.Action != nil {
		if err := runAction(ctx, step.def.Action); err != nil {
			res := verify.Result{Message: fmt.Sprintf("action failed: %v", err), Timestamp: time.Now()}
			finish(res)
			step.Status = StatusFailed
			e.emit(events.Event{Type: events.TypeStepFailed, Step: step.Name, Reason: res.Message, Duration: step.Duration})
			return res.Message, e.in.stopOnFailure
		}
	}

	res := e.in.runner.Run(ctx, step.def.Check, step.def.Expect)
	finish(res)

	if res.Passed {
		step.Status = StatusCompleted
		e.emit(events.Event{Type: events.TypeStepComplete, Step: step.Name, Duration: step.Duration})
		e.in.logger.Info("step completed", zap.String("step", step.Name), zap.Duration("duration", step.Duration))
		return "", false
	}

	step.Status = StatusFailed
	e.emit(events.Event{Type: events.TypeStepFailed, Step: step.Name, Reason: res.Message, Duration: step.Duration})
	e.in.logger.Info("step failed", zap.String("step", step.Name), zap.String("reason", res.Message))
	return res.Message, e.in.stopOnFailure
}

// runAction invokes the step action, converting a panic into an error
// so it is handled like any other execution error.
func runAction(ctx context.Context, action func(context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("action panicked: %v", p)
		}
	}()
	return action(ctx)
}

// fail finalizes the run as failed.
func (e *execution) fail(failedStep, reason string) *ExecutionResult {
	e.in.Status = StatusFailed
	e.emit(events.Event{Type: events.TypeFailed, Intent: e.in.Goal, Step: failedStep, Reason: reason, Duration: time.Since(e.started)})
	e.in.logger.Info("intent failed", zap.String("failed_step", failedStep), zap.String("reason", reason))
	return e.result(false, failedStep, reason)
}

// result assembles the terminal artifact with a full step snapshot.
func (e *execution) result(success bool, failedStep, reason string) *ExecutionResult {
	steps := make([]Step, len(e.steps))
	for i, s := range e.steps {
		steps[i] = *s
	}
	return &ExecutionResult{
		Success:       success,
		Status:        e.in.Status,
		Steps:         steps,
		FailedStep:    failedStep,
		FailureReason: reason,
		Duration:      time.Since(e.started),
		Log:           e.log,
		Events:        e.trail.Events(),
		IntentID:      e.in.ID,
		Goal:          e.in.Goal,
		FinishedAt:    time.Now(),
	}
}

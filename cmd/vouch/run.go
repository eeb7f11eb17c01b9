package main

import (
	gocontext "context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cgast/vouch/internal/config"
	"github.com/cgast/vouch/pkg/events"
	"github.com/cgast/vouch/pkg/intent"
	"github.com/cgast/vouch/pkg/intentfile"
)

// handleRun implements `vouch run <intent.yaml> [--param key=value ...]`.
func (a *app) handleRun(args []string) error {
	if len(args) < 1 || strings.HasPrefix(args[0], "-") {
		fmt.Println("Usage: vouch run <intent.yaml> [--param key=value ...]")
		return nil
	}

	path := args[0]
	params := parseRunParams(args[1:])

	def, err := intentfile.Load(path, params)
	if err != nil {
		return fmt.Errorf("load intent: %w", err)
	}

	if vr := intentfile.Validate(def); !vr.Valid() {
		return fmt.Errorf("intent validation failed:\n  %s", strings.Join(validationMessages(vr), "\n  "))
	}

	applyEngineDefaults(&def, a.cfg.Engine)

	fmt.Fprintf(os.Stderr, "Intent: %s\n", def.Meta.Name)
	fmt.Fprintf(os.Stderr, "Goal: %s\n", strings.TrimSpace(def.Goal))

	in, err := intentfile.Build(def,
		intent.WithRunner(a.runner),
		intent.WithLogger(a.logger),
		intent.WithSink(chainSinks(renderEvent, a.sink())),
	)
	if err != nil {
		return err
	}

	res := in.Execute(gocontext.Background())

	a.recordRun(res)
	renderResult(res)

	if !res.Success {
		return fmt.Errorf("intent failed: %s", res.FailureReason)
	}
	return nil
}

// applyEngineDefaults fills engine options the file left unset from
// the runtime config.
func applyEngineDefaults(def *intentfile.Definition, eng config.EngineConfig) {
	if def.Options.StopOnFailure == nil {
		stop := eng.StopOnFailure
		def.Options.StopOnFailure = &stop
	}
	if eng.Verbose {
		def.Options.Verbose = true
	}
	if eng.StepTimeout != "" {
		for i := range def.Steps {
			if def.Steps[i].Timeout == "" {
				def.Steps[i].Timeout = eng.StepTimeout
			}
		}
	}
}

// recordRun persists the result when history is enabled.
func (a *app) recordRun(res *intent.ExecutionResult) {
	if a.hist == nil {
		return
	}
	if err := a.hist.Record(res); err != nil {
		a.logger.Warn("record run history", zap.Error(err))
		return
	}
	if max := a.cfg.History.MaxEntries; max > 0 {
		if err := a.hist.Prune(max); err != nil {
			a.logger.Warn("prune run history", zap.Error(err))
		}
	}
}

// chainSinks fans an event out to each non-nil sink in order.
func chainSinks(sinks ...events.Sink) events.Sink {
	return func(ev events.Event) {
		for _, s := range sinks {
			if s != nil {
				s(ev)
			}
		}
	}
}

// renderEvent prints one engine event as a progress line on stderr.
func renderEvent(ev events.Event) {
	switch ev.Type {
	case events.TypePhase:
		fmt.Fprintf(os.Stderr, "--- %s ---\n", ev.Phase)
	case events.TypeStepStart:
		fmt.Fprintf(os.Stderr, "  > %s\n", ev.Step)
	case events.TypeStepComplete:
		fmt.Fprintf(os.Stderr, "  ✓ %s (%s)\n", ev.Step, ev.Duration)
	case events.TypeStepFailed:
		fmt.Fprintf(os.Stderr, "  ✗ %s: %s\n", ev.Step, ev.Reason)
	case events.TypeStepSkipped:
		fmt.Fprintf(os.Stderr, "  - %s (skipped: %s)\n", ev.Step, ev.Reason)
	}
}

// renderResult prints the final run summary on stderr.
func renderResult(res *intent.ExecutionResult) {
	fmt.Fprintf(os.Stderr, "\n=== Result ===\n")
	if res.Success {
		fmt.Fprintf(os.Stderr, "Intent completed (%d step(s), %s)\n", len(res.Steps), res.Duration.Round(time.Millisecond))
	} else {
		fmt.Fprintf(os.Stderr, "Intent failed at %q: %s\n", res.FailedStep, res.FailureReason)
	}
	for _, r := range res.Log {
		mark := "✓"
		if !r.Passed {
			mark = "✗"
		}
		fmt.Fprintf(os.Stderr, "  %s %s: %s\n", mark, r.Name, r.Message)
	}
}

// parseRunParams extracts --param key=value pairs from args.
func parseRunParams(args []string) map[string]string {
	params := make(map[string]string)
	for i := 0; i < len(args); i++ {
		if args[i] == "--param" && i+1 < len(args) {
			i++
			if k, v, ok := strings.Cut(args[i], "="); ok {
				params[k] = v
			}
		} else if strings.HasPrefix(args[i], "--param=") {
			rest := strings.TrimPrefix(args[i], "--param=")
			if k, v, ok := strings.Cut(rest, "="); ok {
				params[k] = v
			}
		}
	}
	return params
}

// validationMessages extracts messages from a ValidationResult.
func validationMessages(vr intentfile.ValidationResult) []string {
	msgs := make([]string, len(vr.Errors))
	for i, e := range vr.Errors {
		msgs[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return msgs
}

// handleValidate implements `vouch validate <intent.yaml>`.
func handleValidate() error {
	if len(os.Args) < 3 {
		fmt.Println("Usage: vouch validate <intent.yaml>")
		return nil
	}

	path := os.Args[2]
	def, err := intentfile.Load(path, nil)
	if err != nil {
		return fmt.Errorf("load intent: %w", err)
	}

	vr := intentfile.Validate(def)
	if vr.Valid() {
		fmt.Printf("Intent %q is valid.\n", def.Meta.Name)
		return nil
	}

	fmt.Printf("Intent %q has %d error(s):\n", filepath.Base(path), len(vr.Errors))
	for _, e := range vr.Errors {
		fmt.Printf("  - %s: %s\n", e.Field, e.Message)
	}
	return fmt.Errorf("validation failed")
}

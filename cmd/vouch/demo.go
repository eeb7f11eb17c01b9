package main

import (
	gocontext "context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cgast/vouch/pkg/check"
	"github.com/cgast/vouch/pkg/intent"
)

// handleDemo runs a built-in intent against a temp workspace to show
// the programmatic API end-to-end: contract, dependency-gated steps,
// state snapshots and the event stream.
func (a *app) handleDemo() error {
	workdir, err := os.MkdirTemp("", "vouch-demo")
	if err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	defer os.RemoveAll(workdir)

	notes := filepath.Join(workdir, "notes.txt")

	fmt.Fprintf(os.Stderr, "=== Demo: verified note-taking ===\n")
	fmt.Fprintf(os.Stderr, "Workspace: %s\n\n", workdir)

	in := intent.New("Write and verify a note",
		intent.WithRunner(a.runner),
		intent.WithLogger(a.logger),
		intent.WithSink(chainSinks(renderEvent, a.sink())),
	)

	in.Requires(check.File(workdir), "", intent.Named("workspace exists"))
	in.Requires(check.FileAbsent(notes), "", intent.Named("note not yet written"))

	in.Step("snapshot", intent.StepDef{
		Description: "Capture directory listing before writing",
		Action: func(ctx gocontext.Context) error {
			entries, err := os.ReadDir(workdir)
			if err != nil {
				return err
			}
			return in.State().Snapshot("before", len(entries))
		},
		Check: check.State("before"),
	})

	in.Step("write", intent.StepDef{
		Description: "Write the note",
		DependsOn:   []string{"snapshot"},
		Check:       check.Command(fmt.Sprintf("echo 'remember the milk' > %s && cat %s", notes, notes)),
		Expect:      "milk",
	})

	in.Step("recount", intent.StepDef{
		Description: "Directory gained the note",
		DependsOn:   []string{"write"},
		Action: func(ctx gocontext.Context) error {
			entries, err := os.ReadDir(workdir)
			if err != nil {
				return err
			}
			return in.State().Snapshot("after", len(entries))
		},
		Check: check.StateEquals("after", 1),
	})

	in.Step("reread", intent.StepDef{
		Description: "Two reads of the note agree",
		DependsOn:   []string{"write"},
		Action: func(ctx gocontext.Context) error {
			for _, key := range []string{"read1", "read2"} {
				data, err := os.ReadFile(notes)
				if err != nil {
					return err
				}
				if err := in.State().Snapshot(key, string(data)); err != nil {
					return err
				}
			}
			return nil
		},
		Check: check.StateDiff("read1", "read2"),
	})

	in.Ensures(check.File(notes), "", intent.Named("note exists"))
	in.Ensures(check.Command(fmt.Sprintf("wc -c < %s", notes)), ">0", intent.Named("note is non-empty"))

	res := in.Execute(gocontext.Background())

	a.recordRun(res)
	renderResult(res)
	fmt.Fprintf(os.Stderr, "\n%s\n", in.Visualize())

	if !res.Success {
		return fmt.Errorf("demo failed: %s", res.FailureReason)
	}
	return nil
}

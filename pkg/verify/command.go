package verify

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/cgast/vouch/pkg/check"
	"github.com/cgast/vouch/pkg/expect"
)

// runCommand executes the command through the shell, captures trimmed
// stdout and feeds it to the expectation matcher. A non-zero exit is
// itself the observed outcome: it passes only when the expected value
// signals that failure was desired.
func (r *Runner) runCommand(ctx context.Context, c check.CommandCheck, expected string) Result {
	if strings.TrimSpace(c.Command) == "" {
		return fail("command check has no command")
	}
	if c.Dir != "" && r.guard != nil {
		if err := r.guard.CheckPath(c.Dir); err != nil {
			return fail(fmt.Sprintf("working directory rejected: %v", err))
		}
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", c.Command)
	cmd.WaitDelay = 2 * time.Second
	if c.Dir != "" {
		cmd.Dir = c.Dir
	}
	if len(c.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range c.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	output := strings.TrimSpace(stdout.String())

	if err != nil {
		if expect.WantsFailure(expected) {
			res := pass("command failed as expected")
			res.Expected = expected
			res.Actual = err.Error()
			return res
		}
		res := fail(fmt.Sprintf("command failed: %v", err))
		res.Expected = expected
		res.Actual = output
		if s := strings.TrimSpace(stderr.String()); s != "" {
			res.Evidence = append(res.Evidence, "stderr: "+truncate(s, 200))
		}
		return res
	}

	verdict := expect.Match(output, expected)
	res := Result{
		Passed:    verdict.Matched,
		Message:   verdict.Detail,
		Actual:    truncate(output, 200),
		Expected:  expected,
		Timestamp: time.Now(),
	}
	if expected == "" {
		res.Message = "command succeeded"
	}
	return res
}

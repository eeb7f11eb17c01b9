package intent

import (
	"fmt"
	"strings"
	"time"
)

// Visualize renders a text summary of the intent: goal, status and the
// step list with per-step outcomes. Presentation layers can print it
// directly.
func (in *Intent) Visualize() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Intent: %s\n", in.Goal)
	fmt.Fprintf(&b, "ID:     %s\n", in.ID)
	fmt.Fprintf(&b, "Status: %s\n", in.Status)
	fmt.Fprintf(&b, "Contract: %d precondition(s), %d invariant(s), %d postcondition(s)\n",
		len(in.contract.Requires), len(in.contract.Invariants), len(in.contract.Ensures))

	if len(in.steps) == 0 {
		b.WriteString("Steps: none\n")
		return b.String()
	}

	b.WriteString("Steps:\n")
	for i, s := range in.steps {
		fmt.Fprintf(&b, "  %d. %s [%s]", i+1, s.Name, s.Status)
		if s.Duration > 0 {
			fmt.Fprintf(&b, " (%s)", s.Duration.Round(time.Millisecond))
		}
		b.WriteString("\n")
		if len(s.DependsOn) > 0 {
			fmt.Fprintf(&b, "     depends on: %s\n", strings.Join(s.DependsOn, ", "))
		}
		if s.Status == StatusFailed && s.Result != nil {
			fmt.Fprintf(&b, "     reason: %s\n", s.Result.Message)
		}
	}
	return b.String()
}

package intentfile

import (
	"fmt"
	"time"

	"github.com/cgast/vouch/pkg/check"
	"github.com/cgast/vouch/pkg/intent"
)

// Build converts a validated Definition into an executable intent.
// Engine options given here are applied after the file's own options,
// so callers can override them.
func Build(def Definition, opts ...intent.Option) (*intent.Intent, error) {
	if vr := Validate(def); !vr.Valid() {
		return nil, fmt.Errorf("build intent: %s", vr.Error())
	}

	var options []intent.Option
	if def.Options.StopOnFailure != nil {
		options = append(options, intent.WithStopOnFailure(*def.Options.StopOnFailure))
	}
	if def.Options.Verbose {
		options = append(options, intent.WithVerbose(true))
	}
	options = append(options, opts...)

	in := intent.New(def.Goal, options...)

	appendConds := func(conds []CondDef, attach func(check.Check, any, ...intent.CondOption) *intent.Intent) {
		for _, c := range conds {
			var condOpts []intent.CondOption
			if c.Name != "" {
				condOpts = append(condOpts, intent.Named(c.Name))
			}
			if c.Critical != nil && !*c.Critical {
				condOpts = append(condOpts, intent.NonCritical())
			}
			attach(buildCheck(c.CheckDef), c.Expect, condOpts...)
		}
	}
	appendConds(def.Preconditions, in.Requires)
	appendConds(def.Invariants, in.Invariant)

	for _, s := range def.Steps {
		var timeout time.Duration
		if s.Timeout != "" {
			// Validated above; ParseDuration cannot fail here.
			timeout, _ = time.ParseDuration(s.Timeout)
		}
		in.Step(s.Name, intent.StepDef{
			Description: s.Description,
			DependsOn:   s.DependsOn,
			Check:       buildCheck(s.CheckDef),
			Expect:      s.Expect,
			Timeout:     timeout,
		})
	}

	appendConds(def.Postconditions, in.Ensures)

	return in, nil
}

// buildCheck converts a CheckDef into its check variant. The
// definition was validated, so exactly one representation is set.
func buildCheck(c CheckDef) check.Check {
	switch {
	case c.File != nil:
		fc := check.File(c.File.Path)
		fc.MustExist = c.File.MustExist
		fc.Contains = c.File.Contains
		fc.Pattern = c.File.Pattern
		fc.MinSize = c.File.MinSize
		fc.MaxSize = c.File.MaxSize
		return fc
	case c.GitHub != nil:
		return check.GitHub(c.GitHub.Repo, c.GitHub.Field)
	default:
		return check.CommandIn(c.Command, c.Dir, c.Env)
	}
}

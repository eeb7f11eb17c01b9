package verify

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/cgast/vouch/pkg/check"
)

// runFile verifies a file check: existence first, then size and
// modification-time bounds, then content, failing on the first unmet
// condition. Evidence lines accumulate observed facts for diagnostics.
func (r *Runner) runFile(c check.FileCheck) Result {
	if c.Path == "" {
		return fail("file check has no path")
	}
	if r.guard != nil {
		if err := r.guard.CheckPath(c.Path); err != nil {
			return fail(fmt.Sprintf("path rejected: %v", err))
		}
	}

	info, err := os.Stat(c.Path)
	exists := err == nil

	if c.ShouldExist() && !exists {
		return fail(fmt.Sprintf("file %s does not exist", c.Path))
	}
	if !c.ShouldExist() {
		if exists {
			return fail(fmt.Sprintf("file %s exists but should not", c.Path))
		}
		return pass(fmt.Sprintf("file %s is absent as expected", c.Path))
	}

	var evidence []string
	evidence = append(evidence, fmt.Sprintf("size: %s", check.FormatSize(info.Size())))

	minBytes, maxBytes, err := c.SizeBounds()
	if err != nil {
		return fail(fmt.Sprintf("file %s: %v", c.Path, err))
	}
	if minBytes > 0 && info.Size() < minBytes {
		res := fail(fmt.Sprintf("file %s is %s, smaller than minimum %s", c.Path, check.FormatSize(info.Size()), c.MinSize))
		res.Evidence = evidence
		return res
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		res := fail(fmt.Sprintf("file %s is %s, larger than maximum %s", c.Path, check.FormatSize(info.Size()), c.MaxSize))
		res.Evidence = evidence
		return res
	}

	mod := info.ModTime()
	if !c.ModifiedAfter.IsZero() && !mod.After(c.ModifiedAfter) {
		res := fail(fmt.Sprintf("file %s modified at %s, not after %s", c.Path, mod.Format(time.RFC3339), c.ModifiedAfter.Format(time.RFC3339)))
		res.Evidence = evidence
		return res
	}
	if !c.ModifiedBefore.IsZero() && !mod.Before(c.ModifiedBefore) {
		res := fail(fmt.Sprintf("file %s modified at %s, not before %s", c.Path, mod.Format(time.RFC3339), c.ModifiedBefore.Format(time.RFC3339)))
		res.Evidence = evidence
		return res
	}

	// Content is read only when a substring or pattern check asked for it.
	if len(c.Contains) > 0 || c.Pattern != "" {
		data, err := os.ReadFile(c.Path)
		if err != nil {
			res := fail(fmt.Sprintf("read %s: %v", c.Path, err))
			res.Evidence = evidence
			return res
		}
		content := string(data)

		for _, want := range c.Contains {
			if !strings.Contains(content, want) {
				res := fail(fmt.Sprintf("file %s does not contain %q", c.Path, want))
				res.Evidence = evidence
				return res
			}
			evidence = append(evidence, fmt.Sprintf("contains %q", want))
		}

		if c.Pattern != "" {
			re, err := regexp.Compile(c.Pattern)
			if err != nil {
				res := fail(fmt.Sprintf("file %s: invalid pattern %q: %v", c.Path, c.Pattern, err))
				res.Evidence = evidence
				return res
			}
			if !re.MatchString(content) {
				res := fail(fmt.Sprintf("file %s does not match pattern %q", c.Path, c.Pattern))
				res.Evidence = evidence
				return res
			}
			evidence = append(evidence, fmt.Sprintf("matches %q", c.Pattern))
		}
	}

	res := pass(fmt.Sprintf("file %s satisfies all conditions", c.Path))
	res.Evidence = evidence
	return res
}

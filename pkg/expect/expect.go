// Package expect implements the small grammar used to interpret an
// expected value against the textual output of a check. Matching is
// stateless: the same (output, expected) pair always yields the same
// verdict.
package expect

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Rule identifies which grammar rule decided a verdict.
type Rule string

const (
	RuleRegex      Rule = "regex"
	RuleComparator Rule = "comparator"
	RuleBoolean    Rule = "boolean"
	RuleAlways     Rule = "always"
	RuleContains   Rule = "contains"
	RuleSubstring  Rule = "substring"
)

// Verdict is the outcome of matching output against an expected value.
type Verdict struct {
	Matched bool
	Rule    Rule
	Detail  string
}

// comparatorPattern matches a leading >, < or = followed by digits only.
var comparatorPattern = regexp.MustCompile(`^([><=])(\d+)$`)

// Match applies the expectation grammar to output. Rules are tried in
// order and the first applicable rule wins:
//
//  1. /re/: regular expression test
//  2. >N, <N, =N: numeric comparison of the output as an integer
//  3. true, false: boolean coercion of the output
//  4. exit 0, success: always matches
//  5. contains:text: substring test on the remainder
//  6. anything else: substring test of the expected value itself
func Match(output, expected string) Verdict {
	if len(expected) >= 2 && strings.HasPrefix(expected, "/") && strings.HasSuffix(expected, "/") {
		pattern := expected[1 : len(expected)-1]
		re, err := regexp.Compile(pattern)
		if err != nil {
			return Verdict{Rule: RuleRegex, Detail: fmt.Sprintf("invalid pattern %q: %v", pattern, err)}
		}
		if re.MatchString(output) {
			return Verdict{Matched: true, Rule: RuleRegex, Detail: fmt.Sprintf("output matches /%s/", pattern)}
		}
		return Verdict{Rule: RuleRegex, Detail: fmt.Sprintf("output does not match /%s/", pattern)}
	}

	if m := comparatorPattern.FindStringSubmatch(expected); m != nil {
		return compareNumeric(output, m[1], m[2])
	}

	if expected == "true" || expected == "false" {
		want := expected == "true"
		got := coerceBool(output)
		if got == want {
			return Verdict{Matched: true, Rule: RuleBoolean, Detail: fmt.Sprintf("output coerces to %v", got)}
		}
		return Verdict{Rule: RuleBoolean, Detail: fmt.Sprintf("output coerces to %v, want %v", got, want)}
	}

	if expected == "exit 0" || expected == "success" {
		return Verdict{Matched: true, Rule: RuleAlways, Detail: "command succeeded"}
	}

	if rest, ok := strings.CutPrefix(expected, "contains:"); ok {
		if strings.Contains(output, rest) {
			return Verdict{Matched: true, Rule: RuleContains, Detail: fmt.Sprintf("output contains %q", rest)}
		}
		return Verdict{Rule: RuleContains, Detail: fmt.Sprintf("output does not contain %q", rest)}
	}

	if strings.Contains(output, expected) {
		return Verdict{Matched: true, Rule: RuleSubstring, Detail: fmt.Sprintf("output contains %q", expected)}
	}
	return Verdict{Rule: RuleSubstring, Detail: fmt.Sprintf("output does not contain %q", expected)}
}

// WantsFailure reports whether the expected value signals that the
// observed operation is supposed to fail.
func WantsFailure(expected string) bool {
	return expected == "fails" || expected == "error"
}

// compareNumeric parses the output as an integer and compares it to the
// expected operand. Unparseable output fails the comparison rather than
// falling through to another rule.
func compareNumeric(output, op, operand string) Verdict {
	want, _ := strconv.Atoi(operand)
	got, err := strconv.Atoi(strings.TrimSpace(output))
	if err != nil {
		return Verdict{Rule: RuleComparator, Detail: fmt.Sprintf("output %q is not an integer", strings.TrimSpace(output))}
	}

	var matched bool
	switch op {
	case ">":
		matched = got > want
	case "<":
		matched = got < want
	case "=":
		matched = got == want
	}
	if matched {
		return Verdict{Matched: true, Rule: RuleComparator, Detail: fmt.Sprintf("%d %s %d", got, op, want)}
	}
	return Verdict{Rule: RuleComparator, Detail: fmt.Sprintf("%d is not %s %d", got, op, want)}
}

// coerceBool maps textual output onto a boolean. "true", "1" and "yes"
// (case-insensitive, trimmed) are true; everything else is false.
func coerceBool(output string) bool {
	switch strings.ToLower(strings.TrimSpace(output)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

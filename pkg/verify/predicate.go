package verify

import (
	"context"
	"fmt"

	"github.com/cgast/vouch/pkg/check"
)

// runPredicate invokes the predicate function. With no explicit
// expectation the predicate must return true; an explicit boolean
// expectation is compared exactly. Errors and panics from the
// predicate are reported as failures, never re-raised.
func (r *Runner) runPredicate(ctx context.Context, c check.PredicateCheck, expected any) (res Result) {
	if c.Fn == nil {
		return fail("predicate check has no function")
	}

	defer func() {
		if p := recover(); p != nil {
			res = fail(fmt.Sprintf("predicate panicked: %v", p))
		}
	}()

	got, err := c.Fn(ctx)
	if err != nil {
		return fail(fmt.Sprintf("predicate error: %v", err))
	}

	want, ok := predicateExpectation(expected)
	if !ok {
		return fail(fmt.Sprintf("predicate expectation must be a boolean, got %T", expected))
	}

	if got == want {
		res = pass(fmt.Sprintf("predicate returned %v", got))
	} else {
		res = fail(fmt.Sprintf("predicate returned %v, want %v", got, want))
	}
	res.Actual = got
	res.Expected = want
	return res
}

// predicateExpectation resolves the expected value for a predicate
// check. Nil defaults to true.
func predicateExpectation(expected any) (bool, bool) {
	switch v := expected.(type) {
	case nil:
		return true, true
	case bool:
		return v, true
	case string:
		switch v {
		case "", "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

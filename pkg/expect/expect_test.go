package expect

import "testing"

func TestMatchRules(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		expected string
		matched  bool
		rule     Rule
	}{
		{"regex match", "version 1.2.3", `/\d+\.\d+\.\d+/`, true, RuleRegex},
		{"regex no match", "no digits here", `/\d+\.\d+/`, false, RuleRegex},
		{"regex invalid pattern", "anything", "/[/", false, RuleRegex},
		{"greater than passes", "5", ">3", true, RuleComparator},
		{"greater than fails", "5", ">10", false, RuleComparator},
		{"less than", "2", "<10", true, RuleComparator},
		{"equals", "7", "=7", true, RuleComparator},
		{"comparator non-integer output", "abc", ">3", false, RuleComparator},
		{"comparator padded output", " 42\n", ">40", true, RuleComparator},
		{"invalid comparator falls through", "x >abc y", ">abc", true, RuleSubstring},
		{"bool true from true", "true", "true", true, RuleBoolean},
		{"bool true from 1", "1", "true", true, RuleBoolean},
		{"bool true from yes", "yes", "true", true, RuleBoolean},
		{"bool false from other", "nope", "false", true, RuleBoolean},
		{"bool mismatch", "0", "true", false, RuleBoolean},
		{"exit 0 sentinel", "whatever", "exit 0", true, RuleAlways},
		{"success sentinel", "", "success", true, RuleAlways},
		{"contains prefix hit", "hello world", "contains:world", true, RuleContains},
		{"contains prefix miss", "hello world", "contains:moon", false, RuleContains},
		{"fallback substring hit", "hello world", "lo wo", true, RuleSubstring},
		{"fallback substring miss", "hello world", "mars", false, RuleSubstring},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Match(tt.output, tt.expected)
			if v.Matched != tt.matched {
				t.Errorf("Match(%q, %q).Matched = %v, want %v (%s)", tt.output, tt.expected, v.Matched, tt.matched, v.Detail)
			}
			if v.Rule != tt.rule {
				t.Errorf("Match(%q, %q).Rule = %s, want %s", tt.output, tt.expected, v.Rule, tt.rule)
			}
		})
	}
}

func TestMatchIdempotent(t *testing.T) {
	first := Match("5", ">3")
	second := Match("5", ">3")
	if first != second {
		t.Errorf("verdicts differ across calls: %+v vs %+v", first, second)
	}
}

func TestWantsFailure(t *testing.T) {
	for _, v := range []string{"fails", "error"} {
		if !WantsFailure(v) {
			t.Errorf("WantsFailure(%q) = false, want true", v)
		}
	}
	for _, v := range []string{"", "success", "failing", "Error"} {
		if WantsFailure(v) {
			t.Errorf("WantsFailure(%q) = true, want false", v)
		}
	}
}

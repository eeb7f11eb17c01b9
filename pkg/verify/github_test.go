package verify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cgast/vouch/pkg/check"
)

func newGitHubTestRunner(t *testing.T, handler http.HandlerFunc) *Runner {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewGitHubClientWithBase("test-token", srv.URL)
	if err != nil {
		t.Fatalf("NewGitHubClientWithBase: %v", err)
	}
	return NewRunner(WithGitHub(client))
}

func TestGitHubCheck(t *testing.T) {
	r := newGitHubTestRunner(t, func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/repos/octo/widgets" {
			http.NotFound(w, req)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"full_name": "octo/widgets",
			"stargazers_count": 128,
			"forks_count": 7,
			"open_issues_count": 3,
			"language": "Go",
			"default_branch": "main"
		}`)
	})

	tests := []struct {
		field    string
		expected any
		passed   bool
	}{
		{"stars", ">100", true},
		{"stars", ">1000", false},
		{"forks", "=7", true},
		{"language", "Go", true},
		{"default_branch", "main", true},
		{"full_name", "contains:widgets", true},
		{"stars", nil, true}, // no expectation: resolving the field is enough
		{"moons", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			res := r.Run(context.Background(), check.GitHub("octo/widgets", tt.field), tt.expected)
			if res.Passed != tt.passed {
				t.Errorf("field %s expected %v: passed = %v (message: %s)", tt.field, tt.expected, res.Passed, res.Message)
			}
		})
	}
}

func TestGitHubCheckErrors(t *testing.T) {
	r := newGitHubTestRunner(t, func(w http.ResponseWriter, req *http.Request) {
		http.NotFound(w, req)
	})

	res := r.Run(context.Background(), check.GitHub("octo/ghost", "stars"), nil)
	if res.Passed {
		t.Error("API error should fail the check")
	}

	res = r.Run(context.Background(), check.GitHub("not-a-repo", "stars"), nil)
	if res.Passed {
		t.Error("malformed repo should fail")
	}
}

func TestGitHubUnconfigured(t *testing.T) {
	r := NewRunner()
	res := r.Run(context.Background(), check.GitHub("octo/widgets", "stars"), nil)
	if res.Passed {
		t.Error("github check without a client should fail")
	}
}

func TestNewGitHubClientRequiresToken(t *testing.T) {
	if _, err := NewGitHubClient(""); err == nil {
		t.Error("empty token should be rejected")
	}
}

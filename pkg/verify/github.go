package verify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gh "github.com/google/go-github/v60/github"

	"github.com/cgast/vouch/pkg/check"
	"github.com/cgast/vouch/pkg/expect"
)

// GitHubClient wraps the GitHub API client with token authentication.
type GitHubClient struct {
	inner *gh.Client
}

// NewGitHubClient creates a GitHub API client with the given token.
func NewGitHubClient(token string) (*GitHubClient, error) {
	if token == "" {
		return nil, fmt.Errorf("github token is required")
	}
	httpClient := &http.Client{
		Transport: &tokenTransport{token: token},
	}
	return &GitHubClient{inner: gh.NewClient(httpClient)}, nil
}

// NewGitHubClientWithBase creates a client against a non-default API
// base URL (GitHub Enterprise, or a test server).
func NewGitHubClientWithBase(token, baseURL string) (*GitHubClient, error) {
	c, err := NewGitHubClient(token)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", baseURL, err)
	}
	c.inner.BaseURL = u
	return c, nil
}

// tokenTransport adds Bearer token auth to HTTP requests.
type tokenTransport struct {
	token string
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+t.token)
	return http.DefaultTransport.RoundTrip(req)
}

// runGitHub resolves a repository field to text and feeds it to the
// expectation matcher. API errors are reported as failures.
func (r *Runner) runGitHub(ctx context.Context, c check.GitHubCheck, expected string) Result {
	if r.github == nil {
		return fail("github checks are not configured (missing token)")
	}

	owner, name, err := splitRepo(c.Repo)
	if err != nil {
		return fail(err.Error())
	}

	repo, _, err := r.github.inner.Repositories.Get(ctx, owner, name)
	if err != nil {
		return fail(fmt.Sprintf("github: get %s: %v", c.Repo, err))
	}

	value, err := repoField(repo, c.Field)
	if err != nil {
		return fail(err.Error())
	}

	if expected == "" {
		res := pass(fmt.Sprintf("%s.%s = %s", c.Repo, c.Field, value))
		res.Actual = value
		return res
	}

	verdict := expect.Match(value, expected)
	return Result{
		Passed:    verdict.Matched,
		Message:   fmt.Sprintf("%s.%s: %s", c.Repo, c.Field, verdict.Detail),
		Actual:    value,
		Expected:  expected,
		Timestamp: time.Now(),
	}
}

// splitRepo parses "owner/name" into its parts.
func splitRepo(repo string) (owner, name string, err error) {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo %q, want owner/name", repo)
	}
	return parts[0], parts[1], nil
}

// repoField resolves a named repository field to its textual value.
func repoField(repo *gh.Repository, field string) (string, error) {
	switch field {
	case "stars":
		return strconv.Itoa(repo.GetStargazersCount()), nil
	case "forks":
		return strconv.Itoa(repo.GetForksCount()), nil
	case "open_issues":
		return strconv.Itoa(repo.GetOpenIssuesCount()), nil
	case "language":
		return repo.GetLanguage(), nil
	case "default_branch":
		return repo.GetDefaultBranch(), nil
	case "full_name":
		return repo.GetFullName(), nil
	case "description":
		return repo.GetDescription(), nil
	default:
		return "", fmt.Errorf("unknown github field %q", field)
	}
}

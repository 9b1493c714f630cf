// Package bitbucket provides read-only access to the Bitbucket Cloud 1.0 issue API.
package bitbucket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultBaseURL is the Bitbucket Cloud 1.0 REST endpoint
const DefaultBaseURL = "https://api.bitbucket.org/1.0"

// maxFetchRetries bounds the retry attempts for one page fetch
const maxFetchRetries = 4

// FatalError indicates the repository is unreachable in a way a retry
// cannot fix (bad credentials, repository missing). The whole run
// aborts when one occurs.
type FatalError struct {
	StatusCode int
	URL        string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("bitbucket returned HTTP %d for %s", e.StatusCode, e.URL)
}

// IsFatal reports whether err carries a FatalError anywhere in its chain
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// Client fetches issues and comments from one Bitbucket repository
type Client struct {
	baseURL    string
	owner      string
	slug       string
	username   string
	password   string
	httpClient *http.Client
}

// NewClient creates a client for the given repository. Username and
// password may be empty for public repositories.
func NewClient(owner, slug, username, password string) *Client {
	return &Client{
		baseURL:    DefaultBaseURL,
		owner:      owner,
		slug:       slug,
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// NewClientWithBaseURL creates a client pointed at a non-default API
// endpoint. Used by tests.
func NewClientWithBaseURL(baseURL, owner, slug, username, password string) *Client {
	c := NewClient(owner, slug, username, password)
	c.baseURL = baseURL
	return c
}

// Repo returns the <owner>/<slug> identifier of the source repository
func (c *Client) Repo() string {
	return fmt.Sprintf("%s/%s", c.owner, c.slug)
}

// Count returns the issue count advertised by the API. The count can be
// stale for repositories with deletions, so callers must treat it as a
// progress hint only; pagination never relies on it.
func (c *Client) Count(ctx context.Context) (int, error) {
	url := fmt.Sprintf("%s/repositories/%s/%s/issues/?limit=0", c.baseURL, c.owner, c.slug)

	var page issuesPage
	if err := c.getJSON(ctx, url, &page); err != nil {
		return 0, fmt.Errorf("failed to fetch issue count: %w", err)
	}
	return page.Count, nil
}

// FetchIssues fetches every issue in the repository, sorted ascending
// by local id. Pagination continues until the API returns an empty
// page, regardless of the advertised count.
func (c *Client) FetchIssues(ctx context.Context) ([]Issue, error) {
	var allIssues []Issue
	start := 0

	for {
		url := fmt.Sprintf("%s/repositories/%s/%s/issues/?start=%d", c.baseURL, c.owner, c.slug, start)

		slog.Debug("Bitbucket API: Listing issues", "repo", c.Repo(), "start", start)
		var page issuesPage
		if err := c.getJSON(ctx, url, &page); err != nil {
			return nil, fmt.Errorf("failed to fetch issues page at %d: %w", start, err)
		}

		if len(page.Issues) == 0 {
			break
		}

		allIssues = append(allIssues, page.Issues...)
		start += len(page.Issues)
	}

	// Pages arrive in API order; downstream submission depends on
	// ascending local id.
	sort.Slice(allIssues, func(i, j int) bool {
		return allIssues[i].LocalID < allIssues[j].LocalID
	})

	return allIssues, nil
}

// FetchComments fetches the comments of one issue in creation order.
// Bitbucket records status changes as comments with no content; those
// carry no text worth migrating, so callers may filter them out.
func (c *Client) FetchComments(ctx context.Context, issueID int) ([]Comment, error) {
	url := fmt.Sprintf("%s/repositories/%s/%s/issues/%d/comments/", c.baseURL, c.owner, c.slug, issueID)

	slog.Debug("Bitbucket API: Listing comments", "repo", c.Repo(), "issue", issueID)
	var comments []Comment
	if err := c.getJSON(ctx, url, &comments); err != nil {
		return nil, fmt.Errorf("failed to fetch comments for issue #%d: %w", issueID, err)
	}

	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedOn < comments[j].CreatedOn
	})

	return comments, nil
}

// getJSON performs a GET request and decodes the JSON response,
// retrying transient failures with capped exponential backoff.
// Authentication failures and missing repositories are fatal and
// never retried.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		if c.username != "" {
			req.SetBasicAuth(c.username, c.password)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			// Fall through to decoding below.
		case resp.StatusCode == http.StatusUnauthorized,
			resp.StatusCode == http.StatusForbidden,
			resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(&FatalError{StatusCode: resp.StatusCode, URL: url})
		default:
			// 5xx and anything unexpected is worth another attempt.
			return fmt.Errorf("unexpected HTTP %d from %s", resp.StatusCode, url)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}
		if err := json.Unmarshal(body, out); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxFetchRetries),
		ctx,
	)

	return backoff.RetryNotify(operation, policy, func(err error, wait time.Duration) {
		slog.Warn("Bitbucket request failed, retrying", "url", url, "error", err, "wait", wait)
	})
}

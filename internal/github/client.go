// Package github wraps the destination-side GitHub API: milestone
// management and the asynchronous issue import endpoint.
package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// Client wraps the GitHub API client for one destination repository
type Client struct {
	client *github.Client
	owner  string
	repo   string
}

// NewClient creates a new GitHub client with token authentication
func NewClient(ctx context.Context, token, owner, repo string) *Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)

	return &Client{
		client: github.NewClient(tc),
		owner:  owner,
		repo:   repo,
	}
}

// NewClientWithBaseURL creates a client pointed at a non-default API
// endpoint. Used by tests.
func NewClientWithBaseURL(baseURL, owner, repo string) (*Client, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	client := github.NewClient(nil)
	client.BaseURL = parsed

	return &Client{client: client, owner: owner, repo: repo}, nil
}

// Repo returns the <owner>/<repo> identifier of the destination repository
func (c *Client) Repo() string {
	return fmt.Sprintf("%s/%s", c.owner, c.repo)
}

// GetAuthenticatedUser returns the login name of the authenticated user
func (c *Client) GetAuthenticatedUser(ctx context.Context) (string, error) {
	user, _, err := c.client.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("failed to get authenticated user: %w", err)
	}

	return user.GetLogin(), nil
}

// GetRepository verifies the destination repository exists and is
// reachable with the configured token
func (c *Client) GetRepository(ctx context.Context) error {
	_, _, err := c.client.Repositories.Get(ctx, c.owner, c.repo)
	if err != nil {
		return fmt.Errorf("failed to access repository %s: %w", c.Repo(), err)
	}
	return nil
}

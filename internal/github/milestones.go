package github

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/go-github/v57/github"
)

// MilestoneRegistry resolves milestone titles to destination milestone
// numbers, creating milestones on first use. Resolutions are cached for
// the remainder of the run. Concurrent lookups of the same unresolved
// title are serialized per-title so a milestone is created at most once.
type MilestoneRegistry struct {
	client *Client

	mu      sync.Mutex
	numbers map[string]int
	pending map[string]*sync.Mutex
}

// NewMilestoneRegistry creates an empty registry backed by the given client
func NewMilestoneRegistry(client *Client) *MilestoneRegistry {
	return &MilestoneRegistry{
		client:  client,
		numbers: make(map[string]int),
		pending: make(map[string]*sync.Mutex),
	}
}

// NumberFor returns the destination milestone number for the given
// title, finding or creating the milestone on first request.
func (r *MilestoneRegistry) NumberFor(ctx context.Context, title string) (int, error) {
	r.mu.Lock()
	if number, ok := r.numbers[title]; ok {
		r.mu.Unlock()
		return number, nil
	}
	titleLock, ok := r.pending[title]
	if !ok {
		titleLock = &sync.Mutex{}
		r.pending[title] = titleLock
	}
	r.mu.Unlock()

	titleLock.Lock()
	defer titleLock.Unlock()

	// Another lookup may have resolved the title while we waited.
	r.mu.Lock()
	if number, ok := r.numbers[title]; ok {
		r.mu.Unlock()
		return number, nil
	}
	r.mu.Unlock()

	number, err := r.findOrCreate(ctx, title)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	r.numbers[title] = number
	r.mu.Unlock()

	return number, nil
}

// findOrCreate looks the title up in the repository's milestones and
// creates it when absent
func (r *MilestoneRegistry) findOrCreate(ctx context.Context, title string) (int, error) {
	opts := &github.MilestoneListOptions{
		State: "all",
		ListOptions: github.ListOptions{
			PerPage: 100,
		},
	}

	c := r.client
	for {
		slog.Debug("GitHub API: Listing milestones", "repo", c.Repo(), "page", opts.Page)
		milestones, resp, err := c.client.Issues.ListMilestones(ctx, c.owner, c.repo, opts)
		if err != nil {
			return 0, fmt.Errorf("failed to list milestones: %w", err)
		}

		for _, m := range milestones {
			if m.GetTitle() == title {
				return m.GetNumber(), nil
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	slog.Debug("GitHub API: Creating milestone", "repo", c.Repo(), "title", title)
	milestone, _, err := c.client.Issues.CreateMilestone(ctx, c.owner, c.repo, &github.Milestone{
		Title: github.String(title),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create milestone %q: %w", title, err)
	}

	slog.Info("Created milestone", "title", title, "number", milestone.GetNumber())
	return milestone.GetNumber(), nil
}

// Package cmd defines core data structures for issue-migrator configuration.
package cmd

// IssueState represents the open/closed state of a source issue
type IssueState string

const (
	// IssueStateOpen indicates the issue is still open on the source tracker
	IssueStateOpen IssueState = "open"
	// IssueStateClosed indicates the issue reached a terminal status on the source tracker
	IssueStateClosed IssueState = "closed"
)

// ParseIssueState maps a raw Bitbucket status string to an IssueState.
// Everything Bitbucket considers terminal maps to closed; "on hold" and
// unknown statuses stay open.
func ParseIssueState(status string) IssueState {
	switch status {
	case "resolved", "closed", "wontfix", "invalid", "duplicate":
		return IssueStateClosed
	default:
		return IssueStateOpen
	}
}

// Config represents the structure of migration.yaml
type Config struct {
	// BitbucketRepo is the source repository in <owner>/<slug> form
	BitbucketRepo string `yaml:"bitbucket_repo"`
	// GitHubRepo is the destination repository in <owner>/<repo> form
	GitHubRepo string `yaml:"github_repo"`
	// BitbucketUser enables basic auth for private source repositories;
	// the password comes from the BITBUCKET_PASSWORD environment variable
	BitbucketUser string `yaml:"bitbucket_user,omitempty"`

	Options Options `yaml:"options,omitempty"`

	// UserMap maps Bitbucket usernames to GitHub logins. An empty value
	// suppresses attribution for that user entirely (used for the
	// account running the migration).
	UserMap map[string]string `yaml:"user_map,omitempty"`
}

// Options controls pipeline behavior for a single migration run
type Options struct {
	// DryRun maps and prints payloads without submitting anything
	DryRun bool `yaml:"dry_run,omitempty"`
	// Skip drops the first N issues in fetch order before submitting
	Skip int `yaml:"skip,omitempty"`
	// OnlyIssues restricts the run to the listed source issue ids
	OnlyIssues []int `yaml:"only_issues,omitempty"`
	// AssumeSameUser treats unmapped Bitbucket usernames as identical
	// GitHub logins instead of leaving the assignee unset
	AssumeSameUser bool `yaml:"assume_same_user,omitempty"`
	// ImportsPerMinute overrides the destination rate ceiling (default 8)
	ImportsPerMinute int `yaml:"imports_per_minute,omitempty"`
	// LinkChangesets rewrites changeset references in comment bodies into
	// links against the source repository
	LinkChangesets bool `yaml:"link_changesets,omitempty"`
	// MentionAttachments appends a note when a source issue carried
	// attachments, which the import API cannot transfer
	MentionAttachments bool `yaml:"mention_attachments,omitempty"`
	// MentionChanges keeps status-change comments instead of dropping them
	MentionChanges bool `yaml:"mention_changes,omitempty"`
}

// WantsIssue reports whether the run should process the given source id.
// An empty OnlyIssues list means every issue is in scope.
func (o Options) WantsIssue(id int) bool {
	if len(o.OnlyIssues) == 0 {
		return true
	}
	for _, n := range o.OnlyIssues {
		if n == id {
			return true
		}
	}
	return false
}

package migrate

import (
	"fmt"
	"strings"
	"time"

	"github.com/alan/issue-migrator/cmd"
	"github.com/alan/issue-migrator/internal/bitbucket"
	"github.com/alan/issue-migrator/internal/github"
)

// bitbucketTimeFormats lists the timestamp layouts the 1.0 API emits
var bitbucketTimeFormats = []string{
	"2006-01-02 15:04:05+00:00",
	"2006-01-02T15:04:05.000000",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// Mapper projects Bitbucket issues and comments into import payloads
// for the destination repository. Mapping is pure: milestone titles are
// returned for the caller to resolve against the destination.
type Mapper struct {
	rewriter *Rewriter
	users    *UserMap
	options  cmd.Options
	repo     string
}

// NewMapper creates a Mapper for the given source repository
func NewMapper(repo string, rewriter *Rewriter, users *UserMap, options cmd.Options) *Mapper {
	return &Mapper{
		rewriter: rewriter,
		users:    users,
		options:  options,
		repo:     repo,
	}
}

// MapIssue builds the import payload for one source issue and its
// comments. The returned milestone title is empty when the issue has no
// milestone; otherwise the caller resolves it to a destination
// milestone number and sets it on the payload.
func (m *Mapper) MapIssue(issue *bitbucket.Issue, comments []bitbucket.Comment) (*github.ImportRequest, string) {
	request := &github.ImportRequest{
		Issue: github.IssueImport{
			Title:     issue.Title,
			Body:      m.mapBody(issue),
			CreatedAt: formatTimestamp(issue.CreatedOn),
			UpdatedAt: formatTimestamp(issue.UpdatedOn),
			Closed:    cmd.ParseIssueState(issue.Status) == cmd.IssueStateClosed,
			Labels:    m.mapLabels(issue),
		},
	}

	if request.Issue.Closed {
		request.Issue.ClosedAt = formatTimestamp(issue.UpdatedOn)
	}

	if issue.Responsible != nil {
		if login, ok := m.users.Resolve(issue.Responsible.Username); ok {
			request.Issue.Assignee = login
		}
	}

	for _, comment := range comments {
		mapped, ok := m.mapComment(&comment)
		if !ok {
			continue
		}
		request.Comments = append(request.Comments, mapped)
	}

	return request, issue.Metadata.Milestone
}

// mapBody cleans, rewrites and annotates the issue body
func (m *Mapper) mapBody(issue *bitbucket.Issue) string {
	body := CleanBody(issue.Content)
	body = m.rewriter.RewriteReferences(body)
	if m.options.LinkChangesets {
		body = m.rewriter.LinkChangesets(body)
	}

	sourceURL := fmt.Sprintf("https://bitbucket.org/%s/issue/%d", m.repo, issue.LocalID)
	lines := []string{
		fmt.Sprintf("- Bitbucket: %s", sourceURL),
		fmt.Sprintf("- Originally reported by: %s", m.userLink(issue.ReportedBy)),
		fmt.Sprintf("- Originally created at: %s", issue.CreatedOn),
	}
	if m.options.MentionAttachments && issue.Attachments > 0 {
		lines = append(lines, fmt.Sprintf("- %d attachment(s) were not migrated", issue.Attachments))
	}

	return m.rewriter.Annotate(body, lines...)
}

// mapComment builds one comment payload. Status-change comments have no
// body on Bitbucket; they are dropped unless the run asked to keep
// them. Comments by suppressed users keep their body but get no
// attribution footer.
func (m *Mapper) mapComment(comment *bitbucket.Comment) (github.CommentImport, bool) {
	body := comment.Content
	if strings.TrimSpace(body) == "" {
		if !m.options.MentionChanges {
			return github.CommentImport{}, false
		}
		body = "*(issue change without comment text)*"
	}

	body = CleanBody(body)
	body = m.rewriter.RewriteReferences(body)
	if m.options.LinkChangesets {
		body = m.rewriter.LinkChangesets(body)
	}

	if comment.Author == nil || !m.users.Suppressed(comment.Author.Username) {
		body = m.rewriter.Annotate(body,
			fmt.Sprintf("Original comment by: %s", m.userLink(comment.Author)),
		)
	}

	return github.CommentImport{
		CreatedAt: formatTimestamp(comment.CreatedOn),
		Body:      body,
	}, true
}

// mapLabels derives the deduplicated label set from the issue's
// taxonomy fields, in stable priority/kind/component/version order
func (m *Mapper) mapLabels(issue *bitbucket.Issue) []string {
	candidates := []string{
		LabelFor(LabelKindPriority, issue.Priority),
		LabelFor(LabelKindIssueType, issue.Metadata.Kind),
		LabelFor(LabelKindComponent, issue.Metadata.Component),
		LabelFor(LabelKindVersion, issue.Metadata.Version),
	}

	seen := make(map[string]bool, len(candidates))
	var labels []string
	for _, label := range candidates {
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		labels = append(labels, label)
	}
	return labels
}

// userLink renders the attribution link for a user, including their
// GitHub login when the user map resolves them
func (m *Mapper) userLink(user *bitbucket.User) string {
	if user == nil {
		return "Anonymous"
	}
	login, _ := m.users.Resolve(user.Username)
	return UserLink(user.DisplayName(), user.Username, login)
}

// CleanBody converts Bitbucket wiki-style {{{ }}} code markers into
// Markdown: multi-line blocks become indented code, inline markers
// become backticks
func CleanBody(body string) string {
	var lines []string
	inBlock := false

	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "{{{") || strings.HasPrefix(line, "}}}") {
			if strings.Contains(line, "{{{") {
				_, after, _ := strings.Cut(line, "{{{")
				lines = append(lines, "    "+after)
				inBlock = true
			}
			if strings.Contains(line, "}}}") {
				before, _, _ := strings.Cut(line, "}}}")
				lines = append(lines, "    "+before)
				inBlock = false
			}
			continue
		}

		if inBlock {
			lines = append(lines, "    "+line)
		} else {
			line = strings.ReplaceAll(line, "{{{", "`")
			line = strings.ReplaceAll(line, "}}}", "`")
			lines = append(lines, line)
		}
	}

	return strings.Join(lines, "\n")
}

// formatTimestamp converts a Bitbucket timestamp into the RFC 3339 form
// the import endpoint expects. Unparseable timestamps are omitted
// rather than failing the issue.
func formatTimestamp(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range bitbucketTimeFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return ""
}

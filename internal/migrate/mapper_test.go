package migrate

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/alan/issue-migrator/cmd"
	"github.com/alan/issue-migrator/internal/bitbucket"
)

func newTestMapper(options cmd.Options, overrides map[string]string) *Mapper {
	repo := "alice/widgets"
	rewriter := NewRewriter(repo)
	users := NewUserMap(overrides, options.AssumeSameUser)
	return NewMapper(repo, rewriter, users, options)
}

func sampleIssue() *bitbucket.Issue {
	return &bitbucket.Issue{
		LocalID:    42,
		Title:      "Crash on startup",
		Content:    "It crashes. See https://bitbucket.org/alice/widgets/issue/7",
		Status:     "resolved",
		Priority:   "blocker",
		ReportedBy: &bitbucket.User{Username: "asmith", FirstName: "Alice", LastName: "Smith"},
		Metadata: bitbucket.Metadata{
			Kind:      "bug",
			Component: "core",
			Milestone: "2.0",
		},
		CreatedOn: "2012-03-01 10:00:00+00:00",
		UpdatedOn: "2012-04-01 10:00:00+00:00",
	}
}

func TestMapIssue(t *testing.T) {
	m := newTestMapper(cmd.Options{}, map[string]string{"asmith": "alice"})

	request, milestone := m.MapIssue(sampleIssue(), nil)

	if request.Issue.Title != "Crash on startup" {
		t.Errorf("title = %q", request.Issue.Title)
	}
	if milestone != "2.0" {
		t.Errorf("milestone = %q, want 2.0", milestone)
	}
	if !request.Issue.Closed {
		t.Error("resolved issue must map to closed")
	}
	if request.Issue.ClosedAt == "" {
		t.Error("closed issue must carry closed_at")
	}
	if request.Issue.CreatedAt != "2012-03-01T10:00:00Z" {
		t.Errorf("created_at = %q", request.Issue.CreatedAt)
	}
	if !strings.Contains(request.Issue.Body, "#7") {
		t.Errorf("body reference not rewritten: %q", request.Issue.Body)
	}
	if !strings.Contains(request.Issue.Body, "https://bitbucket.org/alice/widgets/issue/42") {
		t.Errorf("body missing source link: %q", request.Issue.Body)
	}
	if !strings.Contains(request.Issue.Body, "(@alice)") {
		t.Errorf("body missing mapped author attribution: %q", request.Issue.Body)
	}
}

func TestMapIssueLabels(t *testing.T) {
	issue := sampleIssue()
	issue.Priority = "bug"
	issue.Metadata.Kind = "bug"
	issue.Metadata.Component = strings.Repeat("x", 80)
	issue.Metadata.Version = "1.0"

	m := newTestMapper(cmd.Options{}, nil)
	request, _ := m.MapIssue(issue, nil)

	seen := make(map[string]bool)
	for _, label := range request.Issue.Labels {
		if seen[label] {
			t.Errorf("duplicate label %q", label)
		}
		seen[label] = true
		if n := utf8.RuneCountInString(label); n > maxLabelLength {
			t.Errorf("label %q exceeds %d runes", label, maxLabelLength)
		}
	}

	if !seen["bug"] || !seen["priority: bug"] {
		t.Errorf("unexpected label set: %v", request.Issue.Labels)
	}
}

func TestMapIssueOpenStates(t *testing.T) {
	tests := []struct {
		status     string
		wantClosed bool
	}{
		{"new", false},
		{"open", false},
		{"on hold", false},
		{"resolved", true},
		{"wontfix", true},
		{"invalid", true},
		{"duplicate", true},
		{"closed", true},
	}

	m := newTestMapper(cmd.Options{}, nil)
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			issue := sampleIssue()
			issue.Status = tt.status
			request, _ := m.MapIssue(issue, nil)
			if request.Issue.Closed != tt.wantClosed {
				t.Errorf("status %q: closed = %v, want %v", tt.status, request.Issue.Closed, tt.wantClosed)
			}
		})
	}
}

func TestMapIssueAssignee(t *testing.T) {
	issue := sampleIssue()
	issue.Responsible = &bitbucket.User{Username: "asmith"}

	mapped := newTestMapper(cmd.Options{}, map[string]string{"asmith": "alice"})
	request, _ := mapped.MapIssue(issue, nil)
	if request.Issue.Assignee != "alice" {
		t.Errorf("assignee = %q, want alice", request.Issue.Assignee)
	}

	// Without a mapping the assignee stays unset.
	unmapped := newTestMapper(cmd.Options{}, nil)
	request, _ = unmapped.MapIssue(issue, nil)
	if request.Issue.Assignee != "" {
		t.Errorf("assignee = %q, want empty", request.Issue.Assignee)
	}
}

func TestMapIssueAnonymousReporter(t *testing.T) {
	issue := sampleIssue()
	issue.ReportedBy = nil

	m := newTestMapper(cmd.Options{}, nil)
	request, _ := m.MapIssue(issue, nil)
	if !strings.Contains(request.Issue.Body, "Anonymous") {
		t.Errorf("body missing anonymous attribution: %q", request.Issue.Body)
	}
}

func TestMapComments(t *testing.T) {
	comments := []bitbucket.Comment{
		{Content: "First!", Author: &bitbucket.User{Username: "bob"}, CreatedOn: "2012-03-02 10:00:00+00:00"},
		{Content: "", Author: &bitbucket.User{Username: "bob"}, CreatedOn: "2012-03-03 10:00:00+00:00"},
		{Content: "Me too", Author: &bitbucket.User{Username: "migrator"}, CreatedOn: "2012-03-04 10:00:00+00:00"},
	}

	m := newTestMapper(cmd.Options{}, map[string]string{"migrator": ""})
	request, _ := m.MapIssue(sampleIssue(), comments)

	// The empty status-change comment is dropped.
	if len(request.Comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(request.Comments))
	}
	if !strings.Contains(request.Comments[0].Body, "Original comment by") {
		t.Errorf("comment missing attribution: %q", request.Comments[0].Body)
	}
	// The suppressed user's comment keeps its body but gets no footer.
	if strings.Contains(request.Comments[1].Body, "Original comment by") {
		t.Errorf("suppressed comment must not carry attribution: %q", request.Comments[1].Body)
	}
	if request.Comments[0].CreatedAt != "2012-03-02T10:00:00Z" {
		t.Errorf("comment created_at = %q", request.Comments[0].CreatedAt)
	}
}

func TestMapCommentsMentionChanges(t *testing.T) {
	comments := []bitbucket.Comment{
		{Content: "", Author: &bitbucket.User{Username: "bob"}, CreatedOn: "2012-03-03 10:00:00+00:00"},
	}

	m := newTestMapper(cmd.Options{MentionChanges: true}, nil)
	request, _ := m.MapIssue(sampleIssue(), comments)

	if len(request.Comments) != 1 {
		t.Fatalf("expected the change event to be kept, got %d comments", len(request.Comments))
	}
	if !strings.Contains(request.Comments[0].Body, "issue change") {
		t.Errorf("placeholder body missing: %q", request.Comments[0].Body)
	}
}

func TestMapIssueAttachmentsMention(t *testing.T) {
	issue := sampleIssue()
	issue.Attachments = 2

	plain := newTestMapper(cmd.Options{}, nil)
	request, _ := plain.MapIssue(issue, nil)
	if strings.Contains(request.Issue.Body, "attachment") {
		t.Errorf("attachments mentioned without the option: %q", request.Issue.Body)
	}

	mentioning := newTestMapper(cmd.Options{MentionAttachments: true}, nil)
	request, _ = mentioning.MapIssue(issue, nil)
	if !strings.Contains(request.Issue.Body, "2 attachment(s) were not migrated") {
		t.Errorf("attachments not mentioned: %q", request.Issue.Body)
	}
}

func TestCleanBody(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "multi-line block becomes indented code",
			in:   "intro\n{{{\ncode line\n}}}\noutro",
			want: "intro\n    \n    code line\n    \noutro",
		},
		{
			name: "inline markers become backticks",
			in:   "call {{{foo()}}} here",
			want: "call `foo()` here",
		},
		{
			name: "plain text unchanged",
			in:   "nothing special",
			want: "nothing special",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanBody(tt.in); got != tt.want {
				t.Errorf("CleanBody(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2012-03-01 10:00:00+00:00", "2012-03-01T10:00:00Z"},
		{"2012-03-01T10:00:00.000000", "2012-03-01T10:00:00Z"},
		{"", ""},
		{"not a timestamp", ""},
	}

	for _, tt := range tests {
		if got := formatTimestamp(tt.in); got != tt.want {
			t.Errorf("formatTimestamp(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

package migrate

import (
	"fmt"
	"regexp"
	"strings"
)

// annotationMarker tags text this tool has already annotated. The
// rewriter refuses to annotate text containing it, so retried
// submissions never accumulate duplicate footers. HTML comments are
// invisible in rendered GitHub Markdown.
const annotationMarker = "<!-- migrated from Bitbucket -->"

// Rewriter rewrites cross-issue references and appends attribution
// annotations for one source repository. All methods are pure and
// idempotent.
type Rewriter struct {
	sourceRepo string
	issueLink  *regexp.Regexp
	changeset  *regexp.Regexp
}

// NewRewriter creates a Rewriter scoped to the given <owner>/<slug>
// source repository. References to other repositories are left alone.
func NewRewriter(sourceRepo string) *Rewriter {
	// Matches absolute links to this repository's issues, e.g.
	// https://bitbucket.org/owner/slug/issue/42/slow-startup
	issueLink := regexp.MustCompile(
		`https?://bitbucket\.org/` + regexp.QuoteMeta(sourceRepo) + `/issues?/(\d+)[\w/-]*`,
	)
	// Matches "changeset abc123def456" style mentions with a hex hash.
	changeset := regexp.MustCompile(`\bchangeset\s+([0-9a-f]{12,40})\b`)

	return &Rewriter{
		sourceRepo: sourceRepo,
		issueLink:  issueLink,
		changeset:  changeset,
	}
}

// RewriteReferences rewrites absolute links to this repository's issues
// into bare #N tokens, which GitHub auto-links against the destination
// repository. Links to other repositories' issues are left untouched,
// and #N tokens are already canonical so the rewrite is idempotent.
//
// The bare-token form assumes a 1:1 id correspondence between source
// and destination issue numbers, which holds only when the destination
// repository starts empty and every import succeeds.
func (r *Rewriter) RewriteReferences(text string) string {
	return r.issueLink.ReplaceAllString(text, "#$1")
}

// LinkChangesets rewrites "changeset <hash>" mentions into Markdown
// links against the source repository's commit pages. The destination
// has no copy of the repository history, so the links keep pointing at
// Bitbucket.
func (r *Rewriter) LinkChangesets(text string) string {
	return r.changeset.ReplaceAllStringFunc(text, func(match string) string {
		hash := r.changeset.FindStringSubmatch(match)[1]
		short := hash
		if len(short) > 12 {
			short = short[:12]
		}
		return fmt.Sprintf("[changeset %s](https://bitbucket.org/%s/commits/%s)", short, r.sourceRepo, hash)
	})
}

// Annotate appends an attribution annotation beneath a horizontal rule.
// Text that already carries the annotation marker is returned
// unchanged.
func (r *Rewriter) Annotate(text string, lines ...string) string {
	if strings.Contains(text, annotationMarker) {
		return text
	}

	var b strings.Builder
	b.WriteString(text)
	b.WriteString("\n\n---\n")
	b.WriteString(annotationMarker)
	b.WriteString("\n")
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// UserLink renders a Bitbucket profile link for attribution, adding the
// GitHub account when a mapping exists
func UserLink(displayName, bitbucketUser, githubLogin string) string {
	if bitbucketUser == "" {
		return displayName
	}
	link := fmt.Sprintf("[%s](https://bitbucket.org/%s)", displayName, bitbucketUser)
	if githubLogin != "" {
		link += fmt.Sprintf(" (@%s)", githubLogin)
	}
	return link
}

package migrate

import (
	"strings"
	"testing"
)

func TestRewriteReferences(t *testing.T) {
	r := NewRewriter("alice/widgets")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "same-repo issue link becomes bare token",
			in:   "see https://bitbucket.org/alice/widgets/issue/42/slow-startup for details",
			want: "see #42 for details",
		},
		{
			name: "plural issues path",
			in:   "https://bitbucket.org/alice/widgets/issues/7",
			want: "#7",
		},
		{
			name: "bare token is already canonical",
			in:   "see issue #7 in this repo",
			want: "see issue #7 in this repo",
		},
		{
			name: "foreign repo link untouched",
			in:   "see issue #7 in this repo and https://bitbucket.org/other/repo/issues/2",
			want: "see issue #7 in this repo and https://bitbucket.org/other/repo/issues/2",
		},
		{
			name: "no references",
			in:   "plain text",
			want: "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.RewriteReferences(tt.in); got != tt.want {
				t.Errorf("RewriteReferences() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRewriteReferencesIdempotent(t *testing.T) {
	r := NewRewriter("alice/widgets")

	inputs := []string{
		"see https://bitbucket.org/alice/widgets/issue/42",
		"see #42",
		"plain text with https://bitbucket.org/other/repo/issue/1",
	}

	for _, in := range inputs {
		once := r.RewriteReferences(in)
		twice := r.RewriteReferences(once)
		if once != twice {
			t.Errorf("rewrite not idempotent: first %q, second %q", once, twice)
		}
	}
}

func TestAnnotate(t *testing.T) {
	r := NewRewriter("alice/widgets")

	got := r.Annotate("body text", "- Originally reported by: alice")
	if !strings.Contains(got, "body text") {
		t.Errorf("Annotate() dropped the body: %q", got)
	}
	if !strings.Contains(got, "- Originally reported by: alice") {
		t.Errorf("Annotate() dropped the annotation: %q", got)
	}
	if !strings.Contains(got, annotationMarker) {
		t.Errorf("Annotate() missing marker: %q", got)
	}
}

func TestAnnotateIdempotent(t *testing.T) {
	r := NewRewriter("alice/widgets")

	once := r.Annotate("body text", "- line")
	twice := r.Annotate(once, "- line")
	if once != twice {
		t.Errorf("Annotate not idempotent: first %q, second %q", once, twice)
	}

	if n := strings.Count(twice, annotationMarker); n != 1 {
		t.Errorf("expected exactly one marker, found %d", n)
	}
}

func TestLinkChangesets(t *testing.T) {
	r := NewRewriter("alice/widgets")

	got := r.LinkChangesets("fixed in changeset a1b2c3d4e5f60718, thanks")
	want := "fixed in [changeset a1b2c3d4e5f6](https://bitbucket.org/alice/widgets/commits/a1b2c3d4e5f60718), thanks"
	if got != want {
		t.Errorf("LinkChangesets() = %q, want %q", got, want)
	}

	// Short hex words are not changesets.
	unchanged := "changeset abc is too short"
	if got := r.LinkChangesets(unchanged); got != unchanged {
		t.Errorf("LinkChangesets() rewrote short hash: %q", got)
	}
}

func TestUserLink(t *testing.T) {
	tests := []struct {
		name        string
		displayName string
		bbUser      string
		ghLogin     string
		want        string
	}{
		{
			name:        "mapped user gets both links",
			displayName: "Alice Smith",
			bbUser:      "asmith",
			ghLogin:     "alice",
			want:        "[Alice Smith](https://bitbucket.org/asmith) (@alice)",
		},
		{
			name:        "unmapped user gets bitbucket link only",
			displayName: "Bob",
			bbUser:      "bob",
			want:        "[Bob](https://bitbucket.org/bob)",
		},
		{
			name:        "anonymous user is plain text",
			displayName: "Anonymous",
			want:        "Anonymous",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserLink(tt.displayName, tt.bbUser, tt.ghLogin); got != tt.want {
				t.Errorf("UserLink() = %q, want %q", got, tt.want)
			}
		})
	}
}

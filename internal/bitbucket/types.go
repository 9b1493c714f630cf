package bitbucket

// User identifies a Bitbucket account on an issue or comment
type User struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// DisplayName returns the human-readable name for attribution,
// preferring first/last name over the login
func (u *User) DisplayName() string {
	if u == nil {
		return "Anonymous"
	}
	if u.FirstName != "" && u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	if u.Username != "" {
		return u.Username
	}
	return "Anonymous"
}

// Metadata holds the taxonomy fields of a Bitbucket issue
type Metadata struct {
	Kind      string `json:"kind"`
	Component string `json:"component"`
	Milestone string `json:"milestone"`
	Version   string `json:"version"`
}

// Issue represents one issue record from the Bitbucket 1.0 API.
// LocalID is the issue number within the repository; deleted issues
// leave gaps in the sequence.
type Issue struct {
	LocalID     int      `json:"local_id"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	ReportedBy  *User    `json:"reported_by"`
	Responsible *User    `json:"responsible"`
	Metadata    Metadata `json:"metadata"`
	CreatedOn   string   `json:"utc_created_on"`
	UpdatedOn   string   `json:"utc_last_updated"`
	CommentSum  int      `json:"comment_count"`
	Attachments int      `json:"attachment_count"`
}

// Comment represents one issue comment from the Bitbucket 1.0 API.
// Status-change events appear as comments with empty content.
type Comment struct {
	ID        int    `json:"comment_id"`
	Content   string `json:"content"`
	Author    *User  `json:"author_info"`
	CreatedOn string `json:"utc_created_on"`
}

// issuesPage is one page of the paginated issue list endpoint
type issuesPage struct {
	Count  int     `json:"count"`
	Issues []Issue `json:"issues"`
}

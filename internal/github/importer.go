package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/time/rate"
)

// mediaTypeImportPreview selects the issue-import preview API
const mediaTypeImportPreview = "application/vnd.github.golden-comet-preview+json"

const (
	// maxPayloadBytes is the documented per-issue limit of the import endpoint
	maxPayloadBytes = 1 << 20
	// defaultImportsPerMinute matches the documented import rate ceiling
	defaultImportsPerMinute = 8
	// defaultPollInterval is the delay between job status checks
	defaultPollInterval = 3 * time.Second
	// defaultMaxPollAttempts bounds how long one job is polled
	defaultMaxPollAttempts = 40
	// defaultMaxRetries bounds retries of transient POST/poll failures
	defaultMaxRetries = 4
	// defaultThrottleWait applies when a 429 carries no usable Retry-After
	defaultThrottleWait = 60 * time.Second
	// retryBaseDelay is the base delay between transient retries (exponential)
	retryBaseDelay = 2 * time.Second
)

// ErrPayloadRejected marks an import payload the endpoint will never
// accept unchanged (oversized or malformed). Never retried.
var ErrPayloadRejected = errors.New("import payload rejected")

// State represents the lifecycle of one import job
type State string

const (
	// StatePending indicates the payload has not been accepted yet
	StatePending State = "pending"
	// StateImporting indicates the job was accepted and is being polled
	StateImporting State = "importing"
	// StateDone indicates the issue exists on the destination
	StateDone State = "done"
	// StateFailed indicates the import failed and will not be retried
	StateFailed State = "failed"
)

// Terminal reports whether the state permits no further transitions
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// IssueImport is the issue portion of an import payload
type IssueImport struct {
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	CreatedAt string   `json:"created_at,omitempty"`
	ClosedAt  string   `json:"closed_at,omitempty"`
	UpdatedAt string   `json:"updated_at,omitempty"`
	Assignee  string   `json:"assignee,omitempty"`
	Milestone int      `json:"milestone,omitempty"`
	Closed    bool     `json:"closed"`
	Labels    []string `json:"labels,omitempty"`
}

// CommentImport is one comment in an import payload
type CommentImport struct {
	CreatedAt string `json:"created_at,omitempty"`
	Body      string `json:"body"`
}

// ImportRequest is one issue-plus-comments payload for the bulk import endpoint
type ImportRequest struct {
	Issue    IssueImport     `json:"issue"`
	Comments []CommentImport `json:"comments,omitempty"`
}

// importJob is the endpoint's representation of an asynchronous import
type importJob struct {
	ID       int64            `json:"id"`
	Status   string           `json:"status"`
	URL      string           `json:"url"`
	IssueURL string           `json:"issue_url"`
	Errors   []importJobError `json:"errors"`
}

// importJobError is one validation error reported by a failed job
type importJobError struct {
	Resource string `json:"resource"`
	Field    string `json:"field"`
	Location string `json:"location"`
	Code     string `json:"code"`
}

// Result records the terminal outcome of one submission
type Result struct {
	State       State
	IssueNumber int   // destination issue number, set when State is StateDone
	JobID       int64 // import job id, zero if the POST never succeeded
}

// Importer delivers mapped issues to the asynchronous bulk import
// endpoint, respecting the destination's request-rate ceiling. All
// submissions in the process share the Importer's rate budget.
type Importer struct {
	client          *Client
	limiter         *rate.Limiter
	pollInterval    time.Duration
	maxPollAttempts int
	maxRetries      int
	retryDelay      time.Duration
}

// NewImporter creates an Importer with the given rate ceiling.
// importsPerMinute <= 0 selects the documented default.
func NewImporter(client *Client, importsPerMinute int) *Importer {
	if importsPerMinute <= 0 {
		importsPerMinute = defaultImportsPerMinute
	}

	return &Importer{
		client: client,
		// Burst of one keeps submissions evenly spaced instead of
		// allowing a leading burst against the rolling window.
		limiter:         rate.NewLimiter(rate.Limit(float64(importsPerMinute)/60.0), 1),
		pollInterval:    defaultPollInterval,
		maxPollAttempts: defaultMaxPollAttempts,
		maxRetries:      defaultMaxRetries,
		retryDelay:      retryBaseDelay,
	}
}

// Submit delivers one payload and blocks until the import job reaches a
// terminal state. The returned Result always carries StateDone or
// StateFailed; err is non-nil exactly when the state is StateFailed.
func (im *Importer) Submit(ctx context.Context, request *ImportRequest) (*Result, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return &Result{State: StateFailed}, fmt.Errorf("%w: %v", ErrPayloadRejected, err)
	}
	if len(payload) > maxPayloadBytes {
		return &Result{State: StateFailed},
			fmt.Errorf("%w: payload is %d bytes, limit is %d", ErrPayloadRejected, len(payload), maxPayloadBytes)
	}

	// The only intentional blocking point besides network I/O itself.
	if err := im.limiter.Wait(ctx); err != nil {
		return &Result{State: StateFailed}, fmt.Errorf("rate limit wait canceled: %w", err)
	}

	job, err := im.post(ctx, payload)
	if err != nil {
		return &Result{State: StateFailed}, err
	}

	return im.poll(ctx, job)
}

// post submits the payload, retrying transient failures and waiting out
// destination-side throttling. Payload rejections are returned
// immediately and never retried.
func (im *Importer) post(ctx context.Context, payload []byte) (*importJob, error) {
	path := fmt.Sprintf("repos/%s/%s/import/issues", im.client.owner, im.client.repo)

	retries := 0
	for {
		slog.Debug("GitHub API: Submitting import", "repo", im.client.Repo(), "bytes", len(payload))
		var job importJob
		outcome, err := im.do(ctx, http.MethodPost, path, json.RawMessage(payload), &job)
		switch outcome {
		case outcomeOK:
			return &job, nil
		case outcomeRejected:
			return nil, fmt.Errorf("%w: %v", ErrPayloadRejected, err)
		case outcomeThrottled:
			// Expected contention, not a fault: does not consume the
			// bounded retry budget.
			if waitErr := im.sleep(ctx, im.throttleWait(err)); waitErr != nil {
				return nil, waitErr
			}
		case outcomeTransient:
			retries++
			if retries > im.maxRetries {
				return nil, fmt.Errorf("import POST failed after %d retries: %w", im.maxRetries, err)
			}
			delay := im.retryDelay * time.Duration(1<<(retries-1))
			slog.Warn("Import POST failed, retrying", "error", err, "wait", delay, "attempt", retries)
			if waitErr := im.sleep(ctx, delay); waitErr != nil {
				return nil, waitErr
			}
		}
	}
}

// poll watches the job until it reaches a terminal status or the
// polling budget runs out
func (im *Importer) poll(ctx context.Context, job *importJob) (*Result, error) {
	path := fmt.Sprintf("repos/%s/%s/import/issues/%d", im.client.owner, im.client.repo, job.ID)
	result := &Result{State: StateImporting, JobID: job.ID}

	retries := 0
	for attempt := 0; attempt < im.maxPollAttempts; attempt++ {
		if err := im.sleep(ctx, im.pollInterval); err != nil {
			result.State = StateFailed
			return result, err
		}

		slog.Debug("GitHub API: Polling import job", "repo", im.client.Repo(), "job", job.ID, "attempt", attempt+1)
		var status importJob
		outcome, err := im.do(ctx, http.MethodGet, path, nil, &status)
		switch outcome {
		case outcomeOK:
			switch status.Status {
			case "imported":
				result.State = StateDone
				result.IssueNumber = issueNumberFromURL(status.IssueURL)
				return result, nil
			case "failed":
				result.State = StateFailed
				return result, fmt.Errorf("import job %d failed: %s", job.ID, formatJobErrors(status.Errors))
			default:
				// pending or importing: keep polling.
			}
		case outcomeRejected:
			result.State = StateFailed
			return result, fmt.Errorf("import job %d status check rejected: %w", job.ID, err)
		case outcomeThrottled:
			if waitErr := im.sleep(ctx, im.throttleWait(err)); waitErr != nil {
				result.State = StateFailed
				return result, waitErr
			}
		case outcomeTransient:
			retries++
			if retries > im.maxRetries {
				result.State = StateFailed
				return result, fmt.Errorf("import job %d status check failed after %d retries: %w", job.ID, im.maxRetries, err)
			}
			slog.Warn("Import poll failed, retrying", "job", job.ID, "error", err, "attempt", retries)
		}
	}

	result.State = StateFailed
	return result, fmt.Errorf("import job %d did not complete within %d polls", job.ID, im.maxPollAttempts)
}

// requestOutcome classifies one HTTP exchange with the import endpoint
type requestOutcome int

const (
	outcomeOK requestOutcome = iota
	outcomeRejected
	outcomeThrottled
	outcomeTransient
)

// do performs one request against the import endpoint and classifies
// the outcome: success, permanent payload rejection, destination-side
// throttling, or a transient fault worth retrying.
func (im *Importer) do(ctx context.Context, method, path string, body any, v any) (requestOutcome, error) {
	req, err := im.client.client.NewRequest(method, path, body)
	if err != nil {
		return outcomeRejected, err
	}
	req.Header.Set("Accept", mediaTypeImportPreview)

	_, err = im.client.client.Do(ctx, req, v)
	if err == nil {
		return outcomeOK, nil
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return outcomeThrottled, err
	}
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return outcomeThrottled, err
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		code := respErr.Response.StatusCode
		switch {
		case code == http.StatusTooManyRequests:
			return outcomeThrottled, err
		case code >= 400 && code < 500:
			return outcomeRejected, err
		}
	}

	return outcomeTransient, err
}

// throttleWait extracts the server-requested backoff from a throttling
// error, falling back to a conservative default
func (im *Importer) throttleWait(err error) time.Duration {
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) && abuseErr.RetryAfter != nil {
		return *abuseErr.RetryAfter
	}
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		if wait := time.Until(rateErr.Rate.Reset.Time); wait > 0 {
			return wait
		}
	}
	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		if secs, parseErr := strconv.Atoi(respErr.Response.Header.Get("Retry-After")); parseErr == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultThrottleWait
}

// sleep waits for the given duration unless the context is canceled first
func (im *Importer) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// issueNumberFromURL extracts the issue number from an API issue URL
func issueNumberFromURL(issueURL string) int {
	idx := strings.LastIndex(issueURL, "/")
	if idx < 0 {
		return 0
	}
	number, err := strconv.Atoi(issueURL[idx+1:])
	if err != nil {
		return 0
	}
	return number
}

// formatJobErrors renders a failed job's error list for reporting
func formatJobErrors(errs []importJobError) string {
	if len(errs) == 0 {
		return "no error detail reported"
	}
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, fmt.Sprintf("%s.%s: %s", e.Resource, e.Field, e.Code))
	}
	return strings.Join(parts, "; ")
}

// Package migrate implements the extraction-transformation-submission
// pipeline that moves issues from Bitbucket to GitHub.
package migrate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/alan/issue-migrator/cmd"
	"github.com/alan/issue-migrator/internal/bitbucket"
	"github.com/alan/issue-migrator/internal/github"
)

// commentFetchConcurrency bounds parallel source-side comment fetches.
// Only fetches are parallel; submission stays strictly sequential in
// source-id order because destination issue numbers are assigned in
// completion order.
const commentFetchConcurrency = 4

// Source provides paginated read access to the source tracker
type Source interface {
	Repo() string
	Count(ctx context.Context) (int, error)
	FetchIssues(ctx context.Context) ([]bitbucket.Issue, error)
	FetchComments(ctx context.Context, issueID int) ([]bitbucket.Comment, error)
}

// Submitter delivers one mapped payload and confirms completion
type Submitter interface {
	Submit(ctx context.Context, request *github.ImportRequest) (*github.Result, error)
}

// MilestoneResolver resolves milestone titles to destination numbers
type MilestoneResolver interface {
	NumberFor(ctx context.Context, title string) (int, error)
}

// Driver orchestrates one migration run: fetch, map, submit, report
type Driver struct {
	source     Source
	submitter  Submitter
	milestones MilestoneResolver
	mapper     *Mapper
	options    cmd.Options
	out        io.Writer
}

// NewDriver wires a Driver from its collaborators. out receives dry-run
// payloads and the final summary.
func NewDriver(source Source, submitter Submitter, milestones MilestoneResolver, mapper *Mapper, options cmd.Options, out io.Writer) *Driver {
	return &Driver{
		source:     source,
		submitter:  submitter,
		milestones: milestones,
		mapper:     mapper,
		options:    options,
		out:        out,
	}
}

// fetchedComments holds the prefetch result for one issue
type fetchedComments struct {
	comments []bitbucket.Comment
	err      error
}

// Run executes the migration and returns the per-issue report. The
// returned error is non-nil only for run-level aborts (fatal source
// errors, cancellation); per-issue failures are recorded in the report
// and do not stop the run.
func (d *Driver) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	if count, err := d.source.Count(ctx); err != nil {
		// Progress hint only; pagination does not depend on it.
		slog.Warn("Could not fetch advertised issue count", "error", err)
	} else {
		slog.Info("Starting migration", "repo", d.source.Repo(), "advertised_count", count)
	}

	issues, err := d.source.FetchIssues(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to fetch source issues: %w", err)
	}

	prefetched, err := d.prefetchComments(ctx, issues)
	if err != nil {
		// A fatal source error during prefetch aborts before anything
		// was submitted.
		for _, issue := range issues {
			report.record(Outcome{SourceID: issue.LocalID, Kind: OutcomeSkipped, Detail: "run aborted"})
		}
		return report, err
	}

	aborted := false
	var abortErr error

	for i := range issues {
		issue := &issues[i]

		if aborted {
			report.record(Outcome{SourceID: issue.LocalID, Kind: OutcomeSkipped, Detail: "run aborted"})
			continue
		}
		if i < d.options.Skip {
			report.record(Outcome{SourceID: issue.LocalID, Kind: OutcomeSkipped, Detail: "before skip offset"})
			continue
		}
		if !d.options.WantsIssue(issue.LocalID) {
			report.record(Outcome{SourceID: issue.LocalID, Kind: OutcomeSkipped, Detail: "not in issue filter"})
			continue
		}

		if fetchErr := prefetched[i].err; fetchErr != nil {
			if bitbucket.IsFatal(fetchErr) {
				report.record(Outcome{SourceID: issue.LocalID, Kind: OutcomeSkipped, Detail: "run aborted"})
				aborted = true
				abortErr = fetchErr
				continue
			}
			report.record(Outcome{SourceID: issue.LocalID, Kind: OutcomeFailed, Detail: fetchErr.Error()})
			continue
		}

		outcome := d.processIssue(ctx, issue, prefetched[i].comments)
		report.record(outcome)

		if ctx.Err() != nil {
			aborted = true
			abortErr = ctx.Err()
		}
	}

	report.Summary(d.out)
	return report, abortErr
}

// prefetchComments fetches every issue's comments with bounded
// concurrency, buffering results by fetch position so downstream
// submission keeps the source order. Only fatal errors cancel the
// prefetch; per-issue errors are stored for the submission loop to
// report.
func (d *Driver) prefetchComments(ctx context.Context, issues []bitbucket.Issue) ([]fetchedComments, error) {
	results := make([]fetchedComments, len(issues))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(commentFetchConcurrency)

	for i := range issues {
		i := i
		g.Go(func() error {
			comments, err := d.source.FetchComments(gctx, issues[i].LocalID)
			results[i] = fetchedComments{comments: comments, err: err}
			if bitbucket.IsFatal(err) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to prefetch comments: %w", err)
	}
	return results, nil
}

// processIssue maps and submits one issue, returning its outcome
func (d *Driver) processIssue(ctx context.Context, issue *bitbucket.Issue, comments []bitbucket.Comment) Outcome {
	request, milestoneTitle := d.mapper.MapIssue(issue, comments)

	if milestoneTitle != "" && !d.options.DryRun {
		number, err := d.milestones.NumberFor(ctx, milestoneTitle)
		if err != nil {
			return Outcome{
				SourceID: issue.LocalID,
				Kind:     OutcomeFailed,
				Detail:   fmt.Sprintf("milestone %q: %v", milestoneTitle, err),
			}
		}
		request.Issue.Milestone = number
	}

	if d.options.DryRun {
		d.printPayload(issue.LocalID, request)
		return Outcome{SourceID: issue.LocalID, Kind: OutcomeSubmitted, Detail: "dry run"}
	}

	result, err := d.submitter.Submit(ctx, request)
	if err != nil {
		detail := err.Error()
		if errors.Is(err, github.ErrPayloadRejected) {
			slog.Error("Payload rejected", "issue", issue.LocalID, "error", err)
		} else {
			slog.Error("Submission failed", "issue", issue.LocalID, "error", err)
		}
		return Outcome{SourceID: issue.LocalID, Kind: OutcomeFailed, Detail: detail}
	}

	slog.Info("Imported issue",
		"source_issue", issue.LocalID,
		"destination_issue", result.IssueNumber,
		"comments", len(request.Comments))

	return Outcome{
		SourceID:    issue.LocalID,
		Kind:        OutcomeSubmitted,
		IssueNumber: result.IssueNumber,
	}
}

// printPayload writes the would-be import payload for a dry run
func (d *Driver) printPayload(sourceID int, request *github.ImportRequest) {
	fmt.Fprintf(d.out, "--- issue #%d ---\n", sourceID)
	data, err := json.MarshalIndent(request, "", "  ")
	if err != nil {
		fmt.Fprintf(d.out, "(unprintable payload: %v)\n", err)
		return
	}
	fmt.Fprintf(d.out, "%s\n", data)
}

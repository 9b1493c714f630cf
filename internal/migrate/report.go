package migrate

import (
	"fmt"
	"io"
)

// OutcomeKind classifies what happened to one source issue
type OutcomeKind string

const (
	// OutcomeSubmitted indicates the issue was delivered (or printed, in
	// a dry run)
	OutcomeSubmitted OutcomeKind = "submitted"
	// OutcomeSkipped indicates the issue was never attempted: before the
	// skip offset, outside the issue filter, or after a fatal abort
	OutcomeSkipped OutcomeKind = "skipped"
	// OutcomeFailed indicates the submission reached a terminal failure
	OutcomeFailed OutcomeKind = "failed"
)

// Outcome records the result for one source issue
type Outcome struct {
	SourceID    int
	Kind        OutcomeKind
	IssueNumber int    // destination issue number, set for real submissions
	Detail      string // skip reason or failure cause
}

// Report accumulates per-issue outcomes over one migration run
type Report struct {
	Outcomes []Outcome
}

// Submitted returns the number of issues delivered to the destination
func (r *Report) Submitted() int { return r.count(OutcomeSubmitted) }

// Skipped returns the number of issues never attempted
func (r *Report) Skipped() int { return r.count(OutcomeSkipped) }

// Failed returns the number of issues whose submission failed
func (r *Report) Failed() int { return r.count(OutcomeFailed) }

func (r *Report) count(kind OutcomeKind) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == kind {
			n++
		}
	}
	return n
}

func (r *Report) record(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
}

// Summary writes the final counts and any failure details to w
func (r *Report) Summary(w io.Writer) {
	fmt.Fprintf(w, "Migrated %d issues (%d skipped, %d failed)\n",
		r.Submitted(), r.Skipped(), r.Failed())

	for _, o := range r.Outcomes {
		if o.Kind == OutcomeFailed {
			fmt.Fprintf(w, "  issue #%d failed: %s\n", o.SourceID, o.Detail)
		}
	}
}

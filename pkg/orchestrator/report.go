package orchestrator

import (
	"fmt"
	"sync"

	"github.com/JavaZeroo/dev-scripts/pkg/download"
	"github.com/JavaZeroo/dev-scripts/pkg/model"
	"github.com/JavaZeroo/dev-scripts/pkg/progress"
)

// TaskFailure records why one task ended failed.
type TaskFailure struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Reason   string `json:"reason"`
}

// TaskSkip records why one task was deliberately skipped.
type TaskSkip struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// ListingFailure records a date whose listing could not be fetched. Listing
// failures are partial: the run continues with the remaining dates.
type ListingFailure struct {
	Date string `json:"date"`
	Err  string `json:"error"`
}

// Report aggregates the outcome of one orchestrator run. Workers record
// outcomes concurrently through the Record* methods; the exported fields are
// safe to read once Run has returned.
type Report struct {
	mu sync.Mutex

	Candidates       int              `json:"candidates"`        // descriptors discovered across all dates
	Matched          int              `json:"matched"`           // descriptors surviving the filter
	Completed        int              `json:"completed"`
	Failed           []TaskFailure    `json:"failed,omitempty"`
	Skipped          []TaskSkip       `json:"skipped,omitempty"`
	BytesTransferred int64            `json:"bytes_transferred"`
	ListingFailures  []ListingFailure `json:"listing_failures,omitempty"`
}

// RecordOutcome folds one terminal fetch outcome into the report.
func (r *Report) RecordOutcome(task *model.DownloadTask, outcome download.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.BytesTransferred += outcome.Bytes
	switch outcome.Status {
	case model.StatusCompleted:
		r.Completed++
	case model.StatusSkipped:
		r.Skipped = append(r.Skipped, TaskSkip{Filename: task.Descriptor.Filename, Reason: outcome.Reason})
	default:
		r.Failed = append(r.Failed, TaskFailure{
			Filename: task.Descriptor.Filename,
			URL:      task.Descriptor.URL.String(),
			Reason:   outcome.Reason,
		})
	}
}

// RecordListingFailure notes a date whose listing was unavailable.
func (r *Report) RecordListingFailure(date string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ListingFailures = append(r.ListingFailures, ListingFailure{Date: date, Err: err.Error()})
}

// HasFailures reports whether any task or listing failed; the CLI maps this
// to a non-zero exit code.
func (r *Report) HasFailures() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Failed) > 0 || len(r.ListingFailures) > 0
}

// Summary renders a one-line human summary.
func (r *Report) Summary() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fmt.Sprintf("%d candidates, %d matched, %d completed, %d failed, %d skipped, %s transferred",
		r.Candidates, r.Matched, r.Completed, len(r.Failed), len(r.Skipped),
		progress.FormatBytes(r.BytesTransferred))
}

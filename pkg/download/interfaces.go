package download

import (
	"context"

	"github.com/JavaZeroo/dev-scripts/pkg/model"
	"github.com/JavaZeroo/dev-scripts/pkg/progress"
)

// Fetcher performs one partial-aware transfer per task. Implementations
// mutate only the task they were handed and report byte progress to the sink.
type Fetcher interface {
	// Fetch transfers the task's artifact to its destination, resuming from
	// any existing local bytes. The returned outcome mirrors the task's
	// terminal state.
	Fetch(ctx context.Context, task *model.DownloadTask, sink progress.Sink) Outcome
}

// Outcome is the terminal result of one fetch call.
type Outcome struct {
	Status model.Status // completed, failed or skipped
	Reason string       // set unless Status is completed
	Bytes  int64        // bytes written to disk during this call
}

package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/JavaZeroo/dev-scripts/internal/logger"
	"github.com/JavaZeroo/dev-scripts/pkg/daterange"
	"github.com/JavaZeroo/dev-scripts/pkg/download"
	"github.com/JavaZeroo/dev-scripts/pkg/hook"
	"github.com/JavaZeroo/dev-scripts/pkg/model"
	"github.com/JavaZeroo/dev-scripts/pkg/progress"
)

// Run executes the full pipeline for one request: resolve dates, list and
// filter candidates, build the complete task table, then fetch. A listing
// failure for one date is recorded and the run continues; only an invalid
// range or missing wiring aborts the run. The semaphore bounds every
// simultaneous network call, listing and fetch alike.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Report, error) {
	if o.Index == nil {
		return nil, fmt.Errorf("index client is not configured")
	}
	if o.DL == nil && !opts.DryRun {
		return nil, fmt.Errorf("download manager is not configured")
	}

	today := opts.Today
	if today.IsZero() {
		today = time.Now()
	}
	rng, err := daterange.Resolve(opts.Range, today)
	if err != nil {
		return nil, err
	}

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	sink := opts.Sink
	if sink == nil {
		sink = progress.Discard
	}

	report := &Report{}
	sem := semaphore.NewWeighted(int64(concurrency))

	listed := o.listAll(ctx, sem, rng.Dates(), report)
	tasks := buildTasks(listed, opts, report)
	o.prefetchSizes(ctx, sem, tasks)

	if opts.DryRun {
		for _, t := range tasks {
			t.Skip(model.ReasonDryRun)
			report.RecordOutcome(t, download.Outcome{Status: model.StatusSkipped, Reason: model.ReasonDryRun})
			emit(o.Hooks, Event{Phase: "planning", ID: t.ID.String(), Msg: describeTask(t)})
		}
		emit(o.Hooks, Event{Phase: "done", Msg: "dry-run"})
		return report, nil
	}

	o.fetchAll(ctx, sem, tasks, sink, opts, report)
	emit(o.Hooks, Event{Phase: "done"})
	return report, nil
}

// listAll fetches the listings for every date, bounded by the shared
// semaphore. Results come back indexed by date so later stages see dates in
// ascending order regardless of completion order.
func (o *Orchestrator) listAll(ctx context.Context, sem *semaphore.Weighted, dates []time.Time, report *Report) [][]*model.ArtifactDescriptor {
	listed := make([][]*model.ArtifactDescriptor, len(dates))

	var wg sync.WaitGroup
	for i, date := range dates {
		wg.Add(1)
		go func(i int, date time.Time) {
			defer wg.Done()
			dateStr := date.Format(daterange.DateFormat)
			if err := sem.Acquire(ctx, 1); err != nil {
				report.RecordListingFailure(dateStr, err)
				return
			}
			defer sem.Release(1)

			emit(o.Hooks, Event{Phase: "listing", ID: dateStr})
			descs, err := o.Index.List(ctx, date)
			if err != nil {
				logger.Warn("listing failed, continuing with remaining dates", logger.Fields{
					"date": dateStr, "err": err,
				})
				report.RecordListingFailure(dateStr, err)
				return
			}
			listed[i] = descs
		}(i, date)
	}
	wg.Wait()
	return listed
}

// buildTasks filters the listed descriptors and freezes the task table.
// Descriptor URLs are unique across the run, so no two tasks ever share a
// destination path.
func buildTasks(listed [][]*model.ArtifactDescriptor, opts Options, report *Report) []*model.DownloadTask {
	var tasks []*model.DownloadTask
	seen := make(map[string]bool)
	for _, descs := range listed {
		report.Candidates += len(descs)
		for _, desc := range model.Filter(descs, opts.Predicate) {
			key := desc.URL.String()
			if seen[key] {
				continue
			}
			seen[key] = true
			dest := filepath.Join(opts.Dir, desc.PublishedDate, desc.Build, desc.Filename)
			tasks = append(tasks, model.NewTask(desc, dest))
		}
	}
	report.Matched = len(tasks)
	return tasks
}

// prefetchSizes resolves unknown remote sizes before any fetch starts, so
// the task table is complete (and the dry-run totals accurate) up front.
func (o *Orchestrator) prefetchSizes(ctx context.Context, sem *semaphore.Weighted, tasks []*model.DownloadTask) {
	var wg sync.WaitGroup
	for _, t := range tasks {
		if t.Descriptor.SizeKnown() {
			continue
		}
		wg.Add(1)
		go func(t *model.DownloadTask) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer sem.Release(1)
			t.Descriptor.Size = o.Index.RemoteSize(ctx, t.Descriptor.URL.String())
		}(t)
	}
	wg.Wait()
}

func (o *Orchestrator) fetchAll(ctx context.Context, sem *semaphore.Weighted, tasks []*model.DownloadTask, sink progress.Sink, opts Options, report *Report) {
	var wg sync.WaitGroup
	for _, t := range tasks {
		if ctx.Err() != nil {
			// Cancellation stops dispatch immediately; undispatched tasks
			// still get a recorded reason.
			t.Fail(model.ReasonCancelled)
			report.RecordOutcome(t, download.Outcome{Status: model.StatusFailed, Reason: model.ReasonCancelled})
			continue
		}
		wg.Add(1)
		go func(t *model.DownloadTask) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				t.Fail(model.ReasonCancelled)
				report.RecordOutcome(t, download.Outcome{Status: model.StatusFailed, Reason: model.ReasonCancelled})
				return
			}
			defer sem.Release(1)

			emit(o.Hooks, Event{Phase: "downloading", ID: t.ID.String(), Msg: t.Descriptor.Filename})
			outcome := o.DL.Fetch(ctx, t, sink)
			report.RecordOutcome(t, outcome)

			if outcome.Status == model.StatusCompleted {
				o.runHook(t, opts.HookPath)
			}
		}(t)
	}
	wg.Wait()
}

// runHook executes the optional post-download script. Hook failures are
// logged, never propagated: the artifact is already safely on disk.
func (o *Orchestrator) runHook(t *model.DownloadTask, hookPath string) {
	if o.Hook == nil || hookPath == "" {
		return
	}
	hctx := &hook.Context{
		Filename: t.Descriptor.Filename,
		Path:     t.Dest,
		Date:     t.Descriptor.PublishedDate,
		Build:    t.Descriptor.Build,
	}
	if err := o.Hook.ExecuteHook(hookPath, hctx); err != nil {
		logger.Warn("post-download hook failed", logger.Fields{
			"file": t.Descriptor.Filename, "err": err,
		})
	}
}

func describeTask(t *model.DownloadTask) string {
	if t.Descriptor.SizeKnown() {
		return fmt.Sprintf("%s/%s -> %s (%d bytes)",
			t.Descriptor.PublishedDate, t.Descriptor.Build, t.Descriptor.Filename, t.Descriptor.Size)
	}
	return fmt.Sprintf("%s/%s -> %s (size unknown)",
		t.Descriptor.PublishedDate, t.Descriptor.Build, t.Descriptor.Filename)
}

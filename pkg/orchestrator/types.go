//go:generate mockgen -destination=./mocks/orchestrator.go -package=mocks . IndexLister,Fetcher

// Package orchestrator coordinates the download pipeline: resolve the date
// range, list and filter candidates, then fan the resulting tasks out over a
// bounded worker pool.
package orchestrator

import (
	"context"
	"time"

	"github.com/JavaZeroo/dev-scripts/pkg/daterange"
	"github.com/JavaZeroo/dev-scripts/pkg/download"
	"github.com/JavaZeroo/dev-scripts/pkg/hook"
	"github.com/JavaZeroo/dev-scripts/pkg/model"
	"github.com/JavaZeroo/dev-scripts/pkg/progress"
)

// IndexLister is the subset of the index client used by the orchestrator.
type IndexLister interface {
	List(ctx context.Context, date time.Time) ([]*model.ArtifactDescriptor, error)
	RemoteSize(ctx context.Context, rawURL string) int64
}

// Fetcher performs the per-task transfers.
type Fetcher interface {
	Fetch(ctx context.Context, task *model.DownloadTask, sink progress.Sink) download.Outcome
}

// Orchestrator ties the index client, the download manager and the optional
// post-download hook together for one run.
type Orchestrator struct {
	Index IndexLister
	DL    Fetcher
	Hook  hook.Executor // optional; nil disables hooks
	Hooks Hooks         // progress/event notifications
}

// Event represents a simple pipeline notification.
type Event struct {
	Phase string // listing|planning|downloading|done
	ID    string // task or date identifier
	Msg   string
}

// Hooks carries callbacks for pipeline events.
type Hooks struct {
	OnEvent func(Event)
}

// Options control one orchestrator run.
type Options struct {
	Range       daterange.Spec
	Today       time.Time // injected clock for shortcut ranges; zero means time.Now()
	Predicate   model.Predicate
	Dir         string // destination directory
	Concurrency int    // bound on simultaneous network calls
	DryRun      bool
	Sink        progress.Sink // per-task byte progress; nil discards
	HookPath    string        // optional Tengo script run per completed task
}

func emit(h Hooks, e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}

package orchestrator

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/JavaZeroo/dev-scripts/pkg/daterange"
	"github.com/JavaZeroo/dev-scripts/pkg/download"
	"github.com/JavaZeroo/dev-scripts/pkg/errors"
	"github.com/JavaZeroo/dev-scripts/pkg/model"
	"github.com/JavaZeroo/dev-scripts/pkg/orchestrator/mocks"
	"github.com/JavaZeroo/dev-scripts/pkg/progress"
)

var today = time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)

func descriptorFor(date string, n int) *model.ArtifactDescriptor {
	u, _ := url.Parse(fmt.Sprintf("https://repo.example.com/%s/file%d-cp310.whl", date, n))
	return &model.ArtifactDescriptor{
		Filename:      fmt.Sprintf("file%d-cp310.whl", n),
		URL:           u,
		PublishedDate: date,
		Build:         "master_" + date + "_newest",
		PythonTag:     "cp310",
		Size:          100,
	}
}

func baseOptions() Options {
	return Options{
		Range:       daterange.Spec{Last: "5days"},
		Today:       today,
		Dir:         "/tmp/unused",
		Concurrency: 2,
	}
}

func TestRun_InvalidRange(t *testing.T) {
	ctrl := gomock.NewController(t)
	orch := &Orchestrator{Index: mocks.NewMockIndexLister(ctrl), DL: mocks.NewMockFetcher(ctrl)}

	opts := baseOptions()
	opts.Range = daterange.Spec{Last: "sometime"}

	_, err := orch.Run(context.Background(), opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidRange)
}

func TestRun_MissingWiring(t *testing.T) {
	_, err := (&Orchestrator{}).Run(context.Background(), baseOptions())
	require.Error(t, err)

	ctrl := gomock.NewController(t)
	orch := &Orchestrator{Index: mocks.NewMockIndexLister(ctrl)}
	_, err = orch.Run(context.Background(), baseOptions())
	require.Error(t, err)
}

func TestRun_OneBadDateDoesNotAbortTheRest(t *testing.T) {
	ctrl := gomock.NewController(t)
	idx := mocks.NewMockIndexLister(ctrl)
	dl := mocks.NewMockFetcher(ctrl)

	badDate := "20250103"
	idx.EXPECT().List(gomock.Any(), gomock.Any()).Times(5).DoAndReturn(
		func(_ context.Context, date time.Time) ([]*model.ArtifactDescriptor, error) {
			d := date.Format(daterange.DateFormat)
			if d == badDate {
				return nil, errors.ErrIndexUnavailable
			}
			return []*model.ArtifactDescriptor{descriptorFor(d, 1)}, nil
		})
	dl.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).Times(4).DoAndReturn(
		func(_ context.Context, task *model.DownloadTask, _ progress.Sink) download.Outcome {
			task.Complete()
			return download.Outcome{Status: model.StatusCompleted, Bytes: 100}
		})

	orch := &Orchestrator{Index: idx, DL: dl}
	report, err := orch.Run(context.Background(), baseOptions())
	require.NoError(t, err)

	assert.Equal(t, 4, report.Completed)
	assert.Equal(t, 4, report.Matched)
	require.Len(t, report.ListingFailures, 1)
	assert.Equal(t, badDate, report.ListingFailures[0].Date)
	assert.True(t, report.HasFailures())
	assert.Equal(t, int64(400), report.BytesTransferred)
}

func TestRun_DryRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	idx := mocks.NewMockIndexLister(ctrl)
	dl := mocks.NewMockFetcher(ctrl) // Fetch must never be called

	idx.EXPECT().List(gomock.Any(), gomock.Any()).Times(1).DoAndReturn(
		func(_ context.Context, date time.Time) ([]*model.ArtifactDescriptor, error) {
			d := date.Format(daterange.DateFormat)
			return []*model.ArtifactDescriptor{
				descriptorFor(d, 1), descriptorFor(d, 2), descriptorFor(d, 3),
			}, nil
		})

	orch := &Orchestrator{Index: idx, DL: dl}
	opts := baseOptions()
	opts.Range = daterange.Spec{Last: "1day"}
	opts.DryRun = true

	report, err := orch.Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Candidates)
	assert.Equal(t, 3, report.Matched)
	require.Len(t, report.Skipped, 3)
	for _, s := range report.Skipped {
		assert.Equal(t, model.ReasonDryRun, s.Reason)
	}
	assert.Zero(t, report.Completed)
	assert.Zero(t, report.BytesTransferred)
	assert.False(t, report.HasFailures())
}

func TestRun_FilterAppliedBeforeTasks(t *testing.T) {
	ctrl := gomock.NewController(t)
	idx := mocks.NewMockIndexLister(ctrl)

	idx.EXPECT().List(gomock.Any(), gomock.Any()).Times(1).DoAndReturn(
		func(_ context.Context, date time.Time) ([]*model.ArtifactDescriptor, error) {
			d := date.Format(daterange.DateFormat)
			cp310 := descriptorFor(d, 1)
			cp311 := descriptorFor(d, 2)
			cp311.PythonTag = "cp311"
			return []*model.ArtifactDescriptor{cp310, cp311}, nil
		})

	orch := &Orchestrator{Index: idx}
	opts := baseOptions()
	opts.Range = daterange.Spec{Last: "1day"}
	opts.DryRun = true
	opts.Predicate = model.Predicate{PythonTag: "cp311"}

	report, err := orch.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Candidates)
	assert.Equal(t, 1, report.Matched)
}

func TestRun_DuplicateURLsCollapseToOneTask(t *testing.T) {
	ctrl := gomock.NewController(t)
	idx := mocks.NewMockIndexLister(ctrl)

	shared := descriptorFor("20250104", 1)
	idx.EXPECT().List(gomock.Any(), gomock.Any()).Times(2).Return(
		[]*model.ArtifactDescriptor{shared}, nil)

	orch := &Orchestrator{Index: idx}
	opts := baseOptions()
	opts.Range = daterange.Spec{Start: "20250104", End: "20250105"}
	opts.DryRun = true

	report, err := orch.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Candidates)
	assert.Equal(t, 1, report.Matched)
}

func TestRun_SizePrefetchForUnknownSizes(t *testing.T) {
	ctrl := gomock.NewController(t)
	idx := mocks.NewMockIndexLister(ctrl)

	desc := descriptorFor("20250105", 1)
	desc.Size = model.SizeUnknown
	idx.EXPECT().List(gomock.Any(), gomock.Any()).Times(1).Return(
		[]*model.ArtifactDescriptor{desc}, nil)
	idx.EXPECT().RemoteSize(gomock.Any(), desc.URL.String()).Times(1).Return(int64(4096))

	orch := &Orchestrator{Index: idx}
	opts := baseOptions()
	opts.Range = daterange.Spec{Last: "1day"}
	opts.DryRun = true

	_, err := orch.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, int64(4096), desc.Size)
}

func TestRun_ConcurrencyBound(t *testing.T) {
	ctrl := gomock.NewController(t)
	idx := mocks.NewMockIndexLister(ctrl)
	dl := mocks.NewMockFetcher(ctrl)

	descs := make([]*model.ArtifactDescriptor, 10)
	for i := range descs {
		descs[i] = descriptorFor("20250105", i)
	}
	idx.EXPECT().List(gomock.Any(), gomock.Any()).Times(1).Return(descs, nil)

	var inFlight, maxInFlight atomic.Int32
	release := make(chan struct{})
	dl.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).Times(10).DoAndReturn(
		func(_ context.Context, task *model.DownloadTask, _ progress.Sink) download.Outcome {
			cur := inFlight.Add(1)
			for {
				prev := maxInFlight.Load()
				if cur <= prev || maxInFlight.CompareAndSwap(prev, cur) {
					break
				}
			}
			<-release
			inFlight.Add(-1)
			task.Complete()
			return download.Outcome{Status: model.StatusCompleted}
		})

	orch := &Orchestrator{Index: idx, DL: dl}
	opts := baseOptions()
	opts.Range = daterange.Spec{Last: "1day"}
	opts.Concurrency = 2

	var wg sync.WaitGroup
	wg.Add(1)
	var report *Report
	var runErr error
	go func() {
		defer wg.Done()
		report, runErr = orch.Run(context.Background(), opts)
	}()

	// Let the pool saturate, then let everyone through.
	time.Sleep(200 * time.Millisecond)
	close(release)
	wg.Wait()

	require.NoError(t, runErr)
	assert.Equal(t, 10, report.Completed)
	assert.LessOrEqual(t, maxInFlight.Load(), int32(2), "no more than Concurrency fetches in flight")
}

func TestRun_CancelledBeforeDispatchRecordsReasons(t *testing.T) {
	ctrl := gomock.NewController(t)
	idx := mocks.NewMockIndexLister(ctrl)
	dl := mocks.NewMockFetcher(ctrl)

	idx.EXPECT().List(gomock.Any(), gomock.Any()).AnyTimes().Return(
		[]*model.ArtifactDescriptor{descriptorFor("20250105", 1)}, nil)

	ctx, cancel := context.WithCancel(context.Background())

	orch := &Orchestrator{Index: idx, DL: dl}
	opts := baseOptions()
	opts.Range = daterange.Spec{Last: "1day"}

	cancel()
	report, err := orch.Run(ctx, opts)
	require.NoError(t, err)

	for _, f := range report.Failed {
		assert.Equal(t, model.ReasonCancelled, f.Reason)
	}
	assert.Zero(t, report.Completed)
}

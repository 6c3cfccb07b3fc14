package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// ReporterOptions configure the console reporter.
type ReporterOptions struct {
	// TotalBytes is the known total size of all tasks, 0 when unknown.
	TotalBytes int64

	// TotalTasks is the number of tasks in the run.
	TotalTasks int

	// Output is where progress lines are written. Default: os.Stderr.
	Output io.Writer

	// UpdateInterval is how often to redraw. Default: 500ms.
	UpdateInterval time.Duration
}

// Reporter renders aggregate download progress to a terminal. It implements
// Sink; fetch workers publish events and a background loop redraws.
type Reporter struct {
	opts ReporterOptions

	completedBytes atomic.Int64
	doneTasks      atomic.Int32

	mu         sync.Mutex
	startTime  time.Time
	lastUpdate time.Time
	lastBytes  int64
	stopCh     chan struct{}
	stopped    bool
}

// NewReporter creates a console reporter.
func NewReporter(opts ReporterOptions) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.UpdateInterval == 0 {
		opts.UpdateInterval = 500 * time.Millisecond
	}
	return &Reporter{
		opts:   opts,
		stopCh: make(chan struct{}),
	}
}

// Publish implements Sink.
func (r *Reporter) Publish(e Event) {
	if e.Delta > 0 {
		r.completedBytes.Add(e.Delta)
	}
}

// TaskDone marks one task as finished, whatever its outcome.
func (r *Reporter) TaskDone() {
	r.doneTasks.Add(1)
}

// Start begins the redraw loop.
func (r *Reporter) Start() {
	r.startTime = time.Now()
	r.lastUpdate = r.startTime
	go r.updateLoop()
}

// Stop halts the redraw loop and prints a final summary line.
func (r *Reporter) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	close(r.stopCh)
}

func (r *Reporter) updateLoop() {
	ticker := time.NewTicker(r.opts.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			r.printFinal()
			return
		case <-ticker.C:
			r.printProgress()
		}
	}
}

func (r *Reporter) printProgress() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	completed := r.completedBytes.Load()

	elapsed := now.Sub(r.lastUpdate).Seconds()
	if elapsed < 0.1 {
		elapsed = 0.1
	}
	speed := float64(completed-r.lastBytes) / elapsed
	r.lastUpdate = now
	r.lastBytes = completed

	if r.opts.TotalBytes > 0 {
		percent := float64(completed) / float64(r.opts.TotalBytes) * 100
		fmt.Fprintf(r.opts.Output, "\r%3.1f%% | %s / %s | %s/s%s    ",
			percent,
			FormatBytes(completed),
			FormatBytes(r.opts.TotalBytes),
			FormatBytes(int64(speed)),
			r.taskSegment(),
		)
		return
	}
	fmt.Fprintf(r.opts.Output, "\r%s | %s/s%s    ",
		FormatBytes(completed),
		FormatBytes(int64(speed)),
		r.taskSegment(),
	)
}

func (r *Reporter) taskSegment() string {
	if r.opts.TotalTasks == 0 {
		return ""
	}
	return fmt.Sprintf(" | tasks %d/%d", r.doneTasks.Load(), r.opts.TotalTasks)
}

func (r *Reporter) printFinal() {
	completed := r.completedBytes.Load()
	duration := time.Since(r.startTime)
	avg := float64(completed) / duration.Seconds()
	fmt.Fprintf(r.opts.Output, "\r%s in %s (%s/s)%s\n",
		FormatBytes(completed),
		duration.Round(time.Second),
		FormatBytes(int64(avg)),
		r.taskSegment(),
	)
}

// FormatBytes formats a byte count as a human-readable string.
func FormatBytes(b int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
		tb = gb * 1024
	)

	switch {
	case b >= tb:
		return fmt.Sprintf("%.2f TB", float64(b)/float64(tb))
	case b >= gb:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

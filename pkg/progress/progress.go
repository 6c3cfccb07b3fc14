// Package progress defines the byte-progress event contract between fetch
// workers and whatever renders progress, plus a simple console reporter.
package progress

// TotalUnknown marks an event whose task has no known total size.
const TotalUnknown int64 = -1

// Event is one byte-progress notification for a task. Per-task byte totals
// derived from Delta are monotonically non-decreasing.
type Event struct {
	TaskID string
	Delta  int64
	Total  int64 // TotalUnknown when the remote size is not known
}

// Sink consumes progress events. Implementations must be safe for use from
// multiple goroutines.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Publish calls f(e).
func (f SinkFunc) Publish(e Event) { f(e) }

// Discard is a Sink that drops every event.
var Discard Sink = SinkFunc(func(Event) {})

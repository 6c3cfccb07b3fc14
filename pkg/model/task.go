package model

import (
	"sync"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a download task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusResumed    Status = "resumed"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
)

// Terminal reports whether a task in this status will never change again.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusSkipped
}

// Reasons recorded on tasks that end failed or skipped. Every non-completed
// task carries one; silent failures are not allowed.
const (
	ReasonTransportError  = "transport_error"
	ReasonSizeMismatch    = "size_mismatch"
	ReasonCancelled       = "cancelled"
	ReasonDryRun          = "dry_run"
	ReasonAlreadyComplete = "already_complete"
)

// DownloadTask binds one descriptor to a local destination and tracks its
// transfer state. Each task is mutated by at most one worker at a time; the
// internal mutex only guards against concurrent readers (progress snapshots).
type DownloadTask struct {
	ID         uuid.UUID
	Descriptor *ArtifactDescriptor
	Dest       string

	mu           sync.Mutex
	status       Status
	reason       string
	bytesWritten int64
}

// NewTask creates a pending task for the descriptor and destination path.
func NewTask(desc *ArtifactDescriptor, dest string) *DownloadTask {
	return &DownloadTask{
		ID:         uuid.New(),
		Descriptor: desc,
		Dest:       dest,
		status:     StatusPending,
	}
}

// Status returns the current lifecycle state.
func (t *DownloadTask) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Reason returns the failure or skip reason, empty otherwise.
func (t *DownloadTask) Reason() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reason
}

// BytesWritten returns the bytes written to disk on behalf of this task.
func (t *DownloadTask) BytesWritten() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bytesWritten
}

// AddBytes records dt more bytes written for this task.
func (t *DownloadTask) AddBytes(dt int64) {
	t.mu.Lock()
	t.bytesWritten += dt
	t.mu.Unlock()
}

// transition moves the task forward. Terminal states never change.
func (t *DownloadTask) transition(s Status, reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.Terminal() {
		return
	}
	t.status = s
	t.reason = reason
}

// Start marks the task in progress; resumed indicates the fetch continues
// from existing local bytes.
func (t *DownloadTask) Start(resumed bool) {
	if resumed {
		t.transition(StatusResumed, "")
	} else {
		t.transition(StatusInProgress, "")
	}
}

// Complete marks the task successfully finished.
func (t *DownloadTask) Complete() {
	t.transition(StatusCompleted, "")
}

// Fail marks the task failed with the given reason.
func (t *DownloadTask) Fail(reason string) {
	t.transition(StatusFailed, reason)
}

// Skip marks the task deliberately skipped with the given reason.
func (t *DownloadTask) Skip(reason string) {
	t.transition(StatusSkipped, reason)
}

// Package download implements the resumable HTTP fetcher. Transfer state
// lives entirely in the filesystem: the current length of the destination
// file is the resume offset, so an interrupted run picks up where it left
// off without any persisted task state.
package download

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/JavaZeroo/dev-scripts/internal/logger"
	"github.com/JavaZeroo/dev-scripts/pkg/errors"
	"github.com/JavaZeroo/dev-scripts/pkg/fsutil"
	"github.com/JavaZeroo/dev-scripts/pkg/model"
	"github.com/JavaZeroo/dev-scripts/pkg/progress"
)

const (
	defaultUserAgent = "dev-scripts/1.0"
	defaultChunkSize = 32 * 1024
)

// Options configure the download manager.
type Options struct {
	UserAgent     string
	Retries       int           // fetch attempts per task; each retry resumes
	ChunkSize     int           // stream buffer size in bytes
	HeaderTimeout time.Duration // time allowed for response headers
	Insecure      bool          // skip TLS verification
}

// ManagerImpl is the HTTP-based resumable fetcher. A failed or interrupted
// transfer always leaves its partial file on disk for a later resume.
type ManagerImpl struct {
	client    *http.Client
	userAgent string
	chunkSize int
	retries   int
}

// NewManager creates a download manager.
func NewManager(opts Options) *ManagerImpl {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaultChunkSize
	}
	if opts.Retries < 1 {
		opts.Retries = 1
	}

	transport := &http.Transport{
		ResponseHeaderTimeout: opts.HeaderTimeout,
	}
	if opts.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via --insecure
	}

	// No client-level timeout: it would cap the whole body read and kill
	// long transfers. Cancellation comes from the context.
	return &ManagerImpl{
		client:    &http.Client{Transport: transport},
		userAgent: opts.UserAgent,
		chunkSize: opts.ChunkSize,
		retries:   opts.Retries,
	}
}

// Fetch implements Fetcher. Transport failures are retried with backoff,
// each attempt resuming from whatever made it to disk.
func (m *ManagerImpl) Fetch(ctx context.Context, task *model.DownloadTask, sink progress.Sink) Outcome {
	if sink == nil {
		sink = progress.Discard
	}

	var written int64
	var lastErr error
	for attempt := 1; attempt <= m.retries; attempt++ {
		outcome, err := m.fetchOnce(ctx, task, sink, &written)
		if err == nil {
			return outcome
		}
		lastErr = err
		if ctx.Err() != nil {
			task.Fail(model.ReasonCancelled)
			return Outcome{Status: model.StatusFailed, Reason: model.ReasonCancelled, Bytes: written}
		}
		if attempt < m.retries {
			logger.Warnf("fetch %s failed (attempt %d/%d): %v", task.Descriptor.Filename, attempt, m.retries, err)
			if !sleepBackoff(ctx, attempt) {
				task.Fail(model.ReasonCancelled)
				return Outcome{Status: model.StatusFailed, Reason: model.ReasonCancelled, Bytes: written}
			}
		}
	}

	logger.Error("fetch failed", logger.Fields{"file": task.Descriptor.Filename, "err": lastErr})
	task.Fail(model.ReasonTransportError)
	return Outcome{Status: model.StatusFailed, Reason: model.ReasonTransportError, Bytes: written}
}

// fetchOnce runs one transfer attempt. A nil error means the outcome is
// terminal; a non-nil error asks the caller to retry.
func (m *ManagerImpl) fetchOnce(ctx context.Context, task *model.DownloadTask, sink progress.Sink, written *int64) (Outcome, error) {
	desc := task.Descriptor

	have := localSize(task.Dest)

	// Already complete: no network call at all. When the remote size is
	// unknown we conservatively treat any existing file as complete rather
	// than clobbering it.
	if desc.SizeKnown() && have >= desc.Size {
		task.Skip(model.ReasonAlreadyComplete)
		return Outcome{Status: model.StatusSkipped, Reason: model.ReasonAlreadyComplete, Bytes: *written}, nil
	}
	if !desc.SizeKnown() && have > 0 {
		task.Skip(model.ReasonAlreadyComplete)
		return Outcome{Status: model.StatusSkipped, Reason: model.ReasonAlreadyComplete, Bytes: *written}, nil
	}

	resp, err := m.doRequest(ctx, desc.URL.String(), have)
	if err != nil {
		return Outcome{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	resumed := have > 0 && resp.StatusCode == http.StatusPartialContent
	if have > 0 && !resumed {
		// Server ignored the Range header and is sending the whole file.
		// Resuming on top of that would corrupt the artifact, so start over.
		logger.Warnf("server does not support ranges, restarting %s from zero", desc.Filename)
		have = 0
	}
	task.Start(resumed)

	n, err := m.writeBody(ctx, task, resp.Body, have, sink)
	*written += n
	if err != nil {
		if ctx.Err() != nil {
			task.Fail(model.ReasonCancelled)
			return Outcome{Status: model.StatusFailed, Reason: model.ReasonCancelled, Bytes: *written}, nil
		}
		return Outcome{}, err
	}

	if desc.SizeKnown() {
		if final := localSize(task.Dest); final != desc.Size {
			logger.Error("size mismatch", logger.Fields{
				"file": desc.Filename, "want": desc.Size, "got": final,
			})
			task.Fail(model.ReasonSizeMismatch)
			return Outcome{Status: model.StatusFailed, Reason: model.ReasonSizeMismatch, Bytes: *written}, nil
		}
	}

	task.Complete()
	logger.Debug("fetch complete", logger.Fields{"file": desc.Filename, "bytes": *written})
	return Outcome{Status: model.StatusCompleted, Bytes: *written}, nil
}

func (m *ManagerImpl) doRequest(ctx context.Context, url string, offset int64) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", m.userAgent)
	req.Header.Set("Accept-Encoding", "identity")
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request failed")
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d: %w", resp.StatusCode, errors.ErrDownloadFailed)
	}
	return resp, nil
}

// writeBody streams the response into the destination starting at offset,
// emitting a progress event and checking for cancellation after every chunk.
func (m *ManagerImpl) writeBody(ctx context.Context, task *model.DownloadTask, body io.Reader, offset int64, sink progress.Sink) (int64, error) {
	if err := fsutil.EnsureFileDir(task.Dest); err != nil {
		return 0, errors.Wrap(err, "could not create destination dir")
	}
	f, err := os.OpenFile(task.Dest, os.O_CREATE|os.O_WRONLY, fsutil.FileModeDefault)
	if err != nil {
		return 0, errors.Wrap(err, "could not open destination")
	}
	defer func() { _ = f.Close() }()

	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			return 0, errors.Wrap(err, "could not seek to resume offset")
		}
	} else {
		if err := f.Truncate(0); err != nil {
			return 0, errors.Wrap(err, "could not truncate destination")
		}
	}

	total := task.Descriptor.Size
	if !task.Descriptor.SizeKnown() {
		total = progress.TotalUnknown
	}

	var written int64
	buf := make([]byte, m.chunkSize)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, writeErr := f.Write(buf[:n]); writeErr != nil {
				return written, errors.Wrap(writeErr, "could not write chunk")
			}
			written += int64(n)
			task.AddBytes(int64(n))
			sink.Publish(progress.Event{TaskID: task.ID.String(), Delta: int64(n), Total: total})
		}
		if readErr == io.EOF {
			return written, f.Sync()
		}
		if readErr != nil {
			return written, errors.Wrap(readErr, "read failed")
		}
		if ctx.Err() != nil {
			// Stop at the chunk boundary; the partial file stays for resume.
			return written, ctx.Err()
		}
	}
}

func localSize(path string) int64 {
	st, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return st.Size()
}

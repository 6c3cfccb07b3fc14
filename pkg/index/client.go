// Package index discovers build artifacts on the remote date-keyed
// directory index. Listings are HTML-ish auto-index pages; parsing is
// tolerant and entries that cannot be understood are dropped.
package index

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/JavaZeroo/dev-scripts/internal/logger"
	"github.com/JavaZeroo/dev-scripts/pkg/daterange"
	"github.com/JavaZeroo/dev-scripts/pkg/errors"
	"github.com/JavaZeroo/dev-scripts/pkg/model"
)

const defaultUserAgent = "dev-scripts/1.0"

// errNotFound distinguishes a missing listing (normal for unpublished dates)
// from a transport failure inside the client.
var errNotFound = fmt.Errorf("listing not found")

// Options configure the index client.
type Options struct {
	BaseURL     string        // root of the version index, e.g. https://repo.example.cn/project/version/
	BuildPrefix string        // build directory prefix, e.g. master_
	Variant     string        // variant subdirectory, e.g. unified
	Arch        string        // architecture subdirectory, e.g. aarch64
	UserAgent   string
	Timeout     time.Duration
	Retries     int  // attempts per request for transient failures
	Insecure    bool // skip TLS verification
}

// Client lists artifact descriptors from the remote index.
type Client struct {
	client      *http.Client
	baseURL     *url.URL
	buildPrefix string
	variant     string
	arch        string
	userAgent   string
	retries     int
}

// New creates an index client. The base URL must be absolute.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/") + "/")
	if err != nil || !base.IsAbs() {
		return nil, errors.Wrapf(errors.ErrInvalidPath, "bad base URL %q", opts.BaseURL)
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Retries < 1 {
		opts.Retries = 1
	}

	transport := http.DefaultTransport
	if opts.Insecure {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // opt-in via --insecure
		}
	}

	return &Client{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		baseURL:     base,
		buildPrefix: opts.BuildPrefix,
		variant:     opts.Variant,
		arch:        opts.Arch,
		userAgent:   opts.UserAgent,
		retries:     opts.Retries,
	}, nil
}

// List fetches the directory listing for one calendar date and returns the
// artifact descriptors published under it. A date with no published build
// yields an empty result, not an error. Transport failures are retried with
// backoff and then surfaced as ErrIndexUnavailable.
func (c *Client) List(ctx context.Context, date time.Time) ([]*model.ArtifactDescriptor, error) {
	dateStr := date.Format(daterange.DateFormat)
	dateURL := dirURL(c.baseURL, dateStr[:6], dateStr) // base/YYYYMM/YYYYMMDD/

	body, err := c.fetchListing(ctx, dateURL)
	if err != nil {
		if err == errNotFound {
			logger.Debug("no listing for date", logger.Fields{"date": dateStr})
			return nil, nil
		}
		return nil, err
	}

	var descriptors []*model.ArtifactDescriptor
	for _, href := range parseLinks(strings.NewReader(body)) {
		build := strings.TrimSuffix(href, "/")
		if !strings.HasPrefix(build, c.buildPrefix) || !strings.HasSuffix(build, "_newest") {
			continue
		}
		descs, err := c.listBuild(ctx, dateURL, dateStr, build)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, descs...)
	}
	logger.Debug("listed date", logger.Fields{"date": dateStr, "candidates": len(descriptors)})
	return descriptors, nil
}

func (c *Client) listBuild(ctx context.Context, dateURL *url.URL, dateStr, build string) ([]*model.ArtifactDescriptor, error) {
	buildURL := dirURL(dateURL, build, c.variant, c.arch)

	body, err := c.fetchListing(ctx, buildURL)
	if err != nil {
		if err == errNotFound {
			// A build directory without this variant/arch combination is
			// a normal gap in the index, not a failure.
			return nil, nil
		}
		return nil, err
	}

	var descriptors []*model.ArtifactDescriptor
	for _, href := range parseLinks(strings.NewReader(body)) {
		if !strings.HasSuffix(href, ".whl") {
			continue
		}
		ref, err := url.Parse(href)
		if err != nil {
			logger.Debug("dropping malformed link", logger.Fields{"href": href})
			continue
		}
		remote := buildURL.ResolveReference(ref)
		filename := remote.Path[strings.LastIndex(remote.Path, "/")+1:]
		if filename == "" {
			logger.Debug("dropping link without filename", logger.Fields{"href": href})
			continue
		}
		version, pythonTag, archTag := parseWheelName(filename)
		descriptors = append(descriptors, &model.ArtifactDescriptor{
			Filename:      filename,
			URL:           remote,
			PublishedDate: dateStr,
			Build:         build,
			Version:       version,
			PythonTag:     pythonTag,
			ArchTag:       archTag,
			Size:          model.SizeUnknown,
		})
	}
	return descriptors, nil
}

// dirURL joins path elements onto base and keeps the trailing slash, so
// relative listing links resolve inside the directory instead of beside it.
func dirURL(base *url.URL, elems ...string) *url.URL {
	u := base.JoinPath(elems...)
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u
}

// fetchListing GETs one listing page, retrying transient failures. 404 maps
// to errNotFound; every other failure becomes ErrIndexUnavailable after the
// retry budget is spent.
func (c *Client) fetchListing(ctx context.Context, u *url.URL) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		body, retriable, err := c.getOnce(ctx, u)
		if err == nil {
			return body, nil
		}
		if err == errNotFound {
			return "", err
		}
		lastErr = err
		if !retriable || attempt == c.retries {
			break
		}
		logger.Warnf("GET %s failed (attempt %d/%d): %v", u, attempt, c.retries, err)
		if !sleepBackoff(ctx, attempt) {
			break
		}
	}
	return "", errors.Wrapf(errors.ErrIndexUnavailable, "GET %s: %v", u, lastErr)
}

func (c *Client) getOnce(ctx context.Context, u *url.URL) (body string, retriable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return "", false, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", ctx.Err() == nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", false, errNotFound
	case resp.StatusCode >= 500:
		return "", true, fmt.Errorf("status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return "", false, fmt.Errorf("status %d", resp.StatusCode)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, resp.Body); err != nil {
		return "", true, err
	}
	return sb.String(), false, nil
}

// RemoteSize resolves the size of a remote artifact without downloading it:
// HEAD first, then a one-byte Range probe whose Content-Range carries the
// total. Returns model.SizeUnknown when the server will not say.
func (c *Client) RemoteSize(ctx context.Context, rawURL string) int64 {
	if size, ok := c.headSize(ctx, rawURL); ok {
		return size
	}
	if size, ok := c.rangeProbeSize(ctx, rawURL); ok {
		return size
	}
	logger.Debug("remote size unknown", logger.Fields{"url": rawURL})
	return model.SizeUnknown
}

func (c *Client) headSize(ctx context.Context, rawURL string) (int64, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, http.NoBody)
	if err != nil {
		return 0, false
	}
	req.Header.Set("User-Agent", c.userAgent)
	// identity keeps Content-Length honest; compressed responses lie.
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, false
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 || resp.ContentLength < 0 {
		return 0, false
	}
	return resp.ContentLength, true
}

func (c *Client) rangeProbeSize(ctx context.Context, rawURL string) (int64, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return 0, false
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Encoding", "identity")
	req.Header.Set("Range", "bytes=0-0")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, false
	}
	defer func() { _ = resp.Body.Close() }()

	// Content-Range: bytes 0-0/total
	cr := resp.Header.Get("Content-Range")
	idx := strings.LastIndex(cr, "/")
	if idx < 0 {
		return 0, false
	}
	totalStr := cr[idx+1:]
	if totalStr == "*" {
		return 0, false
	}
	total, err := strconv.ParseInt(totalStr, 10, 64)
	if err != nil {
		return 0, false
	}
	return total, true
}

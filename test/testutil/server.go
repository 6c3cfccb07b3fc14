// Package testutil provides a fake build-index server for tests: it serves
// generated directory-listing pages plus the artifact payloads themselves,
// with optional Range support and per-path request accounting.
package testutil

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"
)

// serveTime is a fixed modtime so ServeContent emits stable headers.
var serveTime = time.Unix(1700000000, 0)

// Artifact is one file exposed by the fake index.
type Artifact struct {
	Date    string // YYYYMMDD
	Build   string // e.g. master_20250101010101_newest
	Variant string
	Arch    string
	Name    string // wheel filename
	Content []byte
}

// IndexServer is an httptest-backed index double.
type IndexServer struct {
	*httptest.Server

	// SupportRanges controls whether ranged requests get 206 responses.
	// When false the server answers every GET with the full body and 200.
	SupportRanges bool

	mu           sync.Mutex
	artifacts    []Artifact
	failStatus   map[string]int // URL path prefix -> forced status
	failCount    map[string]int // remaining forced failures per prefix
	requests     map[string]int // method+path -> count
	bodyBytes    int64          // artifact body bytes actually sent
	unblock      chan struct{}  // when set, GETs of artifacts block until closed
	blockedCount int
}

// NewIndexServer starts a fake index serving the given artifacts.
func NewIndexServer(artifacts []Artifact) *IndexServer {
	s := &IndexServer{
		SupportRanges: true,
		artifacts:     artifacts,
		failStatus:    make(map[string]int),
		failCount:     make(map[string]int),
		requests:      make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// FailPath forces the next count requests whose path starts with prefix to
// answer with the given status.
func (s *IndexServer) FailPath(prefix string, status, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus[prefix] = status
	s.failCount[prefix] = count
}

// Requests returns how many requests were seen for the method and path.
func (s *IndexServer) Requests(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[method+" "+path]
}

// TotalRequests returns the total number of requests handled.
func (s *IndexServer) TotalRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.requests {
		total += n
	}
	return total
}

// BodyBytesSent returns how many artifact body bytes went over the wire.
func (s *IndexServer) BodyBytesSent() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bodyBytes
}

// BlockDownloads makes artifact GETs park until ReleaseDownloads is called.
// Used to observe the concurrency bound.
func (s *IndexServer) BlockDownloads() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unblock = make(chan struct{})
}

// BlockedDownloads returns how many artifact GETs are currently parked.
func (s *IndexServer) BlockedDownloads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blockedCount
}

// ReleaseDownloads releases every parked artifact GET.
func (s *IndexServer) ReleaseDownloads() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unblock != nil {
		close(s.unblock)
		s.unblock = nil
	}
}

func (s *IndexServer) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests[r.Method+" "+r.URL.Path]++
	for prefix, status := range s.failStatus {
		if strings.HasPrefix(r.URL.Path, prefix) && s.failCount[prefix] != 0 {
			s.failCount[prefix]--
			s.mu.Unlock()
			w.WriteHeader(status)
			return
		}
	}
	s.mu.Unlock()

	if art, ok := s.findArtifact(r.URL.Path); ok {
		s.serveArtifact(w, r, art)
		return
	}
	if listing, ok := s.renderListing(r.URL.Path); ok {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(listing))
		return
	}
	http.NotFound(w, r)
}

func (s *IndexServer) artifactPath(a Artifact) string {
	return fmt.Sprintf("/%s/%s/%s/%s/%s/%s", a.Date[:6], a.Date, a.Build, a.Variant, a.Arch, a.Name)
}

func (s *IndexServer) findArtifact(path string) (Artifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.artifacts {
		if s.artifactPath(a) == path {
			return a, true
		}
	}
	return Artifact{}, false
}

// renderListing builds a minimal auto-index page for a date or build
// directory, mimicking the table-of-anchors markup real index servers emit.
func (s *IndexServer) renderListing(path string) (string, bool) {
	path = strings.TrimSuffix(path, "/")
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := map[string]bool{}
	switch len(parts) {
	case 2: // /YYYYMM/YYYYMMDD -> build dirs
		for _, a := range s.artifacts {
			if a.Date[:6] == parts[0] && a.Date == parts[1] {
				entries[a.Build+"/"] = true
			}
		}
	case 5: // /YYYYMM/YYYYMMDD/build/variant/arch -> wheels
		for _, a := range s.artifacts {
			if a.Date == parts[1] && a.Build == parts[2] && a.Variant == parts[3] && a.Arch == parts[4] {
				entries[a.Name] = true
			}
		}
	default:
		return "", false
	}
	if len(entries) == 0 {
		return "", false
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("<html><body><table id=\"list\">\n")
	sb.WriteString("<tr><td><a href=\"../\">Parent directory/</a></td></tr>\n")
	for _, name := range names {
		fmt.Fprintf(&sb, "<tr><td><a href=%q>%s</a></td></tr>\n", name, name)
	}
	// Sort-order links, like real auto-index pages; parsers must skip these.
	sb.WriteString("<tr><td><a href=\"?C=N&O=D\">Name</a></td></tr>\n")
	sb.WriteString("</table></body></html>\n")
	return sb.String(), true
}

func (s *IndexServer) serveArtifact(w http.ResponseWriter, r *http.Request, a Artifact) {
	s.mu.Lock()
	unblock := s.unblock
	s.mu.Unlock()

	if unblock != nil && r.Method == http.MethodGet {
		s.mu.Lock()
		s.blockedCount++
		s.mu.Unlock()
		<-unblock
		s.mu.Lock()
		s.blockedCount--
		s.mu.Unlock()
	}

	if r.Method == http.MethodHead {
		w.Header().Set("Content-Length", fmt.Sprint(len(a.Content)))
		return
	}

	counter := &countingWriter{ResponseWriter: w, server: s}
	if s.SupportRanges {
		// ServeContent implements Range/Content-Range handling.
		http.ServeContent(counter, r, a.Name, serveTime, bytes.NewReader(a.Content))
		return
	}
	w.Header().Set("Content-Length", fmt.Sprint(len(a.Content)))
	_, _ = counter.Write(a.Content)
}

type countingWriter struct {
	http.ResponseWriter
	server *IndexServer
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.server.mu.Lock()
	c.server.bodyBytes += int64(len(p))
	c.server.mu.Unlock()
	return c.ResponseWriter.Write(p)
}

// Package model provides data structures for representing remote build
// artifacts and the download tasks that fetch them.
package model

import (
	"net/url"

	version "github.com/hashicorp/go-version"
)

// SizeUnknown marks a descriptor whose remote size could not be determined.
const SizeUnknown int64 = -1

// ArtifactDescriptor represents one discoverable remote build file as parsed
// from a directory listing. Descriptors are immutable once constructed; two
// descriptors refer to the same artifact iff their URLs are equal.
type ArtifactDescriptor struct {
	Filename      string   `json:"filename"`
	URL           *url.URL `json:"url"`
	PublishedDate string   `json:"published_date"` // YYYYMMDD of the listing it came from
	Build         string   `json:"build"`          // build directory name, e.g. master_20250101_newest
	Version       string   `json:"version,omitempty"`
	PythonTag     string   `json:"python_tag,omitempty"` // e.g. cp310; empty when unknown
	ArchTag       string   `json:"arch_tag,omitempty"`   // e.g. aarch64; empty when unknown
	Size          int64    `json:"size"`                 // bytes, SizeUnknown when not advertised
}

// SizeKnown reports whether the remote size of this artifact is known.
func (d *ArtifactDescriptor) SizeKnown() bool {
	return d.Size >= 0
}

// MatchPythonTag checks if this artifact matches the given python tag.
// An empty target matches everything, including untagged descriptors.
func (d *ArtifactDescriptor) MatchPythonTag(tag string) bool {
	return tag == "" || d.PythonTag == tag
}

// MatchArchTag checks if this artifact matches the given architecture tag.
func (d *ArtifactDescriptor) MatchArchTag(tag string) bool {
	return tag == "" || d.ArchTag == tag
}

// MatchVersion checks if this artifact's version satisfies the given
// version constraint.
func (d *ArtifactDescriptor) MatchVersion(versionConstraint string) bool {
	constraint, err := version.NewConstraint(versionConstraint)
	if err != nil {
		return false
	}
	v := d.GetVersion()
	if v == nil {
		return false
	}
	return constraint.Check(v)
}

// GetVersion returns the parsed version of this artifact, or nil when the
// version segment is absent or unparseable.
func (d *ArtifactDescriptor) GetVersion() *version.Version {
	if d.Version == "" {
		return nil
	}
	v, err := version.NewVersion(d.Version)
	if err != nil {
		return nil
	}
	return v
}

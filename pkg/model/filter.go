package model

// Predicate selects artifacts by target platform attributes. Zero-value
// fields are wildcards; a set field must match exactly. The predicate is the
// conjunction of all set fields.
type Predicate struct {
	PythonTag         string
	ArchTag           string
	VersionConstraint string // optional go-version constraint, e.g. ">= 2.4.0"
}

// Matches reports whether the descriptor satisfies every set attribute.
func (p Predicate) Matches(d *ArtifactDescriptor) bool {
	if !d.MatchPythonTag(p.PythonTag) {
		return false
	}
	if !d.MatchArchTag(p.ArchTag) {
		return false
	}
	if p.VersionConstraint != "" && !d.MatchVersion(p.VersionConstraint) {
		return false
	}
	return true
}

// Filter returns the descriptors matching the predicate, preserving input
// order. The input slice is never mutated.
func Filter(descriptors []*ArtifactDescriptor, p Predicate) []*ArtifactDescriptor {
	out := make([]*ArtifactDescriptor, 0, len(descriptors))
	for _, d := range descriptors {
		if p.Matches(d) {
			out = append(out, d)
		}
	}
	return out
}

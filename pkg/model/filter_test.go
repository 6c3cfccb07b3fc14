package model

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func desc(filename, pythonTag, archTag, version string) *ArtifactDescriptor {
	u, _ := url.Parse("https://repo.example.com/" + filename)
	return &ArtifactDescriptor{
		Filename:  filename,
		URL:       u,
		PythonTag: pythonTag,
		ArchTag:   archTag,
		Version:   version,
		Size:      SizeUnknown,
	}
}

func TestFilter_Wildcard(t *testing.T) {
	input := []*ArtifactDescriptor{
		desc("a.whl", "cp310", "aarch64", "2.4.0"),
		desc("b.whl", "cp311", "x86_64", "2.4.0"),
		desc("c.whl", "", "", ""),
	}

	got := Filter(input, Predicate{})
	require.Len(t, got, len(input))
	for i := range input {
		assert.Same(t, input[i], got[i], "wildcard filter must return the input unchanged")
	}
}

func TestFilter_PythonTag(t *testing.T) {
	input := []*ArtifactDescriptor{
		desc("a.whl", "cp310", "aarch64", "2.4.0"),
		desc("b.whl", "cp311", "aarch64", "2.4.0"),
		desc("c.whl", "", "aarch64", "2.4.0"), // untagged never matches a set attribute
	}

	got := Filter(input, Predicate{PythonTag: "cp310"})
	require.Len(t, got, 1)
	assert.Equal(t, "a.whl", got[0].Filename)
}

func TestFilter_Conjunction(t *testing.T) {
	input := []*ArtifactDescriptor{
		desc("a.whl", "cp310", "aarch64", "2.4.0"),
		desc("b.whl", "cp310", "x86_64", "2.4.0"),
		desc("c.whl", "cp311", "aarch64", "2.4.0"),
	}

	got := Filter(input, Predicate{PythonTag: "cp310", ArchTag: "aarch64"})
	require.Len(t, got, 1)
	assert.Equal(t, "a.whl", got[0].Filename)
}

func TestFilter_VersionConstraint(t *testing.T) {
	input := []*ArtifactDescriptor{
		desc("a.whl", "cp310", "aarch64", "2.3.1"),
		desc("b.whl", "cp310", "aarch64", "2.4.0"),
		desc("c.whl", "cp310", "aarch64", "not-a-version"),
	}

	got := Filter(input, Predicate{VersionConstraint: ">= 2.4.0"})
	require.Len(t, got, 1)
	assert.Equal(t, "b.whl", got[0].Filename)
}

func TestFilter_PreservesOrderAndInput(t *testing.T) {
	input := []*ArtifactDescriptor{
		desc("z.whl", "cp310", "", ""),
		desc("a.whl", "cp311", "", ""),
		desc("m.whl", "cp310", "", ""),
	}

	got := Filter(input, Predicate{PythonTag: "cp310"})
	require.Len(t, got, 2)
	assert.Equal(t, "z.whl", got[0].Filename)
	assert.Equal(t, "m.whl", got[1].Filename)

	// input untouched
	assert.Equal(t, "z.whl", input[0].Filename)
	assert.Len(t, input, 3)
}

func TestFilter_EmptyInput(t *testing.T) {
	assert.Empty(t, Filter(nil, Predicate{}))
	assert.Empty(t, Filter([]*ArtifactDescriptor{}, Predicate{PythonTag: "cp310"}))
}

package hook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JavaZeroo/dev-scripts/pkg/errors"
)

func TestExecuteHook(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "marker.txt")

	script := `
os := import("os")
artifact := import("artifact")
file := os.create("` + marker + `")
file.write_string(artifact.filename + " " + artifact.date)
file.close()
`
	hookPath := filepath.Join(dir, "hook.tengo")
	require.NoError(t, os.WriteFile(hookPath, []byte(script), 0o644))

	err := NewExecutor().ExecuteHook(hookPath, &Context{
		Filename: "mindspore-2.4.0-cp310-cp310-linux_aarch64.whl",
		Path:     "/downloads/whatever.whl",
		Date:     "20250101",
		Build:    "master_20250101010101_newest",
	})
	require.NoError(t, err)

	got, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Equal(t, "mindspore-2.4.0-cp310-cp310-linux_aarch64.whl 20250101", string(got))
}

func TestExecuteHook_MissingScript(t *testing.T) {
	err := NewExecutor().ExecuteHook(filepath.Join(t.TempDir(), "nope.tengo"), &Context{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrHookScript)
}

func TestExecuteHook_ScriptError(t *testing.T) {
	dir := t.TempDir()
	hookPath := filepath.Join(dir, "bad.tengo")
	require.NoError(t, os.WriteFile(hookPath, []byte(`this is not tengo (`), 0o644))

	err := NewExecutor().ExecuteHook(hookPath, &Context{Filename: "x.whl"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrHookScript)
}

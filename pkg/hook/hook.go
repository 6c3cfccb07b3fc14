// Package hook runs the optional post-download Tengo script. The hook is
// advisory automation (moving files into a workspace, notifying, etc.); a
// failing hook never fails the download that triggered it.
package hook

import (
	"os"

	"github.com/JavaZeroo/dev-scripts/internal/logger"
	"github.com/JavaZeroo/dev-scripts/pkg/errors"
	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

// Executor runs hook scripts.
type Executor interface {
	ExecuteHook(hookPath string, hctx *Context) error
}

// Context provides the downloaded artifact's details to hook scripts.
type Context struct {
	Filename string
	Path     string // absolute local path of the completed file
	Date     string // YYYYMMDD the artifact was published under
	Build    string // build directory name
}

// ExecutorImpl is the default implementation of Executor.
type ExecutorImpl struct{}

// NewExecutor creates a hook executor.
func NewExecutor() *ExecutorImpl {
	return &ExecutorImpl{}
}

// ExecuteHook executes a Tengo script with the artifact context exposed as
// the "artifact" module.
func (e *ExecutorImpl) ExecuteHook(hookPath string, hctx *Context) error {
	scriptContent, err := os.ReadFile(hookPath)
	if err != nil {
		return errors.Wrapf(errors.ErrHookScript, "failed to read hook script %s: %v", hookPath, err)
	}

	logger.Debug("executing post-download hook", logger.Fields{
		"hook": hookPath,
		"file": hctx.Filename,
	})

	moduleMap := stdlib.GetModuleMap(stdlib.AllModuleNames()...)
	moduleMap.AddBuiltinModule("artifact", map[string]tengo.Object{
		"filename": &tengo.String{Value: hctx.Filename},
		"path":     &tengo.String{Value: hctx.Path},
		"date":     &tengo.String{Value: hctx.Date},
		"build":    &tengo.String{Value: hctx.Build},
	})

	script := tengo.NewScript(scriptContent)
	script.SetImports(moduleMap)

	if _, err := script.Run(); err != nil {
		return errors.Wrapf(errors.ErrHookScript, "hook %s: %v", hookPath, err)
	}
	return nil
}

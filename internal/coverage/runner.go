package coverage

import (
	"context"
	"os/exec"
)

// Runner executes an external command in dir and returns its combined output.
type Runner interface {
	RunInDir(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// OSRunner implements Runner using os/exec.
type OSRunner struct {
	// Env overrides environment variables (nil = inherit from parent)
	Env []string
}

// RunInDir executes a command in a specific directory.
func (r OSRunner) RunInDir(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if r.Env != nil {
		cmd.Env = r.Env
	}
	return cmd.CombinedOutput()
}

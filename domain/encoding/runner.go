package encoding

import (
	"context"
	"errors"
	"os/exec"
)

// CommandRunner starts an external process and waits for it to exit.
// exitCode is -1 when the process could not be started or was killed.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (exitCode int, output []byte, err error)
}

// ExecRunner runs commands with os/exec, collecting combined output.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) (int, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err == nil {
		return 0, out, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return -1, out, ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), out, nil
	}
	return -1, out, err
}

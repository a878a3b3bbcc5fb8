package installer

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// Runner executes one external command to completion and yields its exit
// code. Implementations own the subprocess for the whole call and must
// release its handles on every return path.
type Runner interface {
	Run(ctx context.Context, exe string, args []string) (int, error)
}

// ExecRunner runs commands through os/exec.
type ExecRunner struct{}

var _ Runner = ExecRunner{}

// Run blocks until the command exits. A non-zero exit code is reported
// through the int, not the error; the error covers failures to run at all.
func (ExecRunner) Run(ctx context.Context, exe string, args []string) (int, error) {
	cmd := exec.CommandContext(ctx, exe, args...)
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 0, fmt.Errorf("running %s: %w", exe, err)
}

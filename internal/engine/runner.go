package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// Runner executes the engine binary and returns its stdout. Tests substitute
// a fake; production uses execRunner.
type Runner interface {
	Run(ctx context.Context, dir, name string, args []string, timeout time.Duration) (stdout string, err error)
}

// ExitStatusError reports a non-zero engine exit with captured diagnostics.
type ExitStatusError struct {
	Code   int
	Stderr string
}

func (e *ExitStatusError) Error() string {
	return fmt.Sprintf("engine exited with code %d: %s", e.Code, e.Stderr)
}

type execRunner struct{}

func NewRunner() Runner { return execRunner{} }

func (execRunner) Run(ctx context.Context, dir, name string, args []string, timeout time.Duration) (string, error) {
	cctx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(cctx, name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if cctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("engine timed out after %s: %w", timeout, context.DeadlineExceeded)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &ExitStatusError{Code: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return "", err
	}
	return stdout.String(), nil
}

// SPDX-License-Identifier: MIT
package transport

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/skaphos/gitsync/internal/gitx"
)

// Result is the outcome of one local process.
type Result struct {
	Stdout string
	Stderr string
	Exit   int
}

// Exec runs a process. err is nil whenever the process exited on its own,
// whatever its exit code.
type Exec func(ctx context.Context, dir, bin string, args ...string) (Result, error)

func runCommand(ctx context.Context, dir, bin string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	if strings.TrimSpace(dir) != "" {
		cmd.Dir = dir
	}
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// ssh -f leaves its stdio attached to the backgrounded master.
	cmd.WaitDelay = 2 * time.Second
	err := cmd.Run()
	if errors.Is(err, exec.ErrWaitDelay) {
		err = nil
	}
	res := Result{
		Stdout: strings.TrimSpace(stdout.String()),
		Stderr: strings.TrimSpace(stderr.String()),
	}
	if err == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return res, &gitx.SignalError{Signal: ws.Signal(), Args: append([]string{bin}, args...)}
		}
		res.Exit = exitErr.ExitCode()
		return res, nil
	}
	return res, err
}

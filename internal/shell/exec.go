package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"time"
)

var ErrTimedOut = errors.New("command timed out")

type Output struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner executes one command line through the platform shell. A non-zero
// exit is reported in Output, not as an error; only spawn failures and
// timeouts are errors.
type Runner struct {
	Shell     string
	WaitDelay time.Duration
}

func NewRunner() *Runner {
	return &Runner{WaitDelay: time.Second}
}

func (r *Runner) Run(ctx context.Context, dir, command string, timeout time.Duration) (Output, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx := ctx
	cancel := func() {}
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	name, args := r.argv(command)
	cmd := exec.CommandContext(runCtx, name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = r.WaitDelay
	configureProcess(cmd)

	err := cmd.Run()
	if err != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return Output{}, fmt.Errorf("%w after %s", ErrTimedOut, timeout)
	}
	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil || errors.Is(err, exec.ErrWaitDelay) {
		if cmd.ProcessState != nil {
			out.ExitCode = cmd.ProcessState.ExitCode()
		}
		return out, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}
	return Output{}, err
}

func (r *Runner) argv(command string) (string, []string) {
	if r.Shell != "" {
		return r.Shell, []string{"-c", command}
	}
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C", command}
	}
	return "/bin/sh", []string{"-c", command}
}

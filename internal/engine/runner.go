package engine

import (
	"context"
	"errors"
	"os/exec"
	"time"
)

type ExecSpec struct {
	Bin  string
	Args []string
	Dir  string
}

type ExecResult struct {
	ExitCode   int
	Duration   time.Duration
	StderrTail string
	Err        error
}

// ProcessHandle observes a started subprocess. Done yields exactly one result
// when the process exits.
type ProcessHandle interface {
	Done() <-chan ExecResult
}

// CommandRunner starts external tools. Launch failures (binary missing,
// permissions) surface from Start; everything after launch arrives through
// the handle.
type CommandRunner interface {
	Start(ctx context.Context, spec ExecSpec) (ProcessHandle, error)
}

// tailBuffer keeps the last max bytes written to it, so a noisy subprocess
// cannot grow an unbounded error payload.
type tailBuffer struct {
	buf []byte
	max int
}

func newTailBuffer(max int) *tailBuffer {
	if max <= 0 {
		max = 64 * 1024
	}
	return &tailBuffer{buf: make([]byte, 0, max), max: max}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	if len(p) >= t.max {
		t.buf = append(t.buf[:0], p[len(p)-t.max:]...)
		return len(p), nil
	}
	if overflow := len(t.buf) + len(p) - t.max; overflow > 0 {
		t.buf = append(t.buf[:0], t.buf[overflow:]...)
	}
	t.buf = append(t.buf, p...)
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return string(t.buf)
}

type SubprocessRunner struct{}

func NewSubprocessRunner() *SubprocessRunner {
	return &SubprocessRunner{}
}

func (r *SubprocessRunner) Start(ctx context.Context, spec ExecSpec) (ProcessHandle, error) {
	if spec.Bin == "" {
		return nil, errors.New("missing binary")
	}

	cmd := exec.CommandContext(ctx, spec.Bin, spec.Args...)
	cmd.Dir = spec.Dir

	stderrTail := newTailBuffer(64 * 1024)
	cmd.Stderr = stderrTail

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	done := make(chan ExecResult, 1)
	go func() {
		err := cmd.Wait()
		result := ExecResult{
			Duration:   time.Since(start),
			StderrTail: stderrTail.String(),
			Err:        err,
		}
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				result.ExitCode = exitErr.ExitCode()
			} else {
				result.ExitCode = 1
			}
		}
		done <- result
	}()

	return &subprocessHandle{done: done}, nil
}

type subprocessHandle struct {
	done chan ExecResult
}

func (h *subprocessHandle) Done() <-chan ExecResult {
	return h.done
}

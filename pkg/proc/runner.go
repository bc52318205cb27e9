// Package proc runs external collaborators as subprocesses: foreground runs
// with output capture and a timeout, and background sessions for processes
// the caller manages itself (the game during injection).
package proc

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os/exec"
	"time"

	"github.com/surxe/wrfexporter/pkg/errors"
)

// DefaultTimeout bounds foreground collaborator runs.
const DefaultTimeout = time.Hour

// Run executes the named collaborator with the given arguments and streams
// its combined output line by line to the debug log. A non-zero exit, a
// failure to start, or hitting the timeout all classify as
// ToolInvocationError.
func Run(ctx context.Context, name string, args []string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	logDone := make(chan struct{})
	go func() {
		defer close(logDone)
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			slog.Debug("process_output", "process", name, "line", scanner.Text())
		}
	}()

	slog.Info("process_start", "process", name, "timeout", timeout)
	start := time.Now()

	err := cmd.Run()
	pw.Close()
	<-logDone

	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			slog.Error("process_timeout", "process", name, "elapsed", elapsed)
			return errors.New(errors.ToolInvocationError,
				"process %s timed out after %s", name, timeout)
		}
		slog.Error("process_failed", "process", name, "elapsed", elapsed, "error", err)
		return errors.WrapKind(err, errors.ToolInvocationError, "process "+name)
	}

	slog.Info("process_complete", "process", name, "elapsed", elapsed)
	return nil
}

// Proc is a background process session. The caller owns it for its lifetime
// and must Terminate it on every exit path.
type Proc struct {
	Name string
	PID  int

	cmd  *exec.Cmd
	done chan struct{}
}

// Start launches the named executable in the background without waiting
// for it. args may be nil for a bare launch.
func Start(name string, args []string) (*Proc, error) {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		slog.Error("process_start_failed", "process", name, "error", err)
		return nil, errors.Wrap(err, "failed to start "+name)
	}

	p := &Proc{Name: name, PID: cmd.Process.Pid, cmd: cmd, done: make(chan struct{})}
	go func() {
		// Reap the child so Running reflects reality.
		_ = cmd.Wait()
		close(p.done)
	}()

	slog.Info("process_started", "process", name, "pid", p.PID)
	return p, nil
}

// Running reports whether the process has exited yet.
func (p *Proc) Running() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Terminate kills the process and waits up to grace for it to be reaped.
// Returns false if the process could not be confirmed dead.
func (p *Proc) Terminate(grace time.Duration) bool {
	if !p.Running() {
		return true
	}

	if err := p.cmd.Process.Kill(); err != nil {
		slog.Warn("process_kill_failed", "process", p.Name, "pid", p.PID, "error", err)
	}

	select {
	case <-p.done:
		slog.Info("process_terminated", "process", p.Name, "pid", p.PID)
		return true
	case <-time.After(grace):
		slog.Warn("process_termination_unconfirmed", "process", p.Name, "pid", p.PID)
		return false
	}
}

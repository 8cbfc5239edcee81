package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zapio"
)

const shellExitGrace = 2 * time.Second

// ShellProcess is a running shell executable. Reads come from its stdout,
// writes go to its stdin. Stderr is forwarded to the logger.
type ShellProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr *zapio.Writer

	once sync.Once
}

// StartShellProcess launches path with args.
func StartShellProcess(ctx context.Context, log *zap.Logger, path string, args ...string) (*ShellProcess, error) {
	if path == "" {
		return nil, errors.New("shell path is empty")
	}
	if log == nil {
		log = zap.NewNop()
	}
	cmd := exec.CommandContext(ctx, path, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr := &zapio.Writer{Log: log.Named("shell"), Level: zapcore.WarnLevel}
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", path, err)
	}
	p := &ShellProcess{
		cmd:    cmd,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
	return p, nil
}

func (p *ShellProcess) Read(b []byte) (int, error)  { return p.stdout.Read(b) }
func (p *ShellProcess) Write(b []byte) (int, error) { return p.stdin.Write(b) }

// Close closes the shell's stdin and waits for it to exit, killing it after
// a grace period.
func (p *ShellProcess) Close() error {
	var err error
	p.once.Do(func() {
		_ = p.stdin.Close()
		exited := make(chan error, 1)
		go func() { exited <- p.cmd.Wait() }()
		var waitErr error
		select {
		case waitErr = <-exited:
		case <-time.After(shellExitGrace):
			_ = p.cmd.Process.Kill()
			waitErr = <-exited
		}
		_ = p.stderr.Close()
		var exitErr *exec.ExitError
		if waitErr != nil && !errors.As(waitErr, &exitErr) {
			err = waitErr
		}
	})
	return err
}

package media

import (
	"context"
	"os/exec"
	"time"
)

// DefaultCommandTimeout bounds a single ffmpeg or ffprobe invocation.
const DefaultCommandTimeout = 10 * time.Minute

// Commander runs an external program and returns its combined output.
type Commander interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecCommander runs programs with os/exec.
type ExecCommander struct {
	Timeout time.Duration
}

// Run executes name with args, killing it when ctx ends or the timeout
// passes.
func (c ExecCommander) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, name, args...)
	return cmd.CombinedOutput()
}

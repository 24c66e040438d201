// Package probe runs external diagnostic tools on behalf of the fact
// collectors and provides the helpers they share for parsing tool output.
package probe

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// Result is the captured outcome of one tool invocation. OK is false when
// the tool is missing, fails to start, or exits non-zero. Output captured
// before a failure is still returned.
type Result struct {
	Stdout string
	Stderr string
	OK     bool
}

// Runner executes external commands. Implementations never return errors:
// every failure is folded into Result.OK so that a missing tool cannot
// abort collection.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) Result
	Exists(ctx context.Context, name string) bool
}

// ExecRunner runs commands on the local host.
type ExecRunner struct {
	logger  *zap.Logger
	timeout time.Duration
}

// Compile-time guard.
var _ Runner = (*ExecRunner)(nil)

// NewExecRunner returns a Runner backed by os/exec. A zero timeout lets a
// command run until it exits on its own.
func NewExecRunner(logger *zap.Logger, timeout time.Duration) *ExecRunner {
	return &ExecRunner{logger: logger, timeout: timeout}
}

// Run executes name with args and waits for it to finish.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) Result {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		r.logger.Debug("command failed",
			zap.String("cmd", name),
			zap.Strings("args", args),
			zap.Error(err),
		)
	}
	return Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
		OK:     err == nil,
	}
}

// Exists reports whether name resolves on PATH, using which(1) the same
// way an operator would check by hand.
func (r *ExecRunner) Exists(ctx context.Context, name string) bool {
	return r.Run(ctx, "which", name).OK
}

// Package driver invokes the external headless-browser CLI.
//
// The tool is executed as an argument vector, never through a shell, so
// query strings and URLs embedded in arguments cannot be used for injection.
package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iccyuan/search-browser/internal/infrastructure/logging"
	"github.com/iccyuan/search-browser/internal/infrastructure/monitoring"
	"github.com/iccyuan/search-browser/internal/infrastructure/resilience"
)

// DefaultMaxOutputBytes caps tool stdout at 10 MiB.
const DefaultMaxOutputBytes = 10 * 1024 * 1024

// Runner executes the browser CLI. Implemented by CommandRunner in
// production and by fakes in tests.
type Runner interface {
	Run(ctx context.Context, args []string, timeout time.Duration) (string, error)
}

// ExecError reports a failed tool invocation: non-zero exit, timeout, or
// an exceeded output cap.
type ExecError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("browser tool failed (args=%q exit=%d): %v",
		strings.Join(e.Args, " "), e.ExitCode, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

var errOutputCapExceeded = errors.New("tool output exceeds size cap")

// cappedBuffer fails the write that would push the buffer past max, which
// kills the subprocess through the exec pipe.
type cappedBuffer struct {
	buf bytes.Buffer
	max int64
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if int64(b.buf.Len())+int64(len(p)) > b.max {
		return 0, errOutputCapExceeded
	}
	return b.buf.Write(p)
}

// CommandRunner runs the browser CLI binary with a per-call timeout, an
// output-size cap, and a circuit breaker guarding a wedged binary.
type CommandRunner struct {
	binary    string
	maxOutput int64
	breaker   *resilience.Breaker
	metrics   *monitoring.Metrics
	logger    *logging.Logger
}

// NewCommandRunner creates a runner for the given binary.
func NewCommandRunner(binary string, maxOutput int64, breaker *resilience.Breaker, metrics *monitoring.Metrics, logger *logging.Logger) *CommandRunner {
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutputBytes
	}
	return &CommandRunner{
		binary:    binary,
		maxOutput: maxOutput,
		breaker:   breaker,
		metrics:   metrics,
		logger:    logger,
	}
}

// Run executes the binary with args and returns its stdout.
func (r *CommandRunner) Run(ctx context.Context, args []string, timeout time.Duration) (string, error) {
	sub := subcommandOf(args)
	start := time.Now()

	var stdout string
	err := r.breaker.Execute(func() error {
		var runErr error
		stdout, runErr = r.runOnce(ctx, args, timeout)
		return runErr
	})

	status := "ok"
	if err != nil {
		status = "error"
	}
	if r.metrics != nil {
		r.metrics.RecordToolCall(sub, status, time.Since(start))
	}
	return stdout, err
}

func (r *CommandRunner) runOnce(ctx context.Context, args []string, timeout time.Duration) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.binary, args...)
	stdout := &cappedBuffer{max: r.maxOutput}
	stderr := &cappedBuffer{max: 64 * 1024}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	r.logger.Debug("invoking browser tool",
		zap.String("binary", r.binary),
		zap.Strings("args", args),
		zap.Duration("timeout", timeout),
	)

	err := cmd.Run()
	if err == nil {
		return stdout.buf.String(), nil
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	if runCtx.Err() == context.DeadlineExceeded {
		err = fmt.Errorf("timed out after %s: %w", timeout, runCtx.Err())
	}

	execErr := &ExecError{
		Args:     args,
		ExitCode: exitCode,
		Stderr:   stderr.buf.String(),
		Err:      err,
	}

	r.logger.Error("browser tool invocation failed",
		zap.Strings("args", args),
		zap.Int("exit_code", exitCode),
		zap.String("stderr", execErr.Stderr),
		zap.Error(err),
	)

	return "", execErr
}

// subcommandOf extracts the tool subcommand from an argument vector of the
// form [--session <id> <subcommand> ...].
func subcommandOf(args []string) string {
	for i := 0; i < len(args); i++ {
		if args[i] == "--session" {
			i++ // skip the session id
			continue
		}
		if !strings.HasPrefix(args[i], "-") {
			return args[i]
		}
	}
	return "unknown"
}

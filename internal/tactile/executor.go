package tactile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kalimcp/internal/logging"
)

// Executor runs commands. Implementations never return a nil Outcome
// and never panic on process failures.
type Executor interface {
	Run(ctx context.Context, cmd Command) *Outcome
}

// ExecutorConfig configures a DirectExecutor.
type ExecutorConfig struct {
	// Shell interprets Command.Line (invoked as Shell -c Line).
	Shell string

	DefaultTimeout time.Duration

	// KillGrace bounds how long Wait keeps draining pipes after the
	// process group has been killed.
	KillGrace time.Duration

	// MaxCaptureBytes caps bytes buffered per stream.
	MaxCaptureBytes int64
}

// DefaultExecutorConfig returns the default executor settings.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		Shell:           "/bin/sh",
		DefaultTimeout:  300 * time.Second,
		KillGrace:       2 * time.Second,
		MaxCaptureBytes: 10 * 1024 * 1024,
	}
}

// DirectExecutor runs commands on the host with os/exec. It is built once
// at startup and shared for the lifetime of the process.
type DirectExecutor struct {
	config ExecutorConfig
	logger *zap.Logger

	mu            sync.RWMutex
	auditCallback func(AuditEvent)
}

// NewDirectExecutor creates an executor.
func NewDirectExecutor(config ExecutorConfig, logger *zap.Logger) *DirectExecutor {
	if config.Shell == "" {
		config.Shell = DefaultExecutorConfig().Shell
	}
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = DefaultExecutorConfig().DefaultTimeout
	}
	if config.MaxCaptureBytes <= 0 {
		config.MaxCaptureBytes = DefaultExecutorConfig().MaxCaptureBytes
	}
	logger.Debug("Creating DirectExecutor",
		zap.String("shell", config.Shell),
		zap.Duration("default_timeout", config.DefaultTimeout),
		zap.Int64("max_capture_bytes", config.MaxCaptureBytes))
	return &DirectExecutor{config: config, logger: logger}
}

// DefaultTimeout returns the timeout applied when a command sets none.
func (e *DirectExecutor) DefaultTimeout() time.Duration {
	return e.config.DefaultTimeout
}

// SetAuditCallback sets the callback for audit events.
func (e *DirectExecutor) SetAuditCallback(callback func(AuditEvent)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.auditCallback = callback
}

func (e *DirectExecutor) emitAudit(typ AuditEventType, cmd Command, outcome *Outcome) {
	e.mu.RLock()
	callback := e.auditCallback
	e.mu.RUnlock()

	if callback != nil {
		callback(AuditEvent{Type: typ, Timestamp: time.Now(), Command: cmd, Outcome: outcome})
	}
}

// Run executes cmd and waits for it, bounded by the command timeout.
// ctx is the process-lifetime context; canceling it kills the child the
// same way the watchdog does.
func (e *DirectExecutor) Run(ctx context.Context, cmd Command) *Outcome {
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}
	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = e.config.DefaultTimeout
	}
	cmd.Timeout = timeout

	log := e.logger.With(zap.String("exec_id", cmd.ID))
	timer := logging.StartTimer(log, "command execution")
	defer timer.Stop()

	if cmd.UsesShell() && strings.TrimSpace(cmd.Line) == "" {
		outcome := failure("empty command line")
		e.emitAudit(AuditEventError, cmd, outcome)
		return outcome
	}

	log.Info("Executing command",
		zap.String("line", cmd.Line),
		zap.Bool("shell", cmd.UsesShell()),
		zap.Duration("timeout", timeout))
	e.emitAudit(AuditEventStart, cmd, nil)

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var c *exec.Cmd
	if cmd.UsesShell() {
		name, args := shellInvocation(e.config.Shell, cmd.Line)
		c = exec.CommandContext(execCtx, name, args...)
	} else {
		c = exec.CommandContext(execCtx, cmd.Argv[0], cmd.Argv[1:]...)
	}

	// Own process group so the watchdog reaches grandchildren too.
	setupProcessGroup(c)
	c.Cancel = func() error { return killProcessGroup(c) }
	c.WaitDelay = e.config.KillGrace

	var stdoutBuf, stderrBuf bytes.Buffer
	stdoutLimited := &limitedWriter{w: &stdoutBuf, max: e.config.MaxCaptureBytes}
	stderrLimited := &limitedWriter{w: &stderrBuf, max: e.config.MaxCaptureBytes}
	c.Stdout = stdoutLimited
	c.Stderr = stderrLimited

	start := time.Now()
	err := c.Run()

	outcome := &Outcome{
		Stdout:    decodeLenient(stdoutBuf.Bytes()),
		Stderr:    decodeLenient(stderrBuf.Bytes()),
		Truncated: stdoutLimited.truncated || stderrLimited.truncated,
		Duration:  time.Since(start),
	}
	if outcome.Truncated {
		log.Warn("Command output truncated",
			zap.Int64("discarded_bytes", stdoutLimited.discarded+stderrLimited.discarded))
	}

	switch {
	case err != nil && errors.Is(execCtx.Err(), context.DeadlineExceeded):
		outcome.TimedOut = true
		outcome.Error = fmt.Sprintf("command timed out after %s", timeout)
		log.Warn("Command killed (timeout)", zap.Duration("timeout", timeout))
		e.emitAudit(AuditEventKilled, cmd, outcome)
		return outcome

	case err != nil && ctx.Err() != nil:
		outcome.Error = fmt.Sprintf("command canceled: %v", ctx.Err())
		log.Warn("Command killed (shutdown)")
		e.emitAudit(AuditEventKilled, cmd, outcome)
		return outcome

	case err == nil, errors.Is(err, exec.ErrWaitDelay):
		outcome.Success = true
		outcome.ExitCode = exitCode(c)

	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// Ran to completion; -1 when a signal ended it.
			outcome.Success = true
			code := exitErr.ExitCode()
			outcome.ExitCode = &code
			break
		}
		// Start failures and I/O failures report empty streams.
		failed := failure(fmt.Sprintf("command failed: %v", err))
		failed.Duration = outcome.Duration
		log.Error("Command failed", zap.Error(err))
		e.emitAudit(AuditEventError, cmd, failed)
		return failed
	}

	log.Info("Command completed",
		zap.Intp("exit_code", outcome.ExitCode),
		zap.Duration("duration", outcome.Duration),
		zap.Int("stdout_bytes", len(outcome.Stdout)),
		zap.Int("stderr_bytes", len(outcome.Stderr)))
	e.emitAudit(AuditEventComplete, cmd, outcome)
	return outcome
}

func exitCode(c *exec.Cmd) *int {
	if c.ProcessState == nil {
		return nil
	}
	code := c.ProcessState.ExitCode()
	return &code
}

// decodeLenient converts captured bytes to text, replacing invalid UTF-8
// sequences with U+FFFD.
func decodeLenient(b []byte) string {
	return strings.ToValidUTF8(string(b), "\uFFFD")
}

// limitedWriter is an io.Writer that limits total bytes written.
type limitedWriter struct {
	w         io.Writer
	max       int64
	written   int64
	truncated bool
	discarded int64
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)

	if lw.written >= lw.max {
		lw.truncated = true
		lw.discarded += int64(n)
		return n, nil
	}

	remaining := lw.max - lw.written
	if int64(n) > remaining {
		lw.truncated = true
		lw.discarded += int64(n) - remaining
		written, err := lw.w.Write(p[:remaining])
		lw.written += int64(written)
		// Report the full length so exec does not fail with a short write.
		return n, err
	}

	written, err := lw.w.Write(p)
	lw.written += int64(written)
	return written, err
}

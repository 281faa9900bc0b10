// Package tactile runs tool command lines as child processes.
//
// It is the only layer that touches the OS process table:
//   - Shell or argv execution: the caller decides, the executor obeys
//   - Watchdog: every run is bounded by a timeout; the whole process
//     group is killed when it fires
//   - Bounded capture: stdout and stderr are buffered up to a byte cap
//     and decoded leniently
//   - Audit trail: start/complete/killed/error events for observers
package tactile

import "time"

// Command is one execution request.
type Command struct {
	// ID correlates log and audit records. Assigned by the executor when empty.
	ID string `json:"id"`

	// Line is the command line handed to the shell when Argv is empty.
	Line string `json:"line"`

	// Argv, when set, is executed directly with no shell interpretation.
	Argv []string `json:"argv,omitempty"`

	// Timeout bounds the run. Zero means the executor default.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// UsesShell reports whether the command runs through the shell.
func (c Command) UsesShell() bool {
	return len(c.Argv) == 0
}

// Outcome is the result of one run.
type Outcome struct {
	// Success is true when the process was started and exited on its own
	// before the timeout. A non-zero exit status still counts as success.
	Success bool `json:"success"`

	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`

	// ExitCode is nil when the process never started or was killed.
	ExitCode *int `json:"exit_code,omitempty"`

	// Error describes launch failures, I/O failures and timeouts.
	Error string `json:"error,omitempty"`

	// TimedOut is set when the watchdog killed the process.
	TimedOut bool `json:"timed_out"`

	// Truncated is set when capture hit MaxCaptureBytes on either stream.
	Truncated bool `json:"truncated"`

	Duration time.Duration `json:"duration"`
}

// failure builds an outcome for a run that never produced output.
func failure(msg string) *Outcome {
	return &Outcome{Success: false, Error: msg}
}

// AuditEventType categorizes audit events.
type AuditEventType string

const (
	AuditEventStart    AuditEventType = "start"
	AuditEventComplete AuditEventType = "complete"
	AuditEventKilled   AuditEventType = "killed"
	AuditEventError    AuditEventType = "error"
)

// AuditEvent records one step of an execution.
type AuditEvent struct {
	Type      AuditEventType `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Command   Command        `json:"command"`

	// Outcome is set for complete, killed and error events.
	Outcome *Outcome `json:"outcome,omitempty"`
}

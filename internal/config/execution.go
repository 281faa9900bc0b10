package config

import (
	"fmt"
	"time"
)

// ExecutionMode selects how catalog tool command lines reach the OS.
type ExecutionMode string

const (
	// ModeShell hands the joined command line to the shell (-c).
	ModeShell ExecutionMode = "shell"

	// ModeArgv runs catalog tools as an argument vector with no shell.
	// The raw command tool still goes through the shell.
	ModeArgv ExecutionMode = "argv"
)

// ExecutionConfig configures the tactile executor.
type ExecutionConfig struct {
	Mode  ExecutionMode `yaml:"mode"`
	Shell string        `yaml:"shell"`

	// Default timeout for commands
	DefaultTimeout string `yaml:"default_timeout"`

	// Grace period for pipe draining after the process group is killed
	KillGrace string `yaml:"kill_grace"`

	// Rendered output caps, in characters
	MaxStdoutChars int `yaml:"max_stdout_chars"`
	MaxStderrChars int `yaml:"max_stderr_chars"`

	// Hard cap on bytes buffered per stream before decoding
	MaxCaptureBytes int64 `yaml:"max_capture_bytes"`
}

// Validate checks the execution settings.
func (e *ExecutionConfig) Validate() error {
	switch e.Mode {
	case ModeShell, ModeArgv:
	default:
		return fmt.Errorf("invalid mode %q (valid: %s, %s)", e.Mode, ModeShell, ModeArgv)
	}
	if e.Shell == "" {
		return fmt.Errorf("shell must not be empty")
	}
	if d, err := time.ParseDuration(e.DefaultTimeout); err != nil || d <= 0 {
		return fmt.Errorf("default_timeout must be a positive duration, got %q", e.DefaultTimeout)
	}
	if d, err := time.ParseDuration(e.KillGrace); err != nil || d < 0 {
		return fmt.Errorf("kill_grace must be a non-negative duration, got %q", e.KillGrace)
	}
	if e.MaxStdoutChars <= 0 || e.MaxStderrChars <= 0 {
		return fmt.Errorf("output caps must be positive")
	}
	if e.MaxCaptureBytes <= 0 {
		return fmt.Errorf("max_capture_bytes must be positive")
	}
	return nil
}

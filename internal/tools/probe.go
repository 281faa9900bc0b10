package tools

import "os/exec"

// Probe reports whether a binary is available on the host.
type Probe interface {
	IsAvailable(binary string) bool
}

// ProbeFunc adapts a function to the Probe interface.
type ProbeFunc func(binary string) bool

// IsAvailable calls f(binary).
func (f ProbeFunc) IsAvailable(binary string) bool {
	return f(binary)
}

// PathProbe resolves binaries against PATH.
type PathProbe struct{}

// IsAvailable reports whether binary resolves via exec.LookPath.
func (PathProbe) IsAvailable(binary string) bool {
	_, err := exec.LookPath(binary)
	return err == nil
}

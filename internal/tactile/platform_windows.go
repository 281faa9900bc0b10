//go:build windows

package tactile

import (
	"fmt"
	"os/exec"
	"syscall"
)

// shellInvocation ignores the configured shell: cmd.exe is the only
// interpreter guaranteed on Windows.
func shellInvocation(_ string, line string) (string, []string) {
	return "cmd", []string{"/C", line}
}

// setupProcessGroup hides the console window; the process tree is
// killed with taskkill instead of a process group.
func setupProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.HideWindow = true
}

// killProcessGroup kills the process and attempts to terminate child processes.
func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}

	killCmd := exec.Command("taskkill", "/F", "/T", "/PID", fmt.Sprintf("%d", cmd.Process.Pid))
	killCmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true}

	if err := killCmd.Run(); err != nil {
		// Fall back to direct kill
		return cmd.Process.Kill()
	}
	return nil
}

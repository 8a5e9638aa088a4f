//go:build windows

package main

import (
	"os"
	"os/exec"
	"syscall"
)

// setSysProcAttr sets platform-specific process attributes for detaching
func setSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

// terminateProcess stops the server process. Windows has no SIGTERM; the
// process is killed outright.
func terminateProcess(p *os.Process) error {
	return p.Kill()
}

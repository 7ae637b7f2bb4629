//go:build unix

package supervisor

import (
	"os/exec"
	"syscall"
)

// setProcAttr places the worker in its own process group so a terminal
// SIGINT is not delivered to it directly; the supervisor owns teardown.
func setProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

//go:build !unix

package supervisor

import "os/exec"

func setProcAttr(cmd *exec.Cmd) {}

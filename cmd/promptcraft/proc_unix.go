//go:build unix

package main

import (
	"os/exec"
	"syscall"
)

// detach puts the daemon in its own process group so terminal signals sent
// to the CLI do not reach it
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

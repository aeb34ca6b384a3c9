//go:build windows

package helper

import (
	"os/exec"

	"github.com/shirou/gopsutil/v3/process"
)

// setProcessGroup is a no-op on Windows; killProcessTree walks the child
// list instead of relying on a job object.
func setProcessGroup(cmd *exec.Cmd) {}

// killProcessTree kills the helper's descendants, then the helper itself.
func killProcessTree(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	if root, err := process.NewProcess(int32(cmd.Process.Pid)); err == nil {
		killDescendants(root)
	}
	return cmd.Process.Kill()
}

func killDescendants(p *process.Process) {
	children, err := p.Children()
	if err != nil {
		return
	}
	for _, child := range children {
		killDescendants(child)
		if err := child.Kill(); err != nil {
			log.Debug("failed to kill helper child", "pid", child.Pid, "error", err)
		}
	}
}

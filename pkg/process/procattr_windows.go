//go:build windows

package process

import (
	"context"
	"os/exec"

	"github.com/shirou/gopsutil/v3/process"
)

// configure makes cancellation kill the whole process tree, since Windows
// has no process group signal.
func configure(c *exec.Cmd) {
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		p, err := process.NewProcess(int32(c.Process.Pid))
		if err != nil {
			return c.Process.Kill()
		}
		killTree(context.Background(), p, nil)
		return nil
	}
}

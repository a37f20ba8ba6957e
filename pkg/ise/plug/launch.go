package plug

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/iseio/iseio-go/pkg/plugdev"
)

// Helper is a running plugin helper.
type Helper interface {
	// Wait blocks until the helper exits.
	Wait() error
	Kill() error
}

// Launcher starts the helper at path with ctl as its end of the control
// connection. The launcher must not close ctl; the backend does once
// Launcher returns.
type Launcher func(ctx context.Context, path string, ctl *os.File) (Helper, error)

// ctlFD is the descriptor number the helper finds its control connection on.
const ctlFD = 3

// ExecLauncher runs the helper as a child process. Its standard input is
// the null device; output is inherited.
func ExecLauncher(ctx context.Context, path string, ctl *os.File) (Helper, error) {
	cmd := exec.Command(path, fmt.Sprintf("%s%d", plugdev.PortFlag, ctlFD))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.ExtraFiles = []*os.File{ctl}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return processHelper{cmd: cmd}, nil
}

type processHelper struct {
	cmd *exec.Cmd
}

func (h processHelper) Wait() error { return h.cmd.Wait() }
func (h processHelper) Kill() error { return h.cmd.Process.Kill() }

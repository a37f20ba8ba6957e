package plugdev

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/iseio/iseio-go/pkg/diag"
)

// PortFlag names the control connection's file descriptor on the helper's
// command line.
const PortFlag = "--port-fd="

// PortFD returns the control descriptor from args. Other arguments are
// ignored; the last occurrence wins.
func PortFD(args []string) (int, error) {
	fd := -1
	for _, arg := range args {
		v, ok := strings.CutPrefix(arg, PortFlag)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return -1, fmt.Errorf("plugdev: bad %s%s", PortFlag, v)
		}
		fd = n
	}
	if fd < 0 {
		return -1, errors.New("plugdev: missing " + PortFlag + "N")
	}
	return fd, nil
}

// Main runs app as a plugin helper: it attaches to the control connection
// named on the command line, logs to LIBISEIO_PLUG_LOG and serves until the
// host goes away. It returns the process exit status.
func Main(app App) int {
	logger, closer := diag.FromEnv(diag.EnvDevice)
	defer closer.Close()

	fd, err := PortFD(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	f := os.NewFile(uintptr(fd), "plugin-port")
	ctl, err := net.FileConn(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "plugdev: control fd %d: %v\n", fd, err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := New(ctl, app, WithLogger(logger.With("side", "plugin")))
	if err := p.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("serve", "error", err)
		return 1
	}
	return 0
}

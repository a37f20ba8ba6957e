//go:build linux

package hw

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/iseio/iseio-go/pkg/config"
	"github.com/iseio/iseio-go/pkg/ise"
)

// Frame ioctl arguments carry the frame id in the top four bits and the
// size in the rest; mmap offsets select the frame the same way.
const (
	frameShift    = 28
	frameSizeMask = 1<<frameShift - 1
)

// timeoutArg matches the driver's timeout request: an unsigned channel id
// and a C long.
type timeoutArg struct {
	id          uint32
	readTimeout int
}

// Devfs is the Device of a board reached through its device nodes.
type Devfs struct {
	unit int
	cfg  config.Hardware
	ctl  int
}

// OpenDevfs opens the control node of board unit. The request codes come
// from configuration; all of them must be set.
func OpenDevfs(unit int, cfg config.Hardware) (Device, error) {
	if !cfg.Ioctl.Configured() {
		return nil, fmt.Errorf("%w: hardware ioctl codes are not configured", ise.ErrUnsupported)
	}
	path := fmt.Sprintf(cfg.ControlPath, unit)
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Devfs{unit: unit, cfg: cfg, ctl: fd}, nil
}

func ioctl(fd int, req uint, arg uintptr) (int, error) {
	r, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(req), arg)
	if errno != 0 {
		return -1, errno
	}
	return int(r), nil
}

// Restart resets the board.
func (d *Devfs) Restart() error {
	_, err := ioctl(d.ctl, d.cfg.Ioctl.Restart, 0)
	return err
}

// Run starts the loaded program.
func (d *Devfs) Run() error {
	_, err := ioctl(d.ctl, d.cfg.Ioctl.Run, 0)
	return err
}

// OpenEndpoint opens a channel node and attaches it to cid.
func (d *Devfs) OpenEndpoint(cid uint8) (Endpoint, error) {
	path := fmt.Sprintf(d.cfg.ChannelPath, d.unit)
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := ioctl(fd, d.cfg.Ioctl.Channel, uintptr(cid)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: channel %d: %w", ise.ErrChannelBusy, cid, err)
	}
	return &devEndpoint{fd: fd, ioctl: d.cfg.Ioctl}, nil
}

// SetTimeout sets the read timeout of cid.
func (d *Devfs) SetTimeout(cid uint8, ms int64) error {
	arg := timeoutArg{id: uint32(cid), readTimeout: int(ms)}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.ctl), uintptr(d.cfg.Ioctl.Timeout), uintptr(unsafe.Pointer(&arg)))
	if errno != 0 {
		return errno
	}
	return nil
}

// MakeFrame allocates frame id and maps the size the driver granted.
func (d *Devfs) MakeFrame(via Endpoint, id uint8, size int) ([]byte, error) {
	ep, ok := via.(*devEndpoint)
	if !ok {
		return nil, fmt.Errorf("frame %d: endpoint %T is not a device node", id, via)
	}
	arg := uintptr(id)<<frameShift | uintptr(size)&frameSizeMask
	granted, err := ioctl(ep.fd, d.cfg.Ioctl.MakeFrame, arg)
	if err != nil {
		return nil, err
	}
	if granted <= 0 {
		return nil, fmt.Errorf("frame %d: driver granted %d bytes", id, granted)
	}
	return unix.Mmap(ep.fd, int64(id)<<frameShift, granted, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

// FreeFrame unmaps mem, then releases frame id through via.
func (d *Devfs) FreeFrame(via Endpoint, id uint8, mem []byte) error {
	err := unix.Munmap(mem)
	ep, ok := via.(*devEndpoint)
	if !ok {
		return errors.Join(err, fmt.Errorf("frame %d unmapped but not freed: no open channel", id))
	}
	arg := uintptr(id)<<frameShift | uintptr(len(mem))&frameSizeMask
	_, ferr := ioctl(ep.fd, d.cfg.Ioctl.FreeFrame, arg)
	return errors.Join(err, ferr)
}

// Close closes the control node.
func (d *Devfs) Close() error {
	return unix.Close(d.ctl)
}

type devEndpoint struct {
	fd    int
	ioctl config.Ioctl
}

// Read maps the driver's timeout indications to an empty read.
func (e *devEndpoint) Read(p []byte) (int, error) {
	n, err := unix.Read(e.fd, p)
	switch {
	case errors.Is(err, unix.ETIMEDOUT), errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
		return 0, nil
	case err != nil:
		return 0, err
	}
	return n, nil
}

func (e *devEndpoint) Write(p []byte) (int, error) {
	return unix.Write(e.fd, p)
}

func (e *devEndpoint) Flush() error {
	_, err := ioctl(e.fd, e.ioctl.Flush, 0)
	return err
}

func (e *devEndpoint) Sync() error {
	_, err := ioctl(e.fd, e.ioctl.Sync, 0)
	return err
}

func (e *devEndpoint) Close() error {
	return unix.Close(e.fd)
}

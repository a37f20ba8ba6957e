// Package plug is the plugin backend of pkg/ise: the board is a helper
// executable, <plugin_dir>/<name>.plg, launched per session and driven over
// a control connection (see pkg/plugproto). Identities of the form
// plug:<name> select this backend.
//
// Channels are unix stream connections the helper makes to rendezvous
// sockets under the runtime directory. Frames are files there, mapped by
// both sides and unlinked once the helper acknowledged them.
package plug

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/iseio/iseio-go/pkg/config"
	"github.com/iseio/iseio-go/pkg/ise"
	"github.com/iseio/iseio-go/pkg/log"
	"github.com/iseio/iseio-go/pkg/plugproto"
	"github.com/iseio/iseio-go/pkg/shm"
)

const (
	// Name is the driver name reported by sessions.
	Name = "plug"

	// Prefix starts every plugin identity.
	Prefix = "plug:"

	// HelperExt is the extension of helper executables.
	HelperExt = ".plg"
)

// PluginName returns the helper name of a plugin identity.
func PluginName(identity string) (string, bool) {
	name, ok := strings.CutPrefix(identity, Prefix)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// Probe reports whether identity names a plugin.
func Probe(identity string) bool {
	_, ok := PluginName(identity)
	return ok
}

// HelperPath returns the executable for plugin name.
func HelperPath(dir, name string) string {
	return filepath.Join(dir, name+HelperExt)
}

// Driver returns the plugin driver. If launch is nil, ExecLauncher is used.
func Driver(launch Launcher) ise.Driver {
	if launch == nil {
		launch = ExecLauncher
	}
	return ise.Driver{
		Name:  Name,
		Probe: Probe,
		New: func(identity string, env ise.Env) (ise.Backend, error) {
			return New(identity, launch, env)
		},
	}
}

// Backend implements ise.Backend for a plugin helper.
type Backend struct {
	name      string
	sessionID string
	cfg       config.Config
	launch    Launcher
	logger    *slog.Logger
	protocol  log.Logger

	// ctlMu serialises exchanges that read the control connection.
	ctlMu  sync.Mutex
	ctl    net.Conn
	r      *plugproto.Reader
	w      *plugproto.Writer
	helper Helper

	mu    sync.Mutex
	conns map[uint8]*conn
}

// New creates an unconnected backend for identity.
func New(identity string, launch Launcher, env ise.Env) (*Backend, error) {
	name, ok := PluginName(identity)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ise.ErrIdentityNotFound, identity)
	}
	logger := env.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	sid := env.SessionID
	if sid == "" {
		sid = name
	}
	return &Backend{
		name:      name,
		sessionID: sid,
		cfg:       env.Config,
		launch:    launch,
		logger:    logger,
		protocol:  env.Protocol,
		conns:     make(map[uint8]*conn),
	}, nil
}

// deadline is now+d, or ctx's deadline when that is sooner.
func deadline(ctx context.Context, d time.Duration) time.Time {
	t := time.Now().Add(d)
	if cd, ok := ctx.Deadline(); ok && cd.Before(t) {
		return cd
	}
	return t
}

// Connect launches the helper and waits for its greeting.
func (b *Backend) Connect(ctx context.Context) error {
	path := HelperPath(b.cfg.PluginDir, b.name)
	if err := unix.Access(path, unix.X_OK); err != nil {
		b.logger.Debug("plugin is not executable", "path", path, "error", err)
		return fmt.Errorf("%w: plugin %s is not executable: %w", ise.ErrGeneric, path, err)
	}
	if err := os.MkdirAll(b.cfg.RuntimeDir, 0o700); err != nil {
		return fmt.Errorf("%w: runtime dir: %w", ise.ErrGeneric, err)
	}

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("%w: socketpair: %w", ise.ErrGeneric, err)
	}
	parent := os.NewFile(uintptr(fds[0]), "plugin-ctl")
	child := os.NewFile(uintptr(fds[1]), "plugin-port")

	ctl, err := net.FileConn(parent)
	parent.Close()
	if err != nil {
		child.Close()
		return fmt.Errorf("%w: control connection: %w", ise.ErrGeneric, err)
	}

	helper, err := b.launch(ctx, path, child)
	child.Close()
	if err != nil {
		ctl.Close()
		return fmt.Errorf("%w: launch %s: %w", ise.ErrGeneric, path, err)
	}

	b.ctl = ctl
	b.helper = helper
	b.r = plugproto.NewReader(ctl)
	b.w = plugproto.NewWriter(ctl)
	b.r.SetLogger(b.protocol, b.sessionID)
	b.w.SetLogger(b.protocol, b.sessionID)

	if err := b.awaitHello(ctx); err != nil {
		b.stopHelper()
		b.ctl, b.helper = nil, nil
		return err
	}
	b.logger.Debug("plugin ready", "path", path)
	return nil
}

func (b *Backend) awaitHello(ctx context.Context) error {
	b.ctlMu.Lock()
	defer b.ctlMu.Unlock()

	b.ctl.SetReadDeadline(deadline(ctx, b.cfg.OpenTimeout))
	stop := context.AfterFunc(ctx, func() { b.ctl.SetReadDeadline(time.Now()) })
	defer stop()
	defer b.ctl.SetReadDeadline(time.Time{})

	for {
		line, err := b.r.ReadLine()
		if err != nil {
			return fmt.Errorf("%w: waiting for plugin greeting: %w", ise.ErrGeneric, err)
		}
		b.logger.Debug("message from plugin", "line", line)
		if line == string(plugproto.VerbHello) {
			return nil
		}
	}
}

// Restart is not available: a plugin has no monitor to reset into.
func (b *Backend) Restart(ctx context.Context) error {
	b.logger.Debug("restart not implemented")
	return ise.ErrUnsupported
}

// RunProgram starts the helper's application. The helper does not answer.
func (b *Backend) RunProgram(ctx context.Context) error {
	b.logger.Debug("run program")
	if err := b.w.Send(plugproto.Run()); err != nil {
		return fmt.Errorf("%w: %w", ise.ErrGeneric, err)
	}
	return nil
}

// socketPath is the rendezvous socket of channel id.
func (b *Backend) socketPath(id uint8) string {
	return filepath.Join(b.cfg.RuntimeDir, fmt.Sprintf("%s.%d", b.sessionID, id))
}

// framePath is the backing file of frame id.
func (b *Backend) framePath(id uint8) string {
	return filepath.Join(b.cfg.RuntimeDir, fmt.Sprintf("%s.frame%d", b.sessionID, id))
}

// ChannelOpen listens on a fresh rendezvous socket, asks the helper to
// connect to it and removes the socket once connected.
func (b *Backend) ChannelOpen(ctx context.Context, id uint8) (ise.Conn, error) {
	b.mu.Lock()
	_, busy := b.conns[id]
	b.mu.Unlock()
	if busy {
		return nil, fmt.Errorf("%w: channel %d", ise.ErrChannelBusy, id)
	}

	path := b.socketPath(id)
	os.Remove(path)
	ln, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		b.logger.Debug("unable to bind rendezvous socket", "ch", id, "path", path, "error", err)
		return nil, fmt.Errorf("%w: channel %d: %w", ise.ErrGeneric, id, err)
	}
	defer ln.Close()

	b.logger.Debug("channel open", "ch", id, "pipe", path)
	if err := b.w.Send(plugproto.Open(int(id), path)); err != nil {
		return nil, fmt.Errorf("%w: %w", ise.ErrGeneric, err)
	}

	ln.SetDeadline(deadline(ctx, b.cfg.OpenTimeout))
	stop := context.AfterFunc(ctx, func() { ln.SetDeadline(time.Now()) })
	uc, err := ln.AcceptUnix()
	stop()
	if err != nil {
		return nil, fmt.Errorf("%w: channel %d: plugin did not connect: %w", ise.ErrGeneric, id, err)
	}

	c, err := newConn(id, uc)
	if err != nil {
		uc.Close()
		return nil, fmt.Errorf("%w: channel %d: %w", ise.ErrGeneric, id, err)
	}

	b.mu.Lock()
	b.conns[id] = c
	b.mu.Unlock()
	return c, nil
}

// ChannelSync returns at once: channel writes are not buffered locally.
func (b *Backend) ChannelSync(ctx context.Context, c ise.Conn) error {
	return nil
}

// ChannelClose tells the helper to drop the channel and closes it.
func (b *Backend) ChannelClose(c ise.Conn) error {
	pc, ok := c.(*conn)
	if !ok {
		return fmt.Errorf("%w: foreign channel handle %T", ise.ErrGeneric, c)
	}
	b.logger.Debug("close channel", "ch", pc.id)

	b.mu.Lock()
	if b.conns[pc.id] == pc {
		delete(b.conns, pc.id)
	}
	b.mu.Unlock()

	err := b.w.Send(plugproto.Close(int(pc.id)))
	return errors.Join(err, pc.uc.Close())
}

// SetTimeout applies t to reads of channel id.
func (b *Backend) SetTimeout(id uint8, t ise.Timeout) error {
	b.mu.Lock()
	c := b.conns[id]
	b.mu.Unlock()
	if c == nil {
		return fmt.Errorf("%w: channel %d", ise.ErrChannelUnknown, id)
	}
	if t == ise.TimeoutForce {
		c.force()
		return nil
	}
	c.timeout.Store(int64(t))
	return nil
}

// MakeFrame creates a backing file of size bytes, maps it and hands it to
// the helper. The acknowledgement's fields are logged, not checked.
func (b *Backend) MakeFrame(id uint8, size int) ([]byte, error) {
	path := b.framePath(id)
	mem, err := shm.Create(path, size)
	if err != nil {
		return nil, fmt.Errorf("%w: frame %d: %w", ise.ErrGeneric, id, err)
	}
	defer os.Remove(path)

	ack, err := b.frameExchange(plugproto.Frame(int(id), size, path))
	if err != nil {
		shm.Unmap(mem)
		return nil, fmt.Errorf("%w: frame %d: %w", ise.ErrGeneric, id, err)
	}

	if parsed, perr := plugproto.ParseAck(ack); perr != nil || parsed.ID != int(id) || parsed.Size != size {
		b.logger.Debug("unexpected frame ack", "frame", id, "size", size, "ack", ack)
	} else {
		b.logger.Debug("frame ack", "frame", id, "size", parsed.Size)
	}
	return mem, nil
}

func (b *Backend) frameExchange(cmd plugproto.Command) (string, error) {
	b.ctlMu.Lock()
	defer b.ctlMu.Unlock()

	if err := b.w.Send(cmd); err != nil {
		return "", err
	}
	b.ctl.SetReadDeadline(time.Now().Add(b.cfg.AckTimeout))
	defer b.ctl.SetReadDeadline(time.Time{})
	return b.r.ReadLine()
}

// DeleteFrame unmaps the host's view of the frame.
func (b *Backend) DeleteFrame(id uint8, mem []byte) error {
	return shm.Unmap(mem)
}

// Close closes every channel and the control connection, then gives the
// helper shutdown_timeout to exit before killing it.
func (b *Backend) Close() error {
	b.mu.Lock()
	conns := b.conns
	b.conns = make(map[uint8]*conn)
	b.mu.Unlock()

	for _, c := range conns {
		c.uc.Close()
	}
	if b.ctl == nil {
		return nil
	}
	return b.stopHelper()
}

func (b *Backend) stopHelper() error {
	b.ctl.Close()
	if b.helper == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- b.helper.Wait() }()

	timer := time.NewTimer(b.cfg.ShutdownTimeout)
	defer timer.Stop()
	select {
	case err := <-done:
		b.logger.Debug("plugin exited", "error", err)
		return nil
	case <-timer.C:
	}

	b.logger.Debug("plugin did not exit, killing")
	if err := b.helper.Kill(); err != nil {
		return fmt.Errorf("%w: kill plugin: %w", ise.ErrGeneric, err)
	}
	<-done
	return nil
}

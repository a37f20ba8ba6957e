// Package hw is the hardware backend of pkg/ise. It drives a board through
// its control surface, a Device, which is normally the kernel driver's
// device nodes (see OpenDevfs).
//
// Identities of the form ise<N> select this backend; N is the board number.
package hw

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"sync"

	"github.com/iseio/iseio-go/pkg/config"
	"github.com/iseio/iseio-go/pkg/ise"
	"github.com/iseio/iseio-go/pkg/retry"
)

// Name is the driver name reported by sessions.
const Name = "hw"

// Device is the control surface of one board.
type Device interface {
	// Restart resets the board into its monitor.
	Restart() error

	// Run starts the loaded program. It fails while the board is not ready.
	Run() error

	// OpenEndpoint attaches a new endpoint to channel cid. It returns
	// ise.ErrChannelBusy when the channel is locked.
	OpenEndpoint(cid uint8) (Endpoint, error)

	// SetTimeout sets the read timeout of channel cid in milliseconds, or
	// one of the special values of ise.Timeout.
	SetTimeout(cid uint8, ms int64) error

	// MakeFrame allocates frame id through endpoint via and maps it. The
	// mapping's length is the size the board granted.
	MakeFrame(via Endpoint, id uint8, size int) ([]byte, error)

	// FreeFrame unmaps mem and releases frame id. The mapping is released
	// even when via is nil.
	FreeFrame(via Endpoint, id uint8, mem []byte) error

	Close() error
}

// Endpoint is an open channel of a Device.
type Endpoint interface {
	// Read returns the next delivery. (0, nil) means the channel's timeout
	// elapsed.
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)

	// Flush pushes written bytes to the board.
	Flush() error

	// Sync waits until the board consumed everything written.
	Sync() error

	Close() error
}

// OpenFunc opens the control surface of board unit.
type OpenFunc func(unit int, cfg config.Hardware) (Device, error)

var identityPattern = regexp.MustCompile(`^ise([0-9]+)$`)

// Unit returns the board number of a hardware identity.
func Unit(identity string) (int, bool) {
	m := identityPattern.FindStringSubmatch(identity)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Probe reports whether identity names a hardware board.
func Probe(identity string) bool {
	_, ok := Unit(identity)
	return ok
}

// Driver returns the hardware driver. If open is nil, OpenDevfs is used.
func Driver(open OpenFunc) ise.Driver {
	if open == nil {
		open = OpenDevfs
	}
	return ise.Driver{
		Name:  Name,
		Probe: Probe,
		New: func(identity string, env ise.Env) (ise.Backend, error) {
			return New(identity, open, env)
		},
	}
}

// Backend implements ise.Backend over a Device.
type Backend struct {
	unit   int
	open   OpenFunc
	cfg    config.Config
	logger *slog.Logger

	mu  sync.Mutex
	dev Device

	// Open endpoints in open order. Frames are negotiated through the last.
	conns []*conn
}

// New creates an unconnected backend for identity.
func New(identity string, open OpenFunc, env ise.Env) (*Backend, error) {
	unit, ok := Unit(identity)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ise.ErrIdentityNotFound, identity)
	}
	logger := env.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Backend{
		unit:   unit,
		open:   open,
		cfg:    env.Config,
		logger: logger,
	}, nil
}

// Connect opens the board's control surface.
func (b *Backend) Connect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dev != nil {
		return nil
	}
	dev, err := b.open(b.unit, b.cfg.Hardware)
	if err != nil {
		return fmt.Errorf("%w: open board %d: %w", ise.ErrGeneric, b.unit, err)
	}
	b.dev = dev
	return nil
}

func (b *Backend) device() (Device, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dev == nil {
		return nil, fmt.Errorf("%w: board %d not connected", ise.ErrGeneric, b.unit)
	}
	return b.dev, nil
}

// Restart resets the board.
func (b *Backend) Restart(ctx context.Context) error {
	dev, err := b.device()
	if err != nil {
		return err
	}
	if err := dev.Restart(); err != nil {
		return fmt.Errorf("%w: restart: %w", ise.ErrGeneric, err)
	}
	return nil
}

// RunProgram starts the loaded program. The board refuses while it is still
// digesting the download, so Run is retried per the run_retry settings.
func (b *Backend) RunProgram(ctx context.Context) error {
	dev, err := b.device()
	if err != nil {
		return err
	}
	err = retry.Do(ctx, b.cfg.RunRetry, func(attempt int) error {
		err := dev.Run()
		if err != nil {
			b.logger.Debug("run failed", "attempt", attempt, "error", err)
		}
		return err
	})
	if err != nil {
		b.logger.Debug("run program failed", "error", err)
		return fmt.Errorf("%w: run program: %w", ise.ErrGeneric, err)
	}
	b.logger.Debug("run program complete")
	return nil
}

// ChannelOpen attaches an endpoint to channel id.
func (b *Backend) ChannelOpen(ctx context.Context, id uint8) (ise.Conn, error) {
	dev, err := b.device()
	if err != nil {
		return nil, err
	}
	ep, err := dev.OpenEndpoint(id)
	if err != nil {
		if errors.Is(err, ise.ErrChannelBusy) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: open channel %d: %w", ise.ErrGeneric, id, err)
	}

	c := &conn{id: id, ep: ep}
	b.mu.Lock()
	b.conns = append(b.conns, c)
	b.mu.Unlock()
	return c, nil
}

// ChannelSync waits until the board consumed everything written to c.
func (b *Backend) ChannelSync(ctx context.Context, c ise.Conn) error {
	hc, err := b.own(c)
	if err != nil {
		return err
	}
	if err := hc.ep.Sync(); err != nil {
		return fmt.Errorf("%w: sync channel %d: %w", ise.ErrGeneric, hc.id, err)
	}
	return nil
}

// ChannelClose detaches c.
func (b *Backend) ChannelClose(c ise.Conn) error {
	hc, err := b.own(c)
	if err != nil {
		return err
	}
	b.mu.Lock()
	for i, open := range b.conns {
		if open == hc {
			b.conns = append(b.conns[:i], b.conns[i+1:]...)
			break
		}
	}
	b.mu.Unlock()
	return hc.ep.Close()
}

func (b *Backend) own(c ise.Conn) (*conn, error) {
	hc, ok := c.(*conn)
	if !ok {
		return nil, fmt.Errorf("%w: foreign channel handle %T", ise.ErrGeneric, c)
	}
	return hc, nil
}

// SetTimeout passes the timeout to the board's driver, which implements
// all of its special values.
func (b *Backend) SetTimeout(id uint8, t ise.Timeout) error {
	dev, err := b.device()
	if err != nil {
		return err
	}
	if err := dev.SetTimeout(id, int64(t)); err != nil {
		return fmt.Errorf("%w: timeout channel %d: %w", ise.ErrGeneric, id, err)
	}
	return nil
}

// via returns the most recently opened endpoint, or nil.
func (b *Backend) via() Endpoint {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.conns) == 0 {
		return nil
	}
	return b.conns[len(b.conns)-1].ep
}

// MakeFrame allocates and maps frame id. The board negotiates frames over a
// channel, so at least one must be open.
func (b *Backend) MakeFrame(id uint8, size int) ([]byte, error) {
	dev, err := b.device()
	if err != nil {
		return nil, err
	}
	via := b.via()
	if via == nil {
		return nil, fmt.Errorf("%w: frame %d needs an open channel", ise.ErrGeneric, id)
	}
	mem, err := dev.MakeFrame(via, id, size)
	if err != nil {
		return nil, fmt.Errorf("%w: make frame %d: %w", ise.ErrGeneric, id, err)
	}
	b.logger.Debug("frame mapped", "frame", id, "requested", size, "size", len(mem))
	return mem, nil
}

// DeleteFrame unmaps and releases frame id.
func (b *Backend) DeleteFrame(id uint8, mem []byte) error {
	dev, err := b.device()
	if err != nil {
		return err
	}
	if err := dev.FreeFrame(b.via(), id, mem); err != nil {
		return fmt.Errorf("%w: free frame %d: %w", ise.ErrGeneric, id, err)
	}
	return nil
}

// Close closes any endpoints left open and the control surface.
func (b *Backend) Close() error {
	b.mu.Lock()
	conns := b.conns
	b.conns = nil
	dev := b.dev
	b.dev = nil
	b.mu.Unlock()

	var errs []error
	for _, c := range conns {
		errs = append(errs, c.ep.Close())
	}
	if dev != nil {
		errs = append(errs, dev.Close())
	}
	return errors.Join(errs...)
}

// conn is an ise.Conn over an Endpoint.
type conn struct {
	id uint8
	ep Endpoint
}

func (c *conn) ID() uint8 { return c.id }

func (c *conn) Write(p []byte) (int, error) {
	return c.ep.Write(p)
}

// WriteLine sends text and its terminator in one write, then flushes.
func (c *conn) WriteLine(text string) error {
	if _, err := c.ep.Write([]byte(text + "\n")); err != nil {
		return err
	}
	return c.ep.Flush()
}

func (c *conn) ReadInto(buf []byte) (int, error) {
	n, err := c.ep.Read(buf)
	if err != nil {
		return n, err
	}
	if n == 0 {
		return 0, ise.ErrChannelTimeout
	}
	return n, nil
}

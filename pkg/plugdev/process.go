package plugdev

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/iseio/iseio-go/pkg/log"
	"github.com/iseio/iseio-go/pkg/plugproto"
)

// VersionStamp is the console's answer to the identification command.
const VersionStamp = "plugin-library-version"

// App is a plugin application. It runs once, after the host sends RUN, and
// ctx ends when the process shuts down.
type App func(ctx context.Context, p *Process)

// Process errors.
var (
	// ErrTimeout is returned by ReadLine when no line arrived in time.
	ErrTimeout = errors.New("plugdev: read timed out")

	// ErrClosed is returned by ReadLine once the process shut down.
	ErrClosed = errors.New("plugdev: process closed")

	// ErrRange is returned for channel or frame ids outside their tables.
	ErrRange = errors.New("plugdev: id out of range")
)

// controlID tags events from the control connection.
const controlID = -1

// event is one arrival from a connection reader. err set means the stream
// ended.
type event struct {
	ch   int
	gen  uint64
	line string
	data []byte
	err  error
}

// Process is the device side of one plugin session.
type Process struct {
	ctl io.ReadWriteCloser
	r   *plugproto.Reader
	w   *plugproto.Writer

	app     App
	runOnce sync.Once

	channels [plugproto.MaxChannels]channelSlot
	frames   [plugproto.MaxFrames]frameSlot

	events chan event
	group  *errgroup.Group

	done      chan struct{}
	closeOnce sync.Once

	dial   func(ctx context.Context, addr string) (net.Conn, error)
	logger *slog.Logger
}

// Option configures a Process.
type Option func(*Process)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Process) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithProtocolLogger records control traffic.
func WithProtocolLogger(logger log.Logger) Option {
	return func(p *Process) {
		p.r.SetLogger(logger, "")
		p.w.SetLogger(logger, "")
	}
}

// New creates a process serving the control connection ctl.
func New(ctl io.ReadWriteCloser, app App, opts ...Option) *Process {
	p := &Process{
		ctl:    ctl,
		r:      plugproto.NewReader(ctl),
		w:      plugproto.NewWriter(ctl),
		app:    app,
		events: make(chan event),
		done:   make(chan struct{}),
		logger: slog.New(slog.DiscardHandler),
	}
	var d net.Dialer
	p.dial = func(ctx context.Context, addr string) (net.Conn, error) {
		return d.DialContext(ctx, "unix", addr)
	}
	for i := range p.channels {
		p.channels[i].init()
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Serve greets the host and runs the event loop until the control
// connection ends (nil) or ctx is cancelled (ctx.Err()). On return every
// connection is closed and blocked readers get ErrClosed.
func (p *Process) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	p.group = g

	if err := p.w.Send(plugproto.Hello()); err != nil {
		p.shutdown()
		return fmt.Errorf("plugdev: hello: %w", err)
	}
	p.logger.Debug("start plugin")

	g.Go(func() error { return p.readControl(gctx) })

	err := p.loop(gctx)
	cancel()
	p.shutdown()
	g.Wait()

	p.logger.Debug("plugin stopped", "error", err)
	return err
}

func (p *Process) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-p.events:
			if ev.ch == controlID {
				if ev.err != nil {
					if errors.Is(ev.err, io.EOF) {
						return nil
					}
					return fmt.Errorf("plugdev: control: %w", ev.err)
				}
				p.execute(ctx, ev.line)
				continue
			}
			p.collect(ev)
		}
	}
}

// post hands an event to the loop. It reports false once the loop is gone.
func (p *Process) post(ctx context.Context, ev event) bool {
	select {
	case p.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (p *Process) readControl(ctx context.Context) error {
	for {
		line, err := p.r.ReadLine()
		if errors.Is(err, plugproto.ErrLineTooLong) {
			p.logger.Debug("control line too long, dropped")
			continue
		}
		if err != nil {
			p.post(ctx, event{ch: controlID, err: err})
			return nil
		}
		if !p.post(ctx, event{ch: controlID, line: line}) {
			return nil
		}
	}
}

// pump reads one channel connection into the loop.
func (p *Process) pump(ctx context.Context, ch int, gen uint64, conn net.Conn) error {
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			data := append([]byte(nil), buf[:n]...)
			if !p.post(ctx, event{ch: ch, gen: gen, data: data}) {
				return nil
			}
		}
		if err != nil {
			p.post(ctx, event{ch: ch, gen: gen, err: err})
			return nil
		}
	}
}

// collect applies a channel arrival. Traffic from a replaced or closed
// connection is discarded.
func (p *Process) collect(ev event) {
	c := &p.channels[ev.ch]
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != ev.gen || c.conn == nil {
		return
	}
	if ev.err != nil {
		p.logger.Debug("channel ended", "ch", ev.ch, "error", ev.err)
		c.conn.Close()
		c.conn = nil
		return
	}

	c.appendLocked(ev.data)
	c.wakeLocked()

	if ev.ch == plugproto.ConsoleChannel {
		p.consoleLocked(c)
	}
}

// consoleLocked answers every complete line on the console channel.
func (p *Process) consoleLocked(c *channelSlot) {
	for {
		line, ok := c.takeLineLocked()
		if !ok {
			return
		}
		reply := ">"
		if len(line) > 0 && line[0] == 'i' {
			reply = VersionStamp + "\n>"
		}
		if _, err := io.WriteString(c.conn, reply); err != nil {
			p.logger.Debug("console reply failed", "error", err)
			return
		}
	}
}

func (p *Process) shutdown() {
	p.closeOnce.Do(func() {
		close(p.done)
		p.ctl.Close()
		for i := range p.channels {
			c := &p.channels[i]
			c.mu.Lock()
			if c.conn != nil {
				c.conn.Close()
				c.conn = nil
			}
			c.gen++
			c.mu.Unlock()
		}
		for i := range p.frames {
			p.frames[i].release()
		}
	})
}

// Done is closed when the process shuts down.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

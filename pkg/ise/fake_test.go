package ise

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// fakeConn is an in-memory channel. Bytes queued with deliver are returned
// by ReadInto according to the channel timeout.
type fakeConn struct {
	id      uint8
	inbox   chan []byte
	pending []byte
	force   chan struct{}
	closed  chan struct{}
	once    sync.Once
	timeout atomic.Int64

	mu      sync.Mutex
	written bytes.Buffer
	lines   []string
	onLine  func(c *fakeConn, text string)
}

func newFakeConn(id uint8) *fakeConn {
	c := &fakeConn{
		id:     id,
		inbox:  make(chan []byte, 64),
		force:  make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
	c.timeout.Store(int64(TimeoutOff))
	return c
}

func (c *fakeConn) ID() uint8 { return c.id }

func (c *fakeConn) Write(p []byte) (int, error) {
	select {
	case <-c.closed:
		return 0, io.ErrClosedPipe
	default:
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.written.Write(p)
}

func (c *fakeConn) WriteLine(text string) error {
	if _, err := c.Write([]byte(text + "\n")); err != nil {
		return err
	}
	c.mu.Lock()
	c.lines = append(c.lines, text)
	onLine := c.onLine
	c.mu.Unlock()
	if onLine != nil {
		onLine(c, text)
	}
	return nil
}

func (c *fakeConn) ReadInto(buf []byte) (int, error) {
	if len(c.pending) == 0 {
		select {
		case b := <-c.inbox:
			c.pending = b
		default:
			if err := c.wait(); err != nil {
				return 0, err
			}
		}
	}
	n := copy(buf, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

func (c *fakeConn) wait() error {
	var timer <-chan time.Time
	switch t := Timeout(c.timeout.Load()); {
	case t == TimeoutPoll:
		return ErrChannelTimeout
	case t > 0:
		tm := time.NewTimer(t.Duration())
		defer tm.Stop()
		timer = tm.C
	}
	select {
	case b := <-c.inbox:
		c.pending = b
		return nil
	case <-c.force:
		return ErrChannelTimeout
	case <-timer:
		return ErrChannelTimeout
	case <-c.closed:
		return io.EOF
	}
}

func (c *fakeConn) deliver(s string) {
	c.inbox <- []byte(s)
}

func (c *fakeConn) close() {
	c.once.Do(func() { close(c.closed) })
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) writtenBytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.written.Bytes()...)
}

// fakeBackend records primitive calls.
type fakeBackend struct {
	mu sync.Mutex

	version    string
	restartErr error
	connectErr error
	busy       map[uint8]bool
	onRun      func(b *fakeBackend)

	connected bool
	closed    bool
	restarts  int
	runs      int
	syncs     int
	conns     map[uint8]*fakeConn
	history   []*fakeConn
	frames    map[uint8][]byte
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		version: "ISE prom 2.1",
		busy:    make(map[uint8]bool),
		conns:   make(map[uint8]*fakeConn),
		frames:  make(map[uint8][]byte),
	}
}

func (b *fakeBackend) Connect(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.connectErr != nil {
		return b.connectErr
	}
	b.connected = true
	return nil
}

func (b *fakeBackend) Restart(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.restarts++
	return b.restartErr
}

func (b *fakeBackend) RunProgram(context.Context) error {
	b.mu.Lock()
	b.runs++
	onRun := b.onRun
	b.mu.Unlock()
	if onRun != nil {
		onRun(b)
	}
	return nil
}

func (b *fakeBackend) ChannelOpen(_ context.Context, id uint8) (Conn, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.busy[id] || b.conns[id] != nil {
		return nil, ErrChannelBusy
	}
	c := newFakeConn(id)
	if id == ConsoleChannel {
		version := b.version
		c.onLine = func(c *fakeConn, text string) {
			// Echoing monitor.
			if strings.HasPrefix(text, "i") {
				c.deliver(text + "\r\n" + version + "\r\n>")
				return
			}
			c.deliver(text + "\r\n>")
		}
	}
	b.conns[id] = c
	b.history = append(b.history, c)
	return c, nil
}

func (b *fakeBackend) ChannelSync(context.Context, Conn) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.syncs++
	return nil
}

func (b *fakeBackend) ChannelClose(c Conn) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	fc := c.(*fakeConn)
	fc.close()
	if b.conns[fc.id] == fc {
		delete(b.conns, fc.id)
	}
	return nil
}

func (b *fakeBackend) SetTimeout(id uint8, t Timeout) error {
	b.mu.Lock()
	c := b.conns[id]
	b.mu.Unlock()
	if c == nil {
		return ErrChannelUnknown
	}
	if t == TimeoutForce {
		select {
		case c.force <- struct{}{}:
		default:
		}
		return nil
	}
	c.timeout.Store(int64(t))
	return nil
}

// MakeFrame rounds sizes up to 1 KiB.
func (b *fakeBackend) MakeFrame(id uint8, size int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	actual := (size + 1023) &^ 1023
	mem := make([]byte, actual)
	b.frames[id] = mem
	return mem, nil
}

func (b *fakeBackend) DeleteFrame(id uint8, _ []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.frames, id)
	return nil
}

func (b *fakeBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *fakeBackend) conn(id uint8) *fakeConn {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conns[id]
}

func (b *fakeBackend) lastConn(id uint8) *fakeConn {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.history) - 1; i >= 0; i-- {
		if b.history[i].id == id {
			return b.history[i]
		}
	}
	return nil
}

func (b *fakeBackend) counts() (restarts, runs, syncs int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.restarts, b.runs, b.syncs
}

func (b *fakeBackend) openCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.conns)
}

func (b *fakeBackend) frameCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.frames)
}

// fakeDriver accepts identities with the given prefix and hands out backend.
func fakeDriver(name, prefix string, backend *fakeBackend) Driver {
	return Driver{
		Name:  name,
		Probe: func(identity string) bool { return strings.HasPrefix(identity, prefix) },
		New: func(string, Env) (Backend, error) {
			return backend, nil
		},
	}
}

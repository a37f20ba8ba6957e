package plugdev

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/iseio/iseio-go/pkg/plugproto"
	"github.com/iseio/iseio-go/pkg/shm"
)

func socketPair(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	conns := make([]net.Conn, 2)
	for i, fd := range fds {
		f := os.NewFile(uintptr(fd), fmt.Sprintf("pair%d", i))
		c, err := net.FileConn(f)
		f.Close()
		if err != nil {
			t.Fatalf("FileConn: %v", err)
		}
		conns[i] = c
	}
	return conns[0], conns[1]
}

// host plays the library side of the control connection.
type host struct {
	t      *testing.T
	ctl    net.Conn
	r      *plugproto.Reader
	w      *plugproto.Writer
	dir    string
	cancel context.CancelFunc
	errc   chan error
}

func startProcess(t *testing.T, app App) (*host, *Process) {
	t.Helper()
	a, b := socketPair(t)

	// Socket paths must stay short.
	dir, err := os.MkdirTemp("", "pd")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	ctx, cancel := context.WithCancel(context.Background())
	p := New(b, app)
	h := &host{
		t:      t,
		ctl:    a,
		r:      plugproto.NewReader(a),
		w:      plugproto.NewWriter(a),
		dir:    dir,
		cancel: cancel,
		errc:   make(chan error, 1),
	}
	go func() { h.errc <- p.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		a.Close()
		<-h.errc
	})

	a.SetReadDeadline(time.Now().Add(5 * time.Second))
	line, err := h.r.ReadLine()
	if err != nil || line != "HELLO" {
		t.Fatalf("greeting = %q, %v; want HELLO", line, err)
	}
	return h, p
}

func (h *host) send(cmd plugproto.Command) {
	h.t.Helper()
	if err := h.w.Send(cmd); err != nil {
		h.t.Fatalf("send %s: %v", cmd, err)
	}
}

func (h *host) readControl() string {
	h.t.Helper()
	h.ctl.SetReadDeadline(time.Now().Add(5 * time.Second))
	line, err := h.r.ReadLine()
	if err != nil {
		h.t.Fatalf("read control: %v", err)
	}
	return line
}

// open makes the plugin connect channel ch and returns the host end.
func (h *host) open(ch int) net.Conn {
	h.t.Helper()
	path := filepath.Join(h.dir, fmt.Sprintf("c%d-%d", ch, time.Now().UnixNano()))
	ln, err := net.Listen("unix", path)
	if err != nil {
		h.t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	ln.(*net.UnixListener).SetDeadline(time.Now().Add(5 * time.Second))

	h.send(plugproto.Open(ch, path))
	conn, err := ln.Accept()
	if err != nil {
		h.t.Fatalf("accept channel %d: %v", ch, err)
	}
	h.t.Cleanup(func() { conn.Close() })
	return conn
}

// barrier waits until every command sent before it was executed.
func (h *host) barrier() {
	h.t.Helper()
	h.send(plugproto.Frame(15, 1, filepath.Join(h.dir, "missing")))
	if got := h.readControl(); got != "FRAME 15, 0" {
		h.t.Fatalf("barrier ack = %q", got)
	}
}

func readUntil(t *testing.T, conn net.Conn, r *bufio.Reader, delim byte) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	s, err := r.ReadString(delim)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return s
}

func TestServeEndsWhenHostCloses(t *testing.T) {
	h, p := startProcess(t, nil)

	h.ctl.Close()
	select {
	case err := <-h.errc:
		if err != nil {
			t.Errorf("Serve = %v, want nil", err)
		}
		h.errc <- err
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}

	select {
	case <-p.Done():
	default:
		t.Error("Done not closed")
	}
	if _, err := p.ReadLine(6, Forever); !errors.Is(err, ErrClosed) {
		t.Errorf("ReadLine after shutdown = %v, want ErrClosed", err)
	}
}

func TestServeEndsOnCancel(t *testing.T) {
	h, p := startProcess(t, nil)

	readErr := make(chan error, 1)
	go func() {
		_, err := p.ReadLine(6, Forever)
		readErr <- err
	}()

	h.cancel()
	select {
	case err := <-h.errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve = %v, want context.Canceled", err)
		}
		h.errc <- err
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
	if err := <-readErr; !errors.Is(err, ErrClosed) {
		t.Errorf("blocked ReadLine = %v, want ErrClosed", err)
	}
}

func TestConsoleAnswersIdentification(t *testing.T) {
	h, _ := startProcess(t, nil)
	console := h.open(plugproto.ConsoleChannel)
	r := bufio.NewReader(console)

	io.WriteString(console, "\n")
	if got := readUntil(t, console, r, '>'); got != ">" {
		t.Errorf("empty line reply = %q", got)
	}

	io.WriteString(console, "i\n")
	if got := readUntil(t, console, r, '>'); got != VersionStamp+"\n>" {
		t.Errorf("ident reply = %q", got)
	}
}

func TestReadLineAssemblesArrivals(t *testing.T) {
	h, p := startProcess(t, nil)
	conn := h.open(6)

	io.WriteString(conn, "hel")
	io.WriteString(conn, "lo\nworld\n")

	for _, want := range []string{"hello", "world"} {
		got, err := p.ReadLine(6, 5*time.Second)
		if err != nil || got != want {
			t.Fatalf("ReadLine = %q, %v; want %q", got, err, want)
		}
	}
}

func TestReadLineTimeouts(t *testing.T) {
	h, p := startProcess(t, nil)
	h.open(6)

	if _, err := p.ReadLine(6, 0); !errors.Is(err, ErrTimeout) {
		t.Errorf("poll = %v, want ErrTimeout", err)
	}

	start := time.Now()
	if _, err := p.ReadLine(6, 20*time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Errorf("bounded = %v, want ErrTimeout", err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Error("bounded read returned early")
	}

	if _, err := p.ReadLine(plugproto.MaxChannels, 0); !errors.Is(err, ErrRange) {
		t.Errorf("out of range = %v, want ErrRange", err)
	}
}

func TestForceTimeout(t *testing.T) {
	_, p := startProcess(t, nil)

	done := make(chan error, 1)
	go func() {
		_, err := p.ReadLine(6, Forever)
		done <- err
	}()

	if err := p.ForceTimeout(6); err != nil {
		t.Fatalf("ForceTimeout: %v", err)
	}
	select {
	case err := <-done:
		if !errors.Is(err, ErrTimeout) {
			t.Errorf("ReadLine = %v, want ErrTimeout", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ReadLine not interrupted")
	}
}

func TestWriteLine(t *testing.T) {
	h, p := startProcess(t, nil)

	if err := p.WriteLine(9, "nobody listens"); err != nil {
		t.Errorf("WriteLine on closed channel = %v, want nil", err)
	}
	if p.Connected(9) {
		t.Error("channel 9 reported connected")
	}

	conn := h.open(9)
	h.barrier()
	if !p.Connected(9) {
		t.Fatal("channel 9 not connected after OPEN")
	}
	if err := p.WriteLine(9, "result 42"); err != nil {
		t.Fatalf("WriteLine: %v", err)
	}
	if got := readUntil(t, conn, bufio.NewReader(conn), '\n'); got != "result 42\n" {
		t.Errorf("host read %q", got)
	}
}

func TestOpenReplacesConnection(t *testing.T) {
	h, p := startProcess(t, nil)

	old := h.open(6)
	io.WriteString(old, "stale without end")
	fresh := h.open(6)

	old.SetReadDeadline(time.Now().Add(5 * time.Second))
	// EOF, or a reset if the stale bytes were still queued.
	if _, err := old.Read(make([]byte, 1)); err == nil {
		t.Error("old connection still open")
	}

	io.WriteString(fresh, "fresh\n")
	got, err := p.ReadLine(6, 5*time.Second)
	if err != nil || got != "fresh" {
		t.Errorf("ReadLine = %q, %v; want fresh", got, err)
	}
}

func TestCloseCommand(t *testing.T) {
	h, p := startProcess(t, nil)
	conn := h.open(6)

	h.send(plugproto.Close(6))
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, err := conn.Read(make([]byte, 1)); !errors.Is(err, io.EOF) {
		t.Errorf("read after CLOSE = %v, want EOF", err)
	}
	if p.Connected(6) {
		t.Error("channel 6 still connected")
	}

	// Unknown channels and garbage are ignored.
	h.send(plugproto.Close(7))
	io.WriteString(h.ctl, "BOGUS 1 2\n\nOPEN x y\n")
	h.barrier()
}

func TestFrameAckAndLock(t *testing.T) {
	h, p := startProcess(t, nil)

	path := filepath.Join(h.dir, "frame0")
	hostMem, err := shm.Create(path, 4096)
	if err != nil {
		t.Fatalf("shm.Create: %v", err)
	}
	defer shm.Unmap(hostMem)
	hostMem[0] = 0x5A

	h.send(plugproto.Frame(0, 4096, path))
	if got := h.readControl(); got != "FRAME 0, 4096" {
		t.Fatalf("ack = %q", got)
	}

	fr, err := p.LockFrame(0)
	if err != nil {
		t.Fatalf("LockFrame: %v", err)
	}
	if len(fr.Mem) != 4096 || fr.Mem[0] != 0x5A {
		t.Errorf("frame = %d bytes, first 0x%02x", len(fr.Mem), fr.Mem[0])
	}
	fr.Mem[1] = 0xA5
	fr.Unlock()
	if hostMem[1] != 0xA5 {
		t.Error("device write not visible to host")
	}

	empty, err := p.LockFrame(3)
	if err != nil {
		t.Fatalf("LockFrame(3): %v", err)
	}
	if empty.Mem != nil {
		t.Error("unmade frame has memory")
	}
	empty.Unlock()

	if _, err := p.LockFrame(plugproto.MaxFrames); !errors.Is(err, ErrRange) {
		t.Errorf("LockFrame(16) = %v, want ErrRange", err)
	}
}

func TestRunStartsApplicationOnce(t *testing.T) {
	started := make(chan struct{}, 4)
	h, _ := startProcess(t, func(ctx context.Context, p *Process) {
		started <- struct{}{}
		<-ctx.Done()
	})

	h.send(plugproto.Run())
	h.send(plugproto.Run())
	h.barrier()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("application did not start")
	}
	select {
	case <-started:
		t.Error("application started twice")
	case <-time.After(50 * time.Millisecond):
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestEchoApplication(t *testing.T) {
	out := &syncBuffer{}
	h, _ := startProcess(t, Echo(out))

	path := filepath.Join(h.dir, "frame0")
	mem, err := shm.Create(path, 64)
	if err != nil {
		t.Fatalf("shm.Create: %v", err)
	}
	defer shm.Unmap(mem)

	conn := h.open(EchoChannel)
	h.send(plugproto.Frame(0, 64, path))
	if got := h.readControl(); got != "FRAME 0, 64" {
		t.Fatalf("ack = %q", got)
	}
	h.send(plugproto.Run())

	r := bufio.NewReader(conn)
	for _, word := range []string{"abc", "de"} {
		io.WriteString(conn, word+"\n")
		if got := readUntil(t, conn, r, '\n'); got != word+"\n" {
			t.Fatalf("echo = %q, want %q", got, word)
		}
	}

	if got := string(mem[:bytes.IndexByte(mem, 0)]); got != "abcde" {
		t.Errorf("frame text = %q, want abcde", got)
	}
	if s := out.String(); !strings.Contains(s, "START STUB") || !strings.Contains(s, "GOT: de") {
		t.Errorf("stub output = %q", s)
	}
}

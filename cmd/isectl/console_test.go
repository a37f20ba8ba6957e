package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"runtime"
	"sync"
	"testing"

	"github.com/chzyer/readline"

	"github.com/iseio/iseio-go/pkg/ise"
)

// echoDevice answers every written line with "re: <line>" and unblocks
// readers on a forced timeout.
type echoDevice struct {
	mu      sync.Mutex
	written []string
	timeout ise.Timeout
	lines   chan string
	forced  chan struct{}
	once    sync.Once
	wrErr   error
}

func newEchoDevice() *echoDevice {
	return &echoDevice{lines: make(chan string, 16), forced: make(chan struct{})}
}

func (d *echoDevice) WriteLine(id uint8, text string) error {
	if d.wrErr != nil {
		return d.wrErr
	}
	d.mu.Lock()
	d.written = append(d.written, text)
	d.mu.Unlock()
	d.lines <- "re: " + text
	return nil
}

func (d *echoDevice) ReadLine(id uint8) (string, error) {
	select {
	case l := <-d.lines:
		return l, nil
	case <-d.forced:
		return "", ise.ErrChannelTimeout
	}
}

func (d *echoDevice) SetTimeout(id uint8, t ise.Timeout) error {
	if t == ise.TimeoutForce {
		d.once.Do(func() { close(d.forced) })
		return nil
	}
	d.mu.Lock()
	d.timeout = t
	d.mu.Unlock()
	return nil
}

// typed replays lines, then waits for the echoes before reporting end.
type typed struct {
	lines []string
	wait  func()
	err   error
}

func (t *typed) Readline() (string, error) {
	if len(t.lines) == 0 {
		if t.wait != nil {
			t.wait()
		}
		return "", t.err
	}
	l := t.lines[0]
	t.lines = t.lines[1:]
	return l, nil
}

// syncBuffer is a bytes.Buffer safe for the console's reader goroutine.
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

func waitFor(out *syncBuffer, want string) func() {
	return func() {
		for out.String() != want {
			runtime.Gosched()
		}
	}
}

func TestConsoleCopiesBothWays(t *testing.T) {
	dev := newEchoDevice()
	out := &syncBuffer{}
	in := &typed{lines: []string{"hello", "world"}, err: io.EOF}
	in.wait = waitFor(out, "re: hello\nre: world\n")

	if err := NewConsole(dev, 2, out).Run(context.Background(), in); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := dev.written; len(got) != 2 || got[0] != "hello" || got[1] != "world" {
		t.Errorf("written = %v", got)
	}
	if dev.timeout != ise.TimeoutOff {
		t.Errorf("timeout = %v, want OFF", dev.timeout)
	}
}

func TestConsoleEscapeAndInterrupt(t *testing.T) {
	dev := newEchoDevice()
	out := &syncBuffer{}
	in := &interruptThenEscape{}

	if err := NewConsole(dev, 2, out).Run(context.Background(), in); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(dev.written) != 0 {
		t.Errorf("escape line was sent: %v", dev.written)
	}
}

type interruptThenEscape struct{ n int }

func (i *interruptThenEscape) Readline() (string, error) {
	i.n++
	if i.n == 1 {
		return "", readline.ErrInterrupt
	}
	return EscapeLine, nil
}

func TestConsoleWriteError(t *testing.T) {
	dev := newEchoDevice()
	dev.wrErr = ise.ErrChannelUnknown
	in := &typed{lines: []string{"x"}, err: io.EOF}

	err := NewConsole(dev, 2, io.Discard).Run(context.Background(), in)
	if !errors.Is(err, ise.ErrChannelUnknown) {
		t.Fatalf("err = %v, want ErrChannelUnknown", err)
	}
}

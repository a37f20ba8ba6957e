package plug

import (
	"errors"
	"io"
	"net"
	"os"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/iseio/iseio-go/pkg/ise"
)

// conn is one channel connection. Timeouts are read deadlines; a forced
// timeout moves the deadline to now and leaves a flag for a reader that
// had not started waiting yet.
type conn struct {
	id  uint8
	uc  *net.UnixConn
	raw syscall.RawConn

	timeout atomic.Int64
	forced  atomic.Bool
}

func newConn(id uint8, uc *net.UnixConn) (*conn, error) {
	raw, err := uc.SyscallConn()
	if err != nil {
		return nil, err
	}
	c := &conn{id: id, uc: uc, raw: raw}
	c.timeout.Store(int64(ise.TimeoutOff))
	return c, nil
}

func (c *conn) ID() uint8 { return c.id }

func (c *conn) Write(p []byte) (int, error) {
	return c.uc.Write(p)
}

// WriteLine sends text and its terminator in one write.
func (c *conn) WriteLine(text string) error {
	_, err := c.uc.Write([]byte(text + "\n"))
	return err
}

func (c *conn) force() {
	c.forced.Store(true)
	c.uc.SetReadDeadline(time.Now())
}

// ReadInto waits for the next delivery according to the channel timeout.
func (c *conn) ReadInto(buf []byte) (int, error) {
	if c.forced.Swap(false) {
		return 0, ise.ErrChannelTimeout
	}

	t := ise.Timeout(c.timeout.Load())
	if t == ise.TimeoutPoll {
		return c.poll(buf)
	}

	var d time.Time
	if t > 0 {
		d = time.Now().Add(t.Duration())
	}
	c.uc.SetReadDeadline(d)
	if c.forced.Swap(false) {
		return 0, ise.ErrChannelTimeout
	}

	n, err := c.uc.Read(buf)
	if errors.Is(err, os.ErrDeadlineExceeded) {
		c.forced.Store(false)
		return 0, ise.ErrChannelTimeout
	}
	return n, err
}

// poll reads whatever is queued without waiting.
func (c *conn) poll(buf []byte) (int, error) {
	var (
		n    int
		rerr error
	)
	err := c.raw.Read(func(fd uintptr) bool {
		n, rerr = unix.Read(int(fd), buf)
		return true
	})
	switch {
	case err != nil:
		return 0, err
	case errors.Is(rerr, unix.EAGAIN):
		return 0, ise.ErrChannelTimeout
	case rerr != nil:
		return 0, rerr
	case n == 0:
		return 0, io.EOF
	}
	return n, nil
}

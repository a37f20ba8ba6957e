package plugdev

import (
	"bytes"
	"net"
	"sync"
	"time"

	"github.com/iseio/iseio-go/pkg/plugproto"
)

// Forever makes ReadLine wait until a line arrives.
const Forever time.Duration = -1

// channelSlot is one entry of the channel table.
type channelSlot struct {
	mu sync.Mutex

	conn net.Conn
	// gen changes whenever conn is replaced or closed.
	gen uint64

	// buf holds received bytes not yet read; partial is the length of the
	// unterminated line at its end.
	buf     []byte
	partial int

	// arrival is closed and replaced whenever data arrives.
	arrival chan struct{}
	force   chan struct{}
}

func (c *channelSlot) init() {
	c.arrival = make(chan struct{})
	c.force = make(chan struct{}, 1)
}

// appendLocked buffers data. A line longer than plugproto.MaxLineSize keeps
// its first MaxLineSize bytes; the rest up to its terminator is dropped.
func (c *channelSlot) appendLocked(data []byte) {
	for len(data) > 0 {
		chunk := data
		end := bytes.IndexByte(data, '\n')
		if end >= 0 {
			chunk = data[:end]
			data = data[end+1:]
		} else {
			data = nil
		}

		if room := plugproto.MaxLineSize - c.partial; len(chunk) > room {
			chunk = chunk[:max(room, 0)]
		}
		c.buf = append(c.buf, chunk...)
		c.partial += len(chunk)

		if end >= 0 {
			c.buf = append(c.buf, '\n')
			c.partial = 0
		}
	}
}

func (c *channelSlot) wakeLocked() {
	close(c.arrival)
	c.arrival = make(chan struct{})
}

// takeLineLocked removes the first complete line.
func (c *channelSlot) takeLineLocked() (string, bool) {
	i := bytes.IndexByte(c.buf, '\n')
	if i < 0 {
		return "", false
	}
	line := string(c.buf[:i])
	c.buf = c.buf[i+1:]
	if len(c.buf) == 0 {
		c.buf = nil
	}
	return line, true
}

// resetLocked attaches conn, discarding buffered traffic.
func (c *channelSlot) resetLocked(conn net.Conn) {
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn = conn
	c.gen++
	c.buf = nil
	c.partial = 0
}

func (p *Process) slot(ch int) (*channelSlot, error) {
	if ch < 0 || ch >= plugproto.MaxChannels {
		return nil, ErrRange
	}
	return &p.channels[ch], nil
}

// ReadLine returns the next line received on channel ch, without its
// terminator. A negative timeout (Forever) waits indefinitely, zero polls,
// and a positive timeout bounds the wait. It returns ErrTimeout when no
// line is available, including after ForceTimeout.
func (p *Process) ReadLine(ch int, timeout time.Duration) (string, error) {
	c, err := p.slot(ch)
	if err != nil {
		return "", err
	}

	var deadline <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		deadline = t.C
	}

	for {
		c.mu.Lock()
		line, ok := c.takeLineLocked()
		arrival := c.arrival
		c.mu.Unlock()

		if ok {
			p.logger.Debug("readln", "ch", ch, "text", line)
			return line, nil
		}
		if timeout == 0 {
			return "", ErrTimeout
		}

		select {
		case <-arrival:
		case <-deadline:
			p.logger.Debug("readln gave up", "ch", ch)
			return "", ErrTimeout
		case <-c.force:
			p.logger.Debug("readln forced", "ch", ch)
			return "", ErrTimeout
		case <-p.done:
			return "", ErrClosed
		}
	}
}

// ForceTimeout makes a ReadLine blocked on ch, or the next one, return
// ErrTimeout.
func (p *Process) ForceTimeout(ch int) error {
	c, err := p.slot(ch)
	if err != nil {
		return err
	}
	select {
	case c.force <- struct{}{}:
	default:
	}
	return nil
}

// WriteLine sends text and a terminator on channel ch. Lines for a channel
// the host has not opened are dropped.
func (p *Process) WriteLine(ch int, text string) error {
	c, err := p.slot(ch)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		p.logger.Debug("writeln dropped, channel not open", "ch", ch)
		return nil
	}
	if _, err := c.conn.Write([]byte(text + "\n")); err != nil {
		return err
	}
	return nil
}

// Connected reports whether the host has channel ch open.
func (p *Process) Connected(ch int) bool {
	c, err := p.slot(ch)
	if err != nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

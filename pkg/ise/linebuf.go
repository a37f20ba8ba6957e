package ise

import (
	"errors"
	"io"
	"sync"
)

// Source is the raw byte supply of a LineBuffer.
type Source interface {
	ReadInto(buf []byte) (int, error)
}

// LineBuffer assembles delimited records from raw deliveries of a channel.
//
// The buffer has a single consumer at a time. A record longer than the
// capacity is truncated, but the input is still consumed through its
// delimiter so the stream stays aligned. A timeout keeps the partial record
// for the next call. A transport failure after part of a record arrived
// returns that part first and reports the failure on the next call.
type LineBuffer struct {
	mu sync.Mutex

	src      Source
	capacity int

	// Raw delivery: buf[ptr:fill] not yet consumed.
	buf       []byte
	ptr, fill int

	// Record in progress.
	line      []byte
	truncated bool

	// Transport failure deferred behind a delivered partial record.
	pending error
}

// NewLineBuffer creates a buffer of the given capacity reading from src.
func NewLineBuffer(src Source, capacity int) *LineBuffer {
	if capacity < 2 {
		capacity = 2
	}
	return &LineBuffer{
		src:      src,
		capacity: capacity,
		buf:      make([]byte, capacity),
		line:     make([]byte, 0, capacity),
	}
}

// Line is one record read from a channel.
type Line struct {
	// Text is the record with its delimiter removed.
	Text string

	// Truncated reports that the record exceeded the buffer capacity.
	Truncated bool

	// Partial reports a record cut short by a transport failure.
	Partial bool
}

// ReadLine returns the next newline-terminated line.
func (b *LineBuffer) ReadLine() (Line, error) {
	return b.ReadUntil('\n')
}

// ReadUntil returns the bytes up to the next delim, which is consumed and
// not returned.
func (b *LineBuffer) ReadUntil(delim byte) (Line, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pending != nil {
		err := b.pending
		b.pending = nil
		return Line{}, err
	}

	for {
		for b.ptr < b.fill {
			c := b.buf[b.ptr]
			b.ptr++
			if c == delim {
				return b.take(false), nil
			}
			if len(b.line) < b.capacity {
				b.line = append(b.line, c)
			} else {
				b.truncated = true
			}
		}

		n, err := b.src.ReadInto(b.buf)
		if err == nil && n == 0 {
			err = io.EOF
		}
		if err != nil {
			if errors.Is(err, ErrChannelTimeout) {
				return Line{}, err
			}
			err = transportError("read", err)
			if len(b.line) > 0 || b.truncated {
				b.pending = err
				return b.take(true), nil
			}
			return Line{}, err
		}
		b.ptr = 0
		b.fill = n
	}
}

// Buffered returns the number of raw bytes received but not yet consumed.
func (b *LineBuffer) Buffered() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fill - b.ptr
}

func (b *LineBuffer) take(partial bool) Line {
	l := Line{Text: string(b.line), Truncated: b.truncated, Partial: partial}
	b.line = b.line[:0]
	b.truncated = false
	return l
}

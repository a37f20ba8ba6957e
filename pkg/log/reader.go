package log

import (
	"bufio"
	"errors"
	"io"
	"iter"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Filter selects events. Zero fields match everything.
type Filter struct {
	SessionID string
	Identity  string

	// Channel matches channel-scoped events only.
	Channel *uint8

	Direction *Direction
	Layer     *Layer
	Category  *Category

	// TimeStart is inclusive, TimeEnd exclusive.
	TimeStart *time.Time
	TimeEnd   *time.Time
}

// Matches reports whether event passes every set criterion.
func (f *Filter) Matches(event Event) bool {
	switch {
	case f.SessionID != "" && f.SessionID != event.SessionID:
	case f.Identity != "" && f.Identity != event.Identity:
	case f.Channel != nil && (event.Channel == nil || *f.Channel != *event.Channel):
	case f.Direction != nil && *f.Direction != event.Direction:
	case f.Layer != nil && *f.Layer != event.Layer:
	case f.Category != nil && *f.Category != event.Category:
	case f.TimeStart != nil && event.Timestamp.Before(*f.TimeStart):
	case f.TimeEnd != nil && !event.Timestamp.Before(*f.TimeEnd):
	default:
		return true
	}
	return false
}

// Reader streams events back from a log file.
type Reader struct {
	f      *os.File
	dec    *cbor.Decoder
	filter Filter
}

// NewReader opens path for reading every event.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader opens path for reading the events filter matches.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{f: f, dec: decMode.NewDecoder(bufio.NewReader(f)), filter: filter}, nil
}

// Next returns the next matching event, or io.EOF at the end of the file.
// A record cut short by a crashed writer is reported as
// io.ErrUnexpectedEOF.
func (r *Reader) Next() (Event, error) {
	for {
		var event Event
		if err := r.dec.Decode(&event); err != nil {
			return Event{}, err
		}
		if r.filter.Matches(event) {
			return event, nil
		}
	}
}

// Events iterates over the remaining matching events. Iteration stops after
// the first error, which is yielded; the end of the file is not an error.
func (r *Reader) Events() iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		for {
			event, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(event, err) || err != nil {
				return
			}
		}
	}
}

// Close closes the file.
func (r *Reader) Close() error {
	return r.f.Close()
}

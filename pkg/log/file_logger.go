package log

import (
	"os"
	"sync"
	"sync/atomic"
)

// FileLogger appends events to a file, one CBOR record per write. The file
// is opened O_APPEND, so a host and its plugin helper may share one log;
// records never interleave.
type FileLogger struct {
	mu   sync.Mutex
	file *os.File // nil once closed

	dropped atomic.Uint64
}

// NewFileLogger opens path for appending, creating it if needed. Existing
// content is kept.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileLogger{file: f}, nil
}

// Log writes event. Failures are counted in Dropped; a session never
// sees them. Events logged after Close are ignored.
func (l *FileLogger) Log(event Event) {
	rec, err := EncodeEvent(event)
	if err != nil {
		l.dropped.Add(1)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}
	if _, err := l.file.Write(rec); err != nil {
		l.dropped.Add(1)
	}
}

// Dropped returns the number of events that could not be written.
func (l *FileLogger) Dropped() uint64 {
	return l.dropped.Load()
}

// Close closes the file. Further calls do nothing.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

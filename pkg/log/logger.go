package log

// Logger receives protocol events from sessions, backends and plugin
// control connections. Log is called from several goroutines and on the
// channel I/O path: implementations must be safe for concurrent use and
// must not block.
type Logger interface {
	Log(event Event)
}

// NoopLogger drops every event. The zero value is ready to use.
type NoopLogger struct{}

func (NoopLogger) Log(Event) {}

// Enabled reports whether l records anything.
func Enabled(l Logger) bool {
	switch l.(type) {
	case nil, NoopLogger, *NoopLogger:
		return false
	}
	return true
}

// MultiLogger hands each event to several loggers in order.
type MultiLogger []Logger

// NewMultiLogger combines the enabled loggers among ls. With none it returns
// NoopLogger, with one that logger itself.
func NewMultiLogger(ls ...Logger) Logger {
	var m MultiLogger
	for _, l := range ls {
		if Enabled(l) {
			m = append(m, l)
		}
	}
	switch len(m) {
	case 0:
		return NoopLogger{}
	case 1:
		return m[0]
	}
	return m
}

func (m MultiLogger) Log(event Event) {
	for _, l := range m {
		l.Log(event)
	}
}

package log

import (
	"sync"
	"testing"
)

type recordingLogger struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingLogger) Log(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func TestMultiLoggerFansOut(t *testing.T) {
	a := &recordingLogger{}
	b := &recordingLogger{}
	m := NewMultiLogger(a, nil, b, NoopLogger{})
	if _, ok := m.(MultiLogger); !ok {
		t.Fatalf("NewMultiLogger returned %T", m)
	}

	m.Log(Event{SessionID: "x"})
	m.Log(Event{SessionID: "y"})

	if len(a.events) != 2 || len(b.events) != 2 {
		t.Errorf("got a=%d b=%d events, want 2 each", len(a.events), len(b.events))
	}
}

func TestMultiLoggerCollapses(t *testing.T) {
	if _, ok := NewMultiLogger(nil, NoopLogger{}).(NoopLogger); !ok {
		t.Error("no enabled loggers should give NoopLogger")
	}
	a := &recordingLogger{}
	if got := NewMultiLogger(nil, a); got != Logger(a) {
		t.Errorf("single logger wrapped: %T", got)
	}
}

func TestEnabled(t *testing.T) {
	tests := []struct {
		l    Logger
		want bool
	}{
		{nil, false},
		{NoopLogger{}, false},
		{&NoopLogger{}, false},
		{&recordingLogger{}, true},
		{MultiLogger{}, true},
	}
	for _, tt := range tests {
		if got := Enabled(tt.l); got != tt.want {
			t.Errorf("Enabled(%T) = %v, want %v", tt.l, got, tt.want)
		}
	}
}

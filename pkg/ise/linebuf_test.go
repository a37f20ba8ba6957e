package ise

import (
	"errors"
	"io"
	"testing"
)

// step is one scripted ReadInto result.
type step struct {
	data string
	err  error
}

type scriptSource struct {
	steps []step
	calls int
}

func (s *scriptSource) ReadInto(buf []byte) (int, error) {
	s.calls++
	if len(s.steps) == 0 {
		return 0, io.EOF
	}
	st := s.steps[0]
	if st.err != nil {
		s.steps = s.steps[1:]
		return 0, st.err
	}
	n := copy(buf, st.data)
	if n < len(st.data) {
		s.steps[0].data = st.data[n:]
	} else {
		s.steps = s.steps[1:]
	}
	return n, nil
}

func readLines(t *testing.T, b *LineBuffer, n int) []Line {
	t.Helper()
	var out []Line
	for i := 0; i < n; i++ {
		l, err := b.ReadLine()
		if err != nil {
			t.Fatalf("ReadLine %d: %v", i, err)
		}
		out = append(out, l)
	}
	return out
}

func TestLineBufferAssemblesAcrossDeliveries(t *testing.T) {
	src := &scriptSource{steps: []step{{data: "he"}, {data: "llo\nwor"}, {data: "ld\n"}}}
	b := NewLineBuffer(src, 64)

	got := readLines(t, b, 2)
	if got[0].Text != "hello" || got[1].Text != "world" {
		t.Errorf("lines = %q, %q", got[0].Text, got[1].Text)
	}
}

func TestLineBufferSeveralLinesPerDelivery(t *testing.T) {
	src := &scriptSource{steps: []step{{data: "a\nbb\n\nccc\n"}}}
	b := NewLineBuffer(src, 64)

	want := []string{"a", "bb", "", "ccc"}
	for i, l := range readLines(t, b, len(want)) {
		if l.Text != want[i] {
			t.Errorf("line %d = %q, want %q", i, l.Text, want[i])
		}
	}
	if src.calls != 1 {
		t.Errorf("source read %d times, want 1", src.calls)
	}
}

func TestLineBufferTruncatesAndResyncs(t *testing.T) {
	src := &scriptSource{steps: []step{{data: "abcdefgh"}, {data: "ij\nxy\n"}}}
	b := NewLineBuffer(src, 4)

	got := readLines(t, b, 2)
	if got[0].Text != "abcd" || !got[0].Truncated {
		t.Errorf("first = %+v, want truncated \"abcd\"", got[0])
	}
	if got[1].Text != "xy" || got[1].Truncated {
		t.Errorf("second = %+v, want \"xy\"", got[1])
	}
}

func TestLineBufferTimeoutKeepsPartial(t *testing.T) {
	src := &scriptSource{steps: []step{{data: "par"}, {err: ErrChannelTimeout}, {data: "tial\n"}}}
	b := NewLineBuffer(src, 64)

	if _, err := b.ReadLine(); !errors.Is(err, ErrChannelTimeout) {
		t.Fatalf("first call err = %v, want ErrChannelTimeout", err)
	}
	l, err := b.ReadLine()
	if err != nil || l.Text != "partial" {
		t.Fatalf("second call = %+v, %v", l, err)
	}
}

func TestLineBufferPollEmpty(t *testing.T) {
	src := &scriptSource{steps: []step{{err: ErrChannelTimeout}}}
	b := NewLineBuffer(src, 64)

	_, err := b.ReadLine()
	if CodeOf(err) != ChannelTimeout {
		t.Errorf("CodeOf = %v, want ChannelTimeout", CodeOf(err))
	}
}

func TestLineBufferPartialThenFailure(t *testing.T) {
	src := &scriptSource{steps: []step{{data: "abc"}, {err: io.ErrUnexpectedEOF}}}
	b := NewLineBuffer(src, 64)

	l, err := b.ReadLine()
	if err != nil {
		t.Fatalf("partial read returned error %v", err)
	}
	if l.Text != "abc" || !l.Partial {
		t.Errorf("line = %+v, want partial \"abc\"", l)
	}

	_, err = b.ReadLine()
	if !errors.Is(err, ErrGeneric) || !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("deferred err = %v, want ErrGeneric wrapping cause", err)
	}
}

func TestLineBufferEOF(t *testing.T) {
	b := NewLineBuffer(&scriptSource{}, 64)
	if _, err := b.ReadLine(); CodeOf(err) != Error {
		t.Errorf("err = %v, want Error code", err)
	}
}

func TestLineBufferReadUntil(t *testing.T) {
	src := &scriptSource{steps: []step{{data: "\nboot>"}, {data: "i\nver 1\n>rest\n"}}}
	b := NewLineBuffer(src, 64)

	first, err := b.ReadUntil('>')
	if err != nil || first.Text != "\nboot" {
		t.Fatalf("first = %+v, %v", first, err)
	}
	second, err := b.ReadUntil('>')
	if err != nil || second.Text != "i\nver 1\n" {
		t.Fatalf("second = %+v, %v", second, err)
	}
	if b.Buffered() != len("rest\n") {
		t.Errorf("Buffered() = %d, want %d", b.Buffered(), len("rest\n"))
	}
	l, err := b.ReadLine()
	if err != nil || l.Text != "rest" {
		t.Errorf("line after prompts = %+v, %v", l, err)
	}
}

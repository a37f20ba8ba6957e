package commands

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iseio/iseio-go/pkg/log"
)

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.ilog")

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()
	return path
}

const sid = "3f2a9c1e-0000-4000-8000-000000000001"

func sampleEvents() []log.Event {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)
	return []log.Event{
		{
			Timestamp: ts, SessionID: sid, Identity: "plug:stub",
			Direction: log.DirectionLocal, Layer: log.LayerSession, Category: log.CategoryState,
			StateChange: &log.StateChangeEvent{OldState: "UNBOUND", NewState: "BOUND", Reason: "bind"},
		},
		{
			Timestamp: ts.Add(time.Millisecond), SessionID: sid, Identity: "plug:stub",
			Direction: log.DirectionOut, Layer: log.LayerControl, Category: log.CategoryControl,
			Control: &log.ControlEvent{Command: "OPEN", Args: []string{"6", "/tmp/x.6"}},
		},
		{
			Timestamp: ts.Add(2 * time.Millisecond), SessionID: sid, Identity: "plug:stub",
			Direction: log.DirectionIn, Layer: log.LayerChannel, Category: log.CategoryLine,
			Channel: log.ChannelID(6), Line: &log.LineEvent{Text: "pong"},
		},
		{
			Timestamp: ts.Add(3 * time.Millisecond), SessionID: sid, Identity: "plug:stub",
			Direction: log.DirectionOut, Layer: log.LayerChannel, Category: log.CategoryData,
			Channel: log.ChannelID(0), Data: log.NewDataEvent([]byte{0xde, 0xad}),
		},
		{
			Timestamp: ts.Add(4 * time.Millisecond), SessionID: sid, Identity: "plug:stub",
			Direction: log.DirectionLocal, Layer: log.LayerBackend, Category: log.CategoryError,
			Error: &log.ErrorEventData{Layer: log.LayerBackend, Message: "no such channel", Context: "readline"},
		},
	}
}

func TestFormatEvent(t *testing.T) {
	events := sampleEvents()

	var buf bytes.Buffer
	formatEvent(&buf, events[2])
	out := buf.String()
	for _, want := range []string{"2026-01-28T10:15:32.125456Z", "[3f2a9c1e plug:stub]", "IN", "CHANNEL ch=6 Line", `Text: "pong"`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}

	buf.Reset()
	formatEvent(&buf, events[3])
	if !strings.Contains(buf.String(), "Data: dead") {
		t.Errorf("data not hex encoded:\n%s", buf.String())
	}

	buf.Reset()
	formatEvent(&buf, events[1])
	if !strings.Contains(buf.String(), "OPEN 6 /tmp/x.6") {
		t.Errorf("control command not shown:\n%s", buf.String())
	}
}

func TestRunViewFilters(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	var buf bytes.Buffer
	if err := RunView(path, Selection{Channel: "6"}, &buf); err != nil {
		t.Fatalf("RunView: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "pong") || strings.Contains(out, "OPEN") {
		t.Errorf("channel filter not applied:\n%s", out)
	}

	buf.Reset()
	if err := RunView(path, Selection{Category: "error"}, &buf); err != nil {
		t.Fatalf("RunView: %v", err)
	}
	if strings.Count(buf.String(), "Error") != 1 {
		t.Errorf("expected only the error event:\n%s", buf.String())
	}

	if err := RunView(path, Selection{Layer: "wire"}, &buf); err == nil {
		t.Error("expected error for unknown layer")
	}
}

func TestParseFlags(t *testing.T) {
	if l, err := ParseLayer("Control"); err != nil || l != log.LayerControl {
		t.Errorf("ParseLayer = %v, %v", l, err)
	}
	if _, err := ParseLayer("wire"); err == nil {
		t.Error("expected error for unknown layer")
	}
	if d, err := ParseDirection("LOCAL"); err != nil || d != log.DirectionLocal {
		t.Errorf("ParseDirection = %v, %v", d, err)
	}
	if c, err := ParseCategory("frame"); err != nil || c != log.CategoryFrame {
		t.Errorf("ParseCategory = %v, %v", c, err)
	}
	if ch, err := ParseChannel("254"); err != nil || ch != 254 {
		t.Errorf("ParseChannel = %v, %v", ch, err)
	}
	if _, err := ParseChannel("256"); err == nil {
		t.Error("expected error for channel 256")
	}
}

func TestStats(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Total Events: 5",
		"CHANNEL:     2",
		"Sessions: 1",
		"Device: plug:stub",
		"Channels: [0 6]",
		"Bytes out: 2",
		"State: BOUND",
		"Errors: 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestExportJSONL(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "out.jsonl")

	if err := RunExport(path, "jsonl", out); err != nil {
		t.Fatalf("RunExport: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5", len(lines))
	}
	var ev log.Event
	if err := json.Unmarshal([]byte(lines[2]), &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Line == nil || ev.Line.Text != "pong" {
		t.Errorf("line event = %+v", ev.Line)
	}
}

func TestExportCSV(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "out.csv")

	if err := RunExport(path, "csv", out); err != nil {
		t.Fatalf("RunExport: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 6 {
		t.Fatalf("got %d rows, want 6", len(rows))
	}
	if rows[0][1] != "session_id" {
		t.Errorf("header = %v", rows[0])
	}
	if got := rows[3]; got[6] != "6" || got[7] != "Line" || got[8] != "pong" {
		t.Errorf("line row = %v", got)
	}

	if err := RunExport(path, "xml", ""); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestRunFilter(t *testing.T) {
	events := sampleEvents()
	other := events[2]
	other.SessionID = "other"
	path := createTestLogFile(t, append(events, other))
	out := filepath.Join(t.TempDir(), "filtered.ilog")

	n, err := RunFilter(path, Selection{SessionID: sid, Layer: "channel"}, out)
	if err != nil {
		t.Fatalf("RunFilter: %v", err)
	}
	if n != 2 {
		t.Errorf("filtered %d events, want 2", n)
	}

	r, err := log.NewReader(out)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	count := 0
	for {
		ev, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		if ev.SessionID != sid || ev.Layer != log.LayerChannel {
			t.Errorf("unexpected event %+v", ev)
		}
		count++
	}
	if count != 2 {
		t.Errorf("read back %d events", count)
	}

	if _, err := RunFilter(path, Selection{TimeStart: "yesterday"}, out); err == nil {
		t.Error("expected error for bad time")
	}
}

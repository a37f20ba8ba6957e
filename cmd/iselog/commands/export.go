package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/iseio/iseio-go/pkg/log"
)

// csvHeader names the columns written by the csv export.
var csvHeader = []string{"timestamp", "session_id", "identity", "direction", "layer", "category", "channel", "type", "detail"}

// RunExport writes every event of path to output (stdout when empty) as
// JSON lines or CSV.
func RunExport(path, format, output string) error {
	var write func(io.Writer) (func(log.Event) error, func() error)
	switch format {
	case "jsonl":
		write = jsonlWriter
	case "csv":
		write = csvWriter
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	emit, flush := write(w)
	if err := scan(path, log.Filter{}, emit); err != nil {
		return err
	}
	return flush()
}

func jsonlWriter(w io.Writer) (func(log.Event) error, func() error) {
	enc := json.NewEncoder(w)
	emit := func(ev log.Event) error {
		if err := enc.Encode(ev); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
		return nil
	}
	return emit, func() error { return nil }
}

func csvWriter(w io.Writer) (func(log.Event) error, func() error) {
	cw := csv.NewWriter(w)
	cw.Write(csvHeader)
	emit := func(ev log.Event) error {
		return cw.Write(csvRow(ev))
	}
	flush := func() error {
		cw.Flush()
		return cw.Error()
	}
	return emit, flush
}

func csvRow(ev log.Event) []string {
	channel := ""
	if ev.Channel != nil {
		channel = strconv.Itoa(int(*ev.Channel))
	}
	return []string{
		ev.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
		ev.SessionID,
		ev.Identity,
		ev.Direction.String(),
		ev.Layer.String(),
		ev.Category.String(),
		channel,
		typeLabel(ev),
		detail(ev),
	}
}

// detail is the one-cell summary of an event's payload.
func detail(ev log.Event) string {
	switch {
	case ev.Line != nil:
		return ev.Line.Text
	case ev.Data != nil:
		return strconv.Itoa(ev.Data.Size)
	case ev.Control != nil:
		return fmt.Sprint(ev.Control.Args)
	case ev.StateChange != nil:
		return ev.StateChange.NewState
	case ev.Frame != nil:
		return fmt.Sprintf("%d/%d", ev.Frame.ID, ev.Frame.Size)
	case ev.Error != nil:
		return ev.Error.Message
	}
	return ""
}

// RunFilter copies the events of path selected by sel into a new log at
// output and returns how many it wrote.
func RunFilter(path string, sel Selection, output string) (int, error) {
	filter, err := sel.Filter()
	if err != nil {
		return 0, err
	}

	out, err := log.NewFileLogger(output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output logger: %w", err)
	}
	defer out.Close()

	n := 0
	err = scan(path, filter, func(ev log.Event) error {
		out.Log(ev)
		n++
		return nil
	})
	if d := out.Dropped(); err == nil && d > 0 {
		err = fmt.Errorf("%d events could not be written", d)
	}
	return n, err
}

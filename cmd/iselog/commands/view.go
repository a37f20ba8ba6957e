// Package commands implements the iselog CLI commands.
package commands

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/iseio/iseio-go/pkg/log"
)

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// timestamp [session] DIRECTION LAYER ch=N Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	scope := ""
	if event.Channel != nil {
		scope = fmt.Sprintf(" ch=%d", *event.Channel)
	}

	fmt.Fprintf(w, "%s [%s %s] %-5s %s%s %s\n", ts, shortenID(event.SessionID), event.Identity,
		event.Direction.String(), event.Layer.String(), scope, typeLabel(event))

	switch {
	case event.Line != nil:
		fmt.Fprintf(w, "  Text: %q\n", event.Line.Text)
		if event.Line.Truncated {
			fmt.Fprintln(w, "  (truncated to line capacity)")
		}
	case event.Data != nil:
		formatDataDetails(w, event.Data)
	case event.Control != nil:
		fmt.Fprintf(w, "  %s\n", strings.Join(append([]string{event.Control.Command}, event.Control.Args...), " "))
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Frame != nil:
		fmt.Fprintf(w, "  Frame %d: %d bytes\n", event.Frame.ID, event.Frame.Size)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

// typeLabel names the payload carried by event.
func typeLabel(event log.Event) string {
	switch {
	case event.Line != nil:
		return "Line"
	case event.Data != nil:
		return "Data"
	case event.Control != nil:
		return event.Control.Command
	case event.StateChange != nil:
		return "State"
	case event.Frame != nil:
		return "Frame " + event.Frame.Op.String()
	case event.Error != nil:
		return "Error"
	default:
		return "Unknown"
	}
}

// shortenID returns the first 8 characters of a session ID.
func shortenID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatDataDetails(w io.Writer, data *log.DataEvent) {
	fmt.Fprintf(w, "  Size: %d bytes\n", data.Size)
	if len(data.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s", hex.EncodeToString(data.Data))
		if data.Truncated {
			fmt.Fprintf(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer.String())
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Code != nil {
		fmt.Fprintf(w, "  Code: %d\n", *err.Code)
	}
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// RunView prints the selected events of path to output.
func RunView(path string, sel Selection, output io.Writer) error {
	filter, err := sel.Filter()
	if err != nil {
		return err
	}
	return scan(path, filter, func(ev log.Event) error {
		formatEvent(output, ev)
		return nil
	})
}

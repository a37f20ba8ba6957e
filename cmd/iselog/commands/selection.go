package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iseio/iseio-go/pkg/log"
)

// Selection holds the textual selection flags shared by the commands.
type Selection struct {
	SessionID string
	Identity  string
	Channel   string
	TimeStart string
	TimeEnd   string
	Layer     string
	Direction string
	Category  string
}

// Filter parses the selection into a log.Filter.
func (s Selection) Filter() (log.Filter, error) {
	f := log.Filter{SessionID: s.SessionID, Identity: s.Identity}
	var err error
	if s.Channel != "" {
		f.Channel, err = parsePtr(s.Channel, ParseChannel)
		if err != nil {
			return f, err
		}
	}
	if s.TimeStart != "" {
		if f.TimeStart, err = parseTime("time-start", s.TimeStart); err != nil {
			return f, err
		}
	}
	if s.TimeEnd != "" {
		if f.TimeEnd, err = parseTime("time-end", s.TimeEnd); err != nil {
			return f, err
		}
	}
	if s.Layer != "" {
		if f.Layer, err = parsePtr(s.Layer, ParseLayer); err != nil {
			return f, err
		}
	}
	if s.Direction != "" {
		if f.Direction, err = parsePtr(s.Direction, ParseDirection); err != nil {
			return f, err
		}
	}
	if s.Category != "" {
		if f.Category, err = parsePtr(s.Category, ParseCategory); err != nil {
			return f, err
		}
	}
	return f, nil
}

func parsePtr[T any](s string, parse func(string) (T, error)) (*T, error) {
	v, err := parse(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseTime(flag, s string) (*time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s format: %w", flag, err)
	}
	return &t, nil
}

// ParseLayer parses a layer name (case-insensitive).
func ParseLayer(s string) (log.Layer, error) {
	for _, l := range []log.Layer{log.LayerSession, log.LayerChannel, log.LayerControl, log.LayerBackend} {
		if strings.EqualFold(s, l.String()) {
			return l, nil
		}
	}
	return 0, fmt.Errorf("invalid layer: %s (must be session, channel, control, or backend)", s)
}

// ParseDirection parses a direction name (case-insensitive).
func ParseDirection(s string) (log.Direction, error) {
	for _, d := range []log.Direction{log.DirectionIn, log.DirectionOut, log.DirectionLocal} {
		if strings.EqualFold(s, d.String()) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid direction: %s (must be in, out, or local)", s)
}

// ParseCategory parses a category name (case-insensitive).
func ParseCategory(s string) (log.Category, error) {
	for _, c := range allCategories {
		if strings.EqualFold(s, c.String()) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("invalid category: %s (must be line, data, control, state, frame, or error)", s)
}

// ParseChannel parses a channel id (0-255).
func ParseChannel(s string) (uint8, error) {
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid channel: %s (must be 0-255)", s)
	}
	return uint8(n), nil
}

var allCategories = []log.Category{
	log.CategoryLine, log.CategoryData, log.CategoryControl,
	log.CategoryState, log.CategoryFrame, log.CategoryError,
}

// scan calls fn for every event of path that filter matches.
func scan(path string, filter log.Filter, fn func(log.Event) error) error {
	r, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer r.Close()

	for ev, err := range r.Events() {
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
	return nil
}

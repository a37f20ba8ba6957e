package commands

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/iseio/iseio-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	Sessions          map[string]*SessionStats
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// SessionStats holds statistics for a single session.
type SessionStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Identity  string
	Channels  map[uint8]int
	LastState string
	BytesOut  int
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats := &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		Sessions:          make(map[string]*SessionStats),
	}
	err := scan(path, log.Filter{}, func(ev log.Event) error {
		stats.add(ev)
		return nil
	})
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByLayer[event.Layer]++
	s.EventsByCategory[event.Category]++
	s.EventsByDirection[event.Direction]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	sess, ok := s.Sessions[event.SessionID]
	if !ok {
		sess = &SessionStats{
			FirstSeen: event.Timestamp,
			LastSeen:  event.Timestamp,
			Channels:  make(map[uint8]int),
		}
		s.Sessions[event.SessionID] = sess
	}
	sess.Events++
	if event.Timestamp.After(sess.LastSeen) {
		sess.LastSeen = event.Timestamp
	}
	if event.Identity != "" && sess.Identity == "" {
		sess.Identity = event.Identity
	}
	if event.Channel != nil {
		sess.Channels[*event.Channel]++
	}
	if event.StateChange != nil {
		sess.LastState = event.StateChange.NewState
	}
	if event.Data != nil && event.Direction == log.DirectionOut {
		sess.BytesOut += event.Data.Size
	}

	if event.Error != nil {
		s.Errors++
	}
}

type statKey interface {
	comparable
	fmt.Stringer
}

// counts prints one "  NAME:  n" row per non-zero key, keys in order.
func counts[K statKey](w io.Writer, title string, order []K, n map[K]int) {
	fmt.Fprintf(w, "%s:\n", title)
	for _, k := range order {
		if c := n[k]; c > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", k.String()+":", c)
		}
	}
	fmt.Fprintln(w)
}

func printStats(w io.Writer, st *Stats) {
	fmt.Fprint(w, "=== ISE Protocol Log Statistics ===\n\n")

	if st.TotalEvents > 0 {
		from, to := st.TimeRange.Start, st.TimeRange.End
		fmt.Fprintf(w, "Time Range: %s to %s\n", from.Format(time.RFC3339), to.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n\n", to.Sub(from).Round(time.Second))
	}
	fmt.Fprintf(w, "Total Events: %d\n\n", st.TotalEvents)

	counts(w, "Events by Layer", []log.Layer{log.LayerSession, log.LayerChannel, log.LayerControl, log.LayerBackend}, st.EventsByLayer)
	counts(w, "Events by Category", allCategories, st.EventsByCategory)
	counts(w, "Events by Direction", []log.Direction{log.DirectionIn, log.DirectionOut, log.DirectionLocal}, st.EventsByDirection)

	fmt.Fprintf(w, "Sessions: %d\n", len(st.Sessions))
	ids := slices.SortedFunc(maps.Keys(st.Sessions), func(a, b string) int {
		return st.Sessions[a].FirstSeen.Compare(st.Sessions[b].FirstSeen)
	})
	if len(ids) > 0 {
		fmt.Fprintln(w)
	}
	const indent = "           "
	for _, id := range ids {
		ss := st.Sessions[id]
		fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortenID(id), ss.Events, ss.LastSeen.Sub(ss.FirstSeen).Round(time.Millisecond))
		if ss.Identity != "" {
			fmt.Fprintf(w, "%sDevice: %s\n", indent, ss.Identity)
		}
		if len(ss.Channels) > 0 {
			fmt.Fprintf(w, "%sChannels: %v\n", indent, slices.Sorted(maps.Keys(ss.Channels)))
		}
		if ss.BytesOut > 0 {
			fmt.Fprintf(w, "%sBytes out: %d\n", indent, ss.BytesOut)
		}
		if ss.LastState != "" {
			fmt.Fprintf(w, "%sState: %s\n", indent, ss.LastState)
		}
	}

	if st.Errors > 0 {
		fmt.Fprintf(w, "\nErrors: %d\n", st.Errors)
	}
}

package log

import (
	"context"
	"log/slog"
)

// SlogAdapter mirrors protocol events into a diagnostic slog.Logger at
// debug level. The record message is the event category.
type SlogAdapter struct {
	logger *slog.Logger
}

func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

func (a *SlogAdapter) Log(event Event) {
	ctx := context.Background()
	if !a.logger.Enabled(ctx, slog.LevelDebug) {
		return
	}

	attrs := make([]slog.Attr, 0, 10)
	attrs = append(attrs,
		slog.String("session", event.SessionID),
		slog.String("dir", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
	)
	if event.Identity != "" {
		attrs = append(attrs, slog.String("dev", event.Identity))
	}
	if event.Channel != nil {
		attrs = append(attrs, slog.Uint64("ch", uint64(*event.Channel)))
	}
	attrs = append(attrs, payloadAttrs(event)...)

	a.logger.LogAttrs(ctx, slog.LevelDebug, event.Category.String(), attrs...)
}

func payloadAttrs(e Event) []slog.Attr {
	switch {
	case e.Line != nil:
		if e.Line.Truncated {
			return []slog.Attr{slog.String("line", e.Line.Text), slog.Bool("truncated", true)}
		}
		return []slog.Attr{slog.String("line", e.Line.Text)}
	case e.Data != nil:
		return []slog.Attr{slog.Int("size", e.Data.Size), slog.Bool("truncated", e.Data.Truncated)}
	case e.Control != nil:
		return []slog.Attr{slog.String("cmd", e.Control.Command), slog.Any("args", e.Control.Args)}
	case e.StateChange != nil:
		s := e.StateChange
		out := []slog.Attr{slog.String("from", s.OldState), slog.String("to", s.NewState)}
		if s.Reason != "" {
			out = append(out, slog.String("reason", s.Reason))
		}
		return out
	case e.Frame != nil:
		return []slog.Attr{
			slog.Uint64("frame", uint64(e.Frame.ID)),
			slog.String("op", e.Frame.Op.String()),
			slog.Int("size", e.Frame.Size),
		}
	case e.Error != nil:
		g := []any{slog.String("layer", e.Error.Layer.String()), slog.String("msg", e.Error.Message)}
		if e.Error.Context != "" {
			g = append(g, slog.String("context", e.Error.Context))
		}
		if e.Error.Code != nil {
			g = append(g, slog.Int("code", *e.Error.Code))
		}
		return []slog.Attr{slog.Group("err", g...)}
	}
	return nil
}

var _ Logger = (*SlogAdapter)(nil)

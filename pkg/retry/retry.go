package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted is returned (wrapping the last failure) when every attempt failed.
var ErrExhausted = errors.New("retry: attempts exhausted")

// Permanent marks an error that must not be retried.
type Permanent struct {
	Err error
}

func (p *Permanent) Error() string { return p.Err.Error() }
func (p *Permanent) Unwrap() error { return p.Err }

// Stop wraps err so Do returns it immediately.
func Stop(err error) error {
	if err == nil {
		return nil
	}
	return &Permanent{Err: err}
}

// Do calls fn until it succeeds, returns a Permanent error, the context ends
// or cfg.Attempts tries have failed. The delay between tries follows a
// Backoff built from cfg.
func Do(ctx context.Context, cfg Config, fn func(attempt int) error) error {
	cfg = cfg.normalize()
	b := NewBackoffWithConfig(cfg)

	var last error
	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		last = fn(attempt)
		if last == nil {
			return nil
		}
		var perm *Permanent
		if errors.As(last, &perm) {
			return perm.Err
		}
		if attempt == cfg.Attempts {
			break
		}

		timer := time.NewTimer(b.Next())
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, cfg.Attempts, last)
}

package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBackoff(t *testing.T) {
	t.Run("ConstantByDefault", func(t *testing.T) {
		b := NewBackoff()
		for i := 0; i < 5; i++ {
			if d := b.Next(); d != DefaultInitial {
				t.Errorf("Attempt %d: delay = %v, want %v", i, d, DefaultInitial)
			}
		}
		if b.Attempts() != 5 {
			t.Errorf("Attempts() = %d, want 5", b.Attempts())
		}
	})

	t.Run("GrowsToMax", func(t *testing.T) {
		b := NewBackoffWithConfig(Config{
			Initial:    10 * time.Millisecond,
			Max:        40 * time.Millisecond,
			Multiplier: 2,
		})

		expected := []time.Duration{10, 20, 40, 40}
		for i, exp := range expected {
			base := b.Current()
			_ = b.Next()
			if base != exp*time.Millisecond {
				t.Errorf("Attempt %d: base = %v, want %v", i, base, exp*time.Millisecond)
			}
		}
	})

	t.Run("Jitter", func(t *testing.T) {
		cfg := Config{Initial: 100 * time.Millisecond, Max: 100 * time.Millisecond, Jitter: 0.5}
		for i := 0; i < 10; i++ {
			s := cfg.Delay(i)
			if s < 100*time.Millisecond || s > 150*time.Millisecond {
				t.Errorf("Sample %d: %v out of range [100ms, 150ms]", i, s)
			}
		}
	})

	t.Run("BaseDefaults", func(t *testing.T) {
		var cfg Config
		if d := cfg.Base(7); d != DefaultInitial {
			t.Errorf("Base(7) = %v, want %v", d, DefaultInitial)
		}
		cfg = Config{Initial: time.Millisecond, Max: time.Second, Multiplier: 3}
		if d := cfg.Base(2); d != 9*time.Millisecond {
			t.Errorf("Base(2) = %v, want 9ms", d)
		}
	})

	t.Run("Reset", func(t *testing.T) {
		b := NewBackoffWithConfig(Config{Initial: time.Millisecond, Max: 8 * time.Millisecond, Multiplier: 2})
		b.Next()
		b.Next()
		b.Reset()
		if b.Current() != time.Millisecond || b.Attempts() != 0 {
			t.Errorf("after Reset: current=%v attempts=%d", b.Current(), b.Attempts())
		}
	})
}

func TestDo(t *testing.T) {
	fast := Config{Attempts: 5, Initial: time.Millisecond, Max: time.Millisecond}
	errBusy := errors.New("busy")

	t.Run("SucceedsAfterFailures", func(t *testing.T) {
		calls := 0
		err := Do(context.Background(), fast, func(int) error {
			calls++
			if calls < 3 {
				return errBusy
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Do returned %v", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("Exhausted", func(t *testing.T) {
		calls := 0
		err := Do(context.Background(), fast, func(int) error {
			calls++
			return errBusy
		})
		if !errors.Is(err, ErrExhausted) || !errors.Is(err, errBusy) {
			t.Fatalf("err = %v, want ErrExhausted wrapping busy", err)
		}
		if calls != 5 {
			t.Errorf("calls = %d, want 5", calls)
		}
	})

	t.Run("Permanent", func(t *testing.T) {
		calls := 0
		errFatal := errors.New("fatal")
		err := Do(context.Background(), fast, func(int) error {
			calls++
			return Stop(errFatal)
		})
		if err != errFatal {
			t.Fatalf("err = %v, want fatal", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("ContextCancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		err := Do(ctx, Config{Attempts: 10, Initial: time.Hour, Max: time.Hour}, func(int) error {
			cancel()
			return errBusy
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	})
}

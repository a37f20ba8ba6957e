package retry

import (
	"math"
	"math/rand/v2"
	"time"
)

// Defaults match the run-program poll of the device driver.
const (
	DefaultAttempts   = 100
	DefaultInitial    = 20 * time.Millisecond
	DefaultMax        = 20 * time.Millisecond
	DefaultMultiplier = 1.0
)

// Config describes a retry schedule. Zero fields take the defaults.
type Config struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration

	// Multiplier grows the delay after each failed attempt; 1 keeps it flat.
	Multiplier float64

	// Jitter adds up to Jitter*delay of random extra wait.
	Jitter float64
}

// DefaultConfig returns the run-program poll settings.
func DefaultConfig() Config {
	return Config{
		Attempts:   DefaultAttempts,
		Initial:    DefaultInitial,
		Max:        DefaultMax,
		Multiplier: DefaultMultiplier,
	}
}

func (c Config) normalize() Config {
	if c.Attempts <= 0 {
		c.Attempts = DefaultAttempts
	}
	if c.Initial <= 0 {
		c.Initial = DefaultInitial
	}
	c.Max = max(c.Max, c.Initial)
	if c.Multiplier < 1 {
		c.Multiplier = DefaultMultiplier
	}
	c.Jitter = max(c.Jitter, 0)
	return c
}

// Base returns the delay before attempt n+1 (n counted from zero) without
// jitter.
func (c Config) Base(n int) time.Duration {
	c = c.normalize()
	d := float64(c.Initial) * math.Pow(c.Multiplier, float64(max(n, 0)))
	if d >= float64(c.Max) {
		return c.Max
	}
	return time.Duration(d)
}

// Delay returns Base(n) with jitter applied.
func (c Config) Delay(n int) time.Duration {
	d := c.Base(n)
	if c.Jitter <= 0 {
		return d
	}
	return d + time.Duration(float64(d)*c.Jitter*rand.Float64())
}

// Backoff walks a Config's schedule. It is not safe for concurrent use.
type Backoff struct {
	cfg Config
	n   int
}

// NewBackoff returns a Backoff on the default schedule.
func NewBackoff() *Backoff {
	return NewBackoffWithConfig(DefaultConfig())
}

// NewBackoffWithConfig returns a Backoff on cfg's schedule.
func NewBackoffWithConfig(cfg Config) *Backoff {
	return &Backoff{cfg: cfg.normalize()}
}

// Next returns the next delay and advances.
func (b *Backoff) Next() time.Duration {
	d := b.cfg.Delay(b.n)
	b.n++
	return d
}

func (b *Backoff) Reset()        { b.n = 0 }
func (b *Backoff) Attempts() int { return b.n }

// Current returns the base delay Next will start from.
func (b *Backoff) Current() time.Duration { return b.cfg.Base(b.n) }

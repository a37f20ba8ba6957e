package ise

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/iseio/iseio-go/pkg/config"
	"github.com/iseio/iseio-go/pkg/log"
)

// Reserved channel and table sizes.
const (
	// FirmwareChannel carries firmware and package images.
	FirmwareChannel uint8 = 0

	// StatusChannel carries package download progress.
	StatusChannel uint8 = 1

	// ConsoleChannel is the board monitor used for identification.
	ConsoleChannel uint8 = 254

	// MaxFrames is the number of frame slots per session.
	MaxFrames = 16
)

// Timeout is a channel read timeout in milliseconds, or one of the special
// values TimeoutOff and TimeoutForce.
type Timeout int64

const (
	// TimeoutOff blocks reads until a line arrives.
	TimeoutOff Timeout = -1

	// TimeoutForce makes a read in progress time out immediately without
	// changing the configured timeout.
	TimeoutForce Timeout = -2

	// TimeoutPoll makes reads return immediately when no data is ready.
	TimeoutPoll Timeout = 0
)

// Millis returns a timeout of d, rounded down to milliseconds.
func Millis(d time.Duration) Timeout {
	return Timeout(d / time.Millisecond)
}

// Duration returns the timeout as a duration. It is only meaningful for
// values >= 0.
func (t Timeout) Duration() time.Duration {
	return time.Duration(t) * time.Millisecond
}

// String returns the timeout name or value.
func (t Timeout) String() string {
	switch {
	case t == TimeoutOff:
		return "OFF"
	case t == TimeoutForce:
		return "FORCE"
	case t < 0:
		return "INVALID"
	default:
		return strconv.FormatInt(int64(t), 10) + "ms"
	}
}

// Valid reports whether t is a known special value or non-negative.
func (t Timeout) Valid() bool {
	return t >= TimeoutForce
}

// Conn is one open channel of a backend.
type Conn interface {
	// ID returns the channel id.
	ID() uint8

	// Write sends raw bytes.
	Write(p []byte) (int, error)

	// WriteLine sends text followed by one terminator and flushes it toward
	// the remote.
	WriteLine(text string) error

	// ReadInto blocks according to the channel's timeout and fills buf with
	// whatever bytes are available. It returns ErrChannelTimeout when no
	// data arrived in time.
	ReadInto(buf []byte) (int, error)
}

// Backend is the transport primitive set a Session drives.
type Backend interface {
	// Connect establishes the control connection.
	Connect(ctx context.Context) error

	// Restart quiesces the remote so firmware can be loaded.
	Restart(ctx context.Context) error

	// RunProgram starts what was loaded, retrying with bounded backoff.
	RunProgram(ctx context.Context) error

	// ChannelOpen opens channel id, or returns ErrChannelBusy.
	ChannelOpen(ctx context.Context, id uint8) (Conn, error)

	// ChannelSync waits until local writes have been handed off.
	ChannelSync(ctx context.Context, c Conn) error

	// ChannelClose tears down an open channel.
	ChannelClose(c Conn) error

	// SetTimeout sets the read timeout of channel id.
	SetTimeout(id uint8, t Timeout) error

	// MakeFrame creates and maps frame id of at least size bytes. The
	// returned mapping's length is the actual size.
	MakeFrame(id uint8, size int) ([]byte, error)

	// DeleteFrame unmaps and releases frame id.
	DeleteFrame(id uint8, mem []byte) error

	// Close releases the control connection.
	Close() error
}

// Env is what a Driver gets to build a backend.
type Env struct {
	// SessionID identifies the session in logs and runtime file names.
	SessionID string

	Config config.Config

	// Logger receives diagnostics. Never nil.
	Logger *slog.Logger

	// Protocol receives protocol events. Never nil.
	Protocol log.Logger
}

// Driver selects and builds one backend variant.
type Driver struct {
	// Name identifies the variant in logs.
	Name string

	// Probe reports whether the identity belongs to this variant.
	Probe func(identity string) bool

	// New builds an unconnected backend for the identity.
	New func(identity string, env Env) (Backend, error)
}

// selectDriver returns the first driver whose probe accepts identity.
func selectDriver(drivers []Driver, identity string) (Driver, bool) {
	for _, d := range drivers {
		if d.Probe != nil && d.Probe(identity) {
			return d, true
		}
	}
	return Driver{}, false
}

package ise

import (
	"errors"
	"fmt"
)

// Code is the coarse result kind reported to callers.
type Code uint8

const (
	// OK - no error.
	OK Code = iota

	// Error - unspecified failure, including transport errors.
	Error

	// NoSCOF - the firmware image could not be found.
	NoSCOF

	// NoChannel - the channel is not open.
	NoChannel

	// ChannelBusy - the channel is already open or locked.
	ChannelBusy

	// ChannelTimeout - no line arrived within the channel's timeout.
	ChannelTimeout

	// IdentityNotFound - no backend accepts the identity.
	IdentityNotFound
)

// String returns the human-readable message for the code.
func (c Code) String() string {
	switch c {
	case OK:
		return "no error"
	case Error:
		return "unspecified error"
	case NoSCOF:
		return "unable to read SCOF firmware"
	case NoChannel:
		return "no such open channel"
	case ChannelBusy:
		return "channel is busy or locked"
	case ChannelTimeout:
		return "channel read timed out"
	case IdentityNotFound:
		return "no backend for device identity"
	default:
		return "unknown ise error code"
	}
}

// Session errors. Each maps to one Code through CodeOf.
var (
	ErrGeneric          = errors.New("ise: unspecified error")
	ErrIdentityNotFound = errors.New("ise: no backend for device identity")
	ErrFirmwareMissing  = errors.New("ise: unable to read SCOF firmware")
	ErrChannelUnknown   = errors.New("ise: no such open channel")
	ErrChannelBusy      = errors.New("ise: channel is busy or locked")
	ErrChannelTimeout   = errors.New("ise: channel read timed out")

	// ErrUnsupported marks a primitive the backend does not have.
	ErrUnsupported = fmt.Errorf("%w: operation not supported by backend", ErrGeneric)

	// ErrSessionClosed is returned by calls on a closed session.
	ErrSessionClosed = fmt.Errorf("%w: session closed", ErrGeneric)
)

// CodeOf maps an error to its coarse code. Unknown errors are Error.
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return OK
	case errors.Is(err, ErrIdentityNotFound):
		return IdentityNotFound
	case errors.Is(err, ErrFirmwareMissing):
		return NoSCOF
	case errors.Is(err, ErrChannelUnknown):
		return NoChannel
	case errors.Is(err, ErrChannelBusy):
		return ChannelBusy
	case errors.Is(err, ErrChannelTimeout):
		return ChannelTimeout
	default:
		return Error
	}
}

// transportError wraps a backend I/O failure as ErrGeneric while keeping the
// cause inspectable.
func transportError(op string, err error) error {
	if errors.Is(err, ErrGeneric) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrGeneric, op, err)
}

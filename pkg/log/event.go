package log

import (
	"time"
)

// MaxLogDataSize is the maximum raw data size to include in a DataEvent (4 KB).
// Larger payloads (firmware images, package data) are truncated in log events.
const MaxLogDataSize = 4096

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID uniquely identifies the session (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Identity is the device identity the session was bound with ("ise0", "plug:stub").
	Identity string `cbor:"3,keyasint,omitempty"`

	// Direction indicates data flow.
	Direction Direction `cbor:"4,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"5,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"6,keyasint"`

	// Channel is the channel id, for channel-scoped events.
	Channel *uint8 `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Line        *LineEvent        `cbor:"10,keyasint,omitempty"` // Channel lines
	Data        *DataEvent        `cbor:"11,keyasint,omitempty"` // Raw channel bytes
	Control     *ControlEvent     `cbor:"12,keyasint,omitempty"` // Plugin control commands
	StateChange *StateChangeEvent `cbor:"13,keyasint,omitempty"` // Session state
	Frame       *FrameEvent       `cbor:"14,keyasint,omitempty"` // Frame negotiation
	Error       *ErrorEventData   `cbor:"15,keyasint,omitempty"` // Errors at any layer
}

// ChannelID returns a pointer suitable for Event.Channel.
func ChannelID(id uint8) *uint8 {
	return &id
}

// Direction indicates the direction of data flow.
type Direction uint8

const (
	// DirectionIn indicates data received from the remote end.
	DirectionIn Direction = 0
	// DirectionOut indicates data sent to the remote end.
	DirectionOut Direction = 1
	// DirectionLocal indicates a purely local event (state change, error).
	DirectionLocal Direction = 2
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	case DirectionLocal:
		return "LOCAL"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which layer captured the event.
type Layer uint8

const (
	// LayerSession is the device session (bind/open/restart/close).
	LayerSession Layer = 0
	// LayerChannel is the line-oriented channel layer.
	LayerChannel Layer = 1
	// LayerControl is the plugin control connection.
	LayerControl Layer = 2
	// LayerBackend is the transport backend (hardware or plugin).
	LayerBackend Layer = 3
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerSession:
		return "SESSION"
	case LayerChannel:
		return "CHANNEL"
	case LayerControl:
		return "CONTROL"
	case LayerBackend:
		return "BACKEND"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryLine indicates a complete text line on a channel.
	CategoryLine Category = 0
	// CategoryData indicates raw bytes on a channel.
	CategoryData Category = 1
	// CategoryControl indicates a control command.
	CategoryControl Category = 2
	// CategoryState indicates a state change.
	CategoryState Category = 3
	// CategoryFrame indicates a frame create/delete.
	CategoryFrame Category = 4
	// CategoryError indicates an error event.
	CategoryError Category = 5
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryLine:
		return "LINE"
	case CategoryData:
		return "DATA"
	case CategoryControl:
		return "CONTROL"
	case CategoryState:
		return "STATE"
	case CategoryFrame:
		return "FRAME"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LineEvent captures one line exchanged on a channel, terminator stripped.
type LineEvent struct {
	// Text is the line content.
	Text string `cbor:"1,keyasint"`

	// Truncated indicates the line exceeded the channel's line capacity.
	Truncated bool `cbor:"2,keyasint,omitempty"`
}

// DataEvent captures raw bytes written to a channel.
type DataEvent struct {
	// Size is the number of bytes moved.
	Size int `cbor:"1,keyasint"`

	// Data is the raw bytes (may be truncated for large payloads).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// NewDataEvent builds a DataEvent, truncating data to MaxLogDataSize.
func NewDataEvent(data []byte) *DataEvent {
	ev := &DataEvent{Size: len(data), Data: data}
	if len(data) > MaxLogDataSize {
		ev.Data = data[:MaxLogDataSize]
		ev.Truncated = true
	}
	return ev
}

// ControlEvent captures one plugin control-connection command or reply.
type ControlEvent struct {
	// Command is the command verb (OPEN, CLOSE, FRAME, RUN, HELLO).
	Command string `cbor:"1,keyasint"`

	// Args are the remaining tokens.
	Args []string `cbor:"2,keyasint,omitempty"`
}

// StateChangeEvent captures session lifecycle events.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// FrameOp indicates what happened to a frame.
type FrameOp uint8

const (
	// FrameCreate indicates a frame was created and mapped.
	FrameCreate FrameOp = 0
	// FrameDelete indicates a frame was unmapped and released.
	FrameDelete FrameOp = 1
	// FrameAck indicates the remote acknowledged a frame.
	FrameAck FrameOp = 2
)

// String returns the frame operation name.
func (o FrameOp) String() string {
	switch o {
	case FrameCreate:
		return "CREATE"
	case FrameDelete:
		return "DELETE"
	case FrameAck:
		return "ACK"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures frame negotiation.
type FrameEvent struct {
	// ID is the frame id (0-15).
	ID uint8 `cbor:"1,keyasint"`

	// Size is the frame size in bytes.
	Size int `cbor:"2,keyasint"`

	// Op is the frame operation.
	Op FrameOp `cbor:"3,keyasint"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is the coarse error code (if applicable).
	Code *int `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}

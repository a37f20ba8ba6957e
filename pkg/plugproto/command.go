package plugproto

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Verb is the first token of a control line.
type Verb string

// Control verbs.
const (
	VerbOpen  Verb = "OPEN"
	VerbClose Verb = "CLOSE"
	VerbFrame Verb = "FRAME"
	VerbRun   Verb = "RUN"
	VerbHello Verb = "HELLO"
)

// Table sizes shared by both ends.
const (
	// MaxChannels is the size of the channel id namespace.
	MaxChannels = 256

	// MaxFrames is the number of frame slots.
	MaxFrames = 16

	// ConsoleChannel carries the identification handshake.
	ConsoleChannel = 254
)

// Parse errors.
var (
	// ErrEmpty indicates a line with no tokens.
	ErrEmpty = errors.New("plugproto: empty command")

	// ErrUnknownVerb indicates an unrecognized first token.
	ErrUnknownVerb = errors.New("plugproto: unknown command")

	// ErrMalformed indicates missing or invalid arguments.
	ErrMalformed = errors.New("plugproto: malformed command")
)

// Command is one parsed control line.
type Command struct {
	Verb Verb

	// ID is the channel id (OPEN, CLOSE) or frame id (FRAME).
	ID int

	// Addr is the rendezvous socket path (OPEN).
	Addr string

	// Size is the frame size in bytes (FRAME).
	Size int

	// Path is the frame backing file (FRAME).
	Path string
}

// Open builds an OPEN command.
func Open(id int, addr string) Command {
	return Command{Verb: VerbOpen, ID: id, Addr: addr}
}

// Close builds a CLOSE command.
func Close(id int) Command {
	return Command{Verb: VerbClose, ID: id}
}

// Frame builds a FRAME command.
func Frame(id, size int, path string) Command {
	return Command{Verb: VerbFrame, ID: id, Size: size, Path: path}
}

// Run builds a RUN command.
func Run() Command {
	return Command{Verb: VerbRun}
}

// Hello builds the startup greeting.
func Hello() Command {
	return Command{Verb: VerbHello}
}

// String returns the wire form without the terminator.
func (c Command) String() string {
	switch c.Verb {
	case VerbOpen:
		return fmt.Sprintf("OPEN %d %s", c.ID, c.Addr)
	case VerbClose:
		return fmt.Sprintf("CLOSE %d", c.ID)
	case VerbFrame:
		return fmt.Sprintf("FRAME %d %d %s", c.ID, c.Size, c.Path)
	default:
		return string(c.Verb)
	}
}

// Args returns the tokens after the verb.
func (c Command) Args() []string {
	fields := strings.Fields(c.String())
	return fields[1:]
}

// Parse decodes one control line. Channel ids must be in [0,256) and frame
// ids in [0,16). Extra trailing tokens are ignored.
func Parse(line string) (Command, error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return Command{}, ErrEmpty
	}

	cmd := Command{Verb: Verb(tokens[0])}
	switch cmd.Verb {
	case VerbOpen:
		if len(tokens) < 3 {
			return Command{}, fmt.Errorf("%w: %q", ErrMalformed, line)
		}
		id, err := parseID(tokens[1], MaxChannels)
		if err != nil {
			return Command{}, err
		}
		cmd.ID = id
		cmd.Addr = tokens[2]
	case VerbClose:
		if len(tokens) < 2 {
			return Command{}, fmt.Errorf("%w: %q", ErrMalformed, line)
		}
		id, err := parseID(tokens[1], MaxChannels)
		if err != nil {
			return Command{}, err
		}
		cmd.ID = id
	case VerbFrame:
		if len(tokens) < 4 {
			return Command{}, fmt.Errorf("%w: %q", ErrMalformed, line)
		}
		id, err := parseID(tokens[1], MaxFrames)
		if err != nil {
			return Command{}, err
		}
		size, err := strconv.ParseUint(tokens[2], 0, 31)
		if err != nil || size == 0 {
			return Command{}, fmt.Errorf("%w: frame size %q", ErrMalformed, tokens[2])
		}
		cmd.ID = id
		cmd.Size = int(size)
		cmd.Path = tokens[3]
	case VerbRun, VerbHello:
	default:
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownVerb, tokens[0])
	}
	return cmd, nil
}

func parseID(s string, limit int) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 0 || id >= limit {
		return 0, fmt.Errorf("%w: id %q out of range [0,%d)", ErrMalformed, s, limit)
	}
	return id, nil
}

// FrameAck is the device's reply to FRAME.
type FrameAck struct {
	ID   int
	Size int
}

// String returns the wire form without the terminator.
func (a FrameAck) String() string {
	return fmt.Sprintf("FRAME %d, %d", a.ID, a.Size)
}

// ParseAck decodes a frame acknowledgement line.
func ParseAck(line string) (FrameAck, error) {
	tokens := strings.Fields(strings.ReplaceAll(line, ",", " "))
	if len(tokens) != 3 || Verb(tokens[0]) != VerbFrame {
		return FrameAck{}, fmt.Errorf("%w: ack %q", ErrMalformed, line)
	}
	id, err := strconv.Atoi(tokens[1])
	if err != nil {
		return FrameAck{}, fmt.Errorf("%w: ack id %q", ErrMalformed, tokens[1])
	}
	size, err := strconv.Atoi(tokens[2])
	if err != nil {
		return FrameAck{}, fmt.Errorf("%w: ack size %q", ErrMalformed, tokens[2])
	}
	return FrameAck{ID: id, Size: size}, nil
}

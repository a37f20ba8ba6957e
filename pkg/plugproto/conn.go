package plugproto

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/iseio/iseio-go/pkg/log"
)

// MaxLineSize is the longest control line accepted.
const MaxLineSize = 8 * 1024

// ErrLineTooLong indicates a control line exceeded MaxLineSize.
var ErrLineTooLong = errors.New("plugproto: control line too long")

// Writer writes control lines to an underlying writer.
type Writer struct {
	w  io.Writer
	mu sync.Mutex

	// Logging support (optional)
	logger    log.Logger
	sessionID string
}

// NewWriter creates a control line writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// SetLogger configures logging for this writer.
// Pass nil to disable logging.
func (cw *Writer) SetLogger(logger log.Logger, sessionID string) {
	cw.logger = logger
	cw.sessionID = sessionID
}

// WriteLine writes one line followed by the terminator in a single write.
// Thread-safe: can be called from multiple goroutines.
func (cw *Writer) WriteLine(line string) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if _, err := io.WriteString(cw.w, line+"\n"); err != nil {
		return fmt.Errorf("write control line: %w", err)
	}

	if cw.logger != nil {
		cw.logger.Log(controlEvent(cw.sessionID, line, log.DirectionOut))
	}
	return nil
}

// Send writes a command.
func (cw *Writer) Send(cmd Command) error {
	return cw.WriteLine(cmd.String())
}

// Reader reads control lines, re-splitting concatenated arrivals.
type Reader struct {
	br *bufio.Reader

	// Logging support (optional)
	logger    log.Logger
	sessionID string
}

// NewReader creates a control line reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, MaxLineSize)}
}

// SetLogger configures logging for this reader.
// Pass nil to disable logging.
func (cr *Reader) SetLogger(logger log.Logger, sessionID string) {
	cr.logger = logger
	cr.sessionID = sessionID
}

// ReadLine returns the next line without its terminator. A final
// unterminated fragment before EOF is returned as a line.
func (cr *Reader) ReadLine() (string, error) {
	b, err := cr.br.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		cr.discardLine()
		return "", ErrLineTooLong
	}
	if err != nil && (err != io.EOF || len(b) == 0) {
		return "", err
	}

	line := strings.TrimRight(string(b), "\r\n")
	if cr.logger != nil {
		cr.logger.Log(controlEvent(cr.sessionID, line, log.DirectionIn))
	}
	return line, nil
}

// ReadCommand reads and parses the next line.
func (cr *Reader) ReadCommand() (Command, error) {
	line, err := cr.ReadLine()
	if err != nil {
		return Command{}, err
	}
	return Parse(line)
}

func (cr *Reader) discardLine() {
	for {
		_, err := cr.br.ReadSlice('\n')
		if !errors.Is(err, bufio.ErrBufferFull) {
			return
		}
	}
}

func controlEvent(sessionID, line string, dir log.Direction) log.Event {
	tokens := strings.Fields(line)
	ev := &log.ControlEvent{}
	if len(tokens) > 0 {
		ev.Command = tokens[0]
		ev.Args = tokens[1:]
	}
	return log.Event{
		Timestamp: time.Now(),
		SessionID: sessionID,
		Direction: dir,
		Layer:     log.LayerControl,
		Category:  log.CategoryControl,
		Control:   ev,
	}
}

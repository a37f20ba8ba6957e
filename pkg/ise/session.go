package ise

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/iseio/iseio-go/pkg/config"
	"github.com/iseio/iseio-go/pkg/log"
)

// State is the lifecycle state of a Session.
type State uint8

const (
	// StateUnbound - no backend selected yet.
	StateUnbound State = iota

	// StateBound - backend selected and connected; the board is not owned.
	StateBound

	// StateIdentified - the session owns the board and knows its version.
	StateIdentified

	// StateClosed - all resources released.
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnbound:
		return "UNBOUND"
	case StateBound:
		return "BOUND"
	case StateIdentified:
		return "IDENTIFIED"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// channel is one open channel of a session.
type channel struct {
	conn    Conn
	buf     *LineBuffer
	timeout atomic.Int64
}

// Session is a bound or opened handle to one device.
type Session struct {
	mu sync.RWMutex

	id       string
	identity string
	driver   string
	state    State
	version  string

	backend  Backend
	channels map[uint8]*channel
	frames   *FrameTable

	cfg     config.Config
	workDir string

	logger   *slog.Logger
	protocol log.Logger
}

// Bind selects the backend for identity and connects to it without taking
// ownership of the board. A bound session is never restarted on Close.
func Bind(ctx context.Context, identity string, opts ...Option) (*Session, error) {
	o := buildOptions(opts)

	d, ok := selectDriver(o.drivers, identity)
	if !ok {
		o.logger.Debug("bind: no backend", "dev", identity)
		return nil, fmt.Errorf("%w: %q", ErrIdentityNotFound, identity)
	}

	sid := uuid.NewString()
	logger := o.logger.With("dev", identity)
	backend, err := d.New(identity, Env{
		SessionID: sid,
		Config:    o.cfg,
		Logger:    logger,
		Protocol:  o.protocol,
	})
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:       sid,
		identity: identity,
		driver:   d.Name,
		backend:  backend,
		channels: make(map[uint8]*channel),
		frames:   NewFrameTable(backend),
		cfg:      o.cfg,
		workDir:  o.workDir,
		logger:   logger,
		protocol: o.protocol,
	}

	logger.Debug("bind", "backend", d.Name, "session", sid)
	if err := backend.Connect(ctx); err != nil {
		logger.Debug("bind: connect failed", "error", err)
		s.logError(layerOf(err), "connect", err)
		backend.Close()
		return nil, err
	}

	s.setState(StateBound, "bind")
	return s, nil
}

// Open binds identity, takes ownership of the board and reads its version
// string through the monitor channel. The board is left quiescent, ready for
// Restart.
func Open(ctx context.Context, identity string, opts ...Option) (*Session, error) {
	s, err := Bind(ctx, identity, opts...)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.identify(ctx); err != nil {
		s.logger.Debug("open: identification failed", "error", err)
		s.closeLocked()
		return nil, err
	}

	s.setState(StateIdentified, "open")
	s.logger.Debug("open complete", "version", s.version)
	return s, nil
}

// identify runs the monitor handshake. Caller holds s.mu.
func (s *Session) identify(ctx context.Context) error {
	if err := s.quiesce(ctx, "open"); err != nil {
		return err
	}

	ch, err := s.openChannelLocked(ctx, ConsoleChannel)
	if err != nil {
		return err
	}

	version, err := s.handshake(ch)
	if cerr := s.closeChannelLocked(ConsoleChannel); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	s.version = version

	return s.quiesce(ctx, "open")
}

func (s *Session) handshake(ch *channel) (string, error) {
	if err := s.backend.SetTimeout(ConsoleChannel, Millis(s.cfg.OpenTimeout)); err != nil && !errors.Is(err, ErrUnsupported) {
		return "", err
	}

	if err := s.writeLine(ch, ""); err != nil {
		return "", err
	}
	if _, err := s.readPrompt(ch); err != nil {
		return "", err
	}

	if err := s.writeLine(ch, IdentCommand); err != nil {
		return "", err
	}
	raw, err := s.readPrompt(ch)
	if err != nil {
		return "", err
	}
	return versionText(raw), nil
}

func (s *Session) readPrompt(ch *channel) (string, error) {
	l, err := ch.buf.ReadUntil(PromptMarker)
	if err != nil {
		return "", err
	}
	if l.Partial {
		return "", fmt.Errorf("%w: monitor closed before prompt", ErrGeneric)
	}
	return l.Text, nil
}

// quiesce restarts the board without loading firmware. Backends without a
// separate quiesce step are tolerated. Caller holds s.mu.
func (s *Session) quiesce(ctx context.Context, reason string) error {
	err := s.backend.Restart(ctx)
	if errors.Is(err, ErrUnsupported) {
		s.logger.Debug("restart not supported by backend", "reason", reason)
		return nil
	}
	if err != nil {
		s.logError(log.LayerBackend, "restart", err)
	}
	return err
}

// ID returns the session UUID.
func (s *Session) ID() string {
	return s.id
}

// Identity returns the device identity the session was bound with.
func (s *Session) Identity() string {
	return s.identity
}

// Backend returns the name of the driver that owns the session.
func (s *Session) Backend() string {
	return s.driver
}

// Version returns the board's version string. It is empty for sessions
// created by Bind.
func (s *Session) Version() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) usable() error {
	if s.state != StateBound && s.state != StateIdentified {
		return ErrSessionClosed
	}
	return nil
}

// Restart loads firmware into the board and runs it. The image is searched
// for as ./<firmware>.scof (relative to the work directory), then
// <install_root>/<firmware>.scof, and streamed verbatim through channel 0.
func (s *Session) Restart(ctx context.Context, firmware string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return err
	}
	if _, open := s.channels[FirmwareChannel]; open {
		return fmt.Errorf("%w: channel %d is open", ErrChannelBusy, FirmwareChannel)
	}

	s.logger.Debug("restart", "firmware", firmware)
	if err := s.quiesce(ctx, "restart"); err != nil {
		return err
	}

	conn, err := s.backend.ChannelOpen(ctx, FirmwareChannel)
	if err != nil {
		return err
	}

	path, err := LocateFirmware(firmware, s.workDir, s.cfg.InstallRoot)
	if err != nil {
		s.logger.Debug("no firmware, giving up", "firmware", firmware, "tried", FirmwarePaths(firmware, s.workDir, s.cfg.InstallRoot))
		s.backend.ChannelClose(conn)
		s.logError(log.LayerSession, "restart", err)
		return err
	}

	if err := s.download(ctx, conn, path); err != nil {
		s.backend.ChannelClose(conn)
		return err
	}
	if err := s.backend.ChannelClose(conn); err != nil {
		return err
	}

	s.logger.Debug("running program")
	if err := s.backend.RunProgram(ctx); err != nil {
		s.logError(log.LayerBackend, "run program", err)
		return err
	}
	s.logger.Debug("restart complete", "firmware", path)
	return nil
}

// download streams the image at path into conn and syncs.
func (s *Session) download(ctx context.Context, conn Conn, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFirmwareMissing, err)
	}
	defer f.Close()

	s.logger.Debug("transmitting firmware", "path", path)
	n, err := io.Copy(conn, f)
	if err != nil {
		return transportError("write firmware", err)
	}
	s.logEvent(log.Event{
		Direction: log.DirectionOut,
		Layer:     log.LayerChannel,
		Category:  log.CategoryData,
		Channel:   log.ChannelID(conn.ID()),
		Data:      &log.DataEvent{Size: int(n)},
	})

	s.logger.Debug("sync channel", "ch", conn.ID())
	return s.backend.ChannelSync(ctx, conn)
}

// Channel opens channel id. It fails with ErrChannelBusy when the channel is
// already open in this session or locked by the device.
func (s *Session) Channel(ctx context.Context, id uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return err
	}
	_, err := s.openChannelLocked(ctx, id)
	return err
}

func (s *Session) openChannelLocked(ctx context.Context, id uint8) (*channel, error) {
	if _, open := s.channels[id]; open {
		return nil, fmt.Errorf("%w: channel %d already open", ErrChannelBusy, id)
	}

	conn, err := s.backend.ChannelOpen(ctx, id)
	if err != nil {
		s.logger.Debug("channel open failed", "ch", id, "error", err)
		return nil, err
	}

	ch := &channel{conn: conn, buf: NewLineBuffer(conn, s.cfg.LineCapacity)}
	ch.timeout.Store(int64(TimeoutOff))
	s.channels[id] = ch

	s.logger.Debug("channel open", "ch", id)
	s.logEvent(log.Event{
		Direction:   log.DirectionLocal,
		Layer:       log.LayerChannel,
		Category:    log.CategoryState,
		Channel:     log.ChannelID(id),
		StateChange: &log.StateChangeEvent{NewState: "OPEN"},
	})
	return ch, nil
}

// CloseChannel closes channel id.
func (s *Session) CloseChannel(id uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return err
	}
	return s.closeChannelLocked(id)
}

func (s *Session) closeChannelLocked(id uint8) error {
	ch, ok := s.channels[id]
	if !ok {
		return fmt.Errorf("%w: channel %d", ErrChannelUnknown, id)
	}
	delete(s.channels, id)

	s.logger.Debug("close channel", "ch", id)
	s.logEvent(log.Event{
		Direction:   log.DirectionLocal,
		Layer:       log.LayerChannel,
		Category:    log.CategoryState,
		Channel:     log.ChannelID(id),
		StateChange: &log.StateChangeEvent{OldState: "OPEN", NewState: "CLOSED"},
	})
	return s.backend.ChannelClose(ch.conn)
}

// OpenChannels returns the ids of the open channels in ascending order.
func (s *Session) OpenChannels() []uint8 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.openIDsLocked()
}

func (s *Session) openIDsLocked() []uint8 {
	ids := make([]uint8, 0, len(s.channels))
	for id := range s.channels {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Session) lookup(id uint8) (*channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.usable(); err != nil {
		return nil, err
	}
	ch, ok := s.channels[id]
	if !ok {
		return nil, fmt.Errorf("%w: channel %d", ErrChannelUnknown, id)
	}
	return ch, nil
}

// WriteLine writes text and a terminator to channel id and flushes it.
func (s *Session) WriteLine(id uint8, text string) error {
	ch, err := s.lookup(id)
	if err != nil {
		return err
	}
	return s.writeLine(ch, text)
}

func (s *Session) writeLine(ch *channel, text string) error {
	id := ch.conn.ID()
	s.logger.Debug("writeln", "ch", id, "text", text)
	if err := ch.conn.WriteLine(text); err != nil {
		err = transportError("write", err)
		s.logError(log.LayerChannel, fmt.Sprintf("writeln ch %d", id), err)
		return err
	}
	s.logEvent(log.Event{
		Direction: log.DirectionOut,
		Layer:     log.LayerChannel,
		Category:  log.CategoryLine,
		Channel:   log.ChannelID(id),
		Line:      &log.LineEvent{Text: text},
	})
	return nil
}

// Write sends raw bytes on channel id without framing or flushing.
func (s *Session) Write(id uint8, p []byte) error {
	ch, err := s.lookup(id)
	if err != nil {
		return err
	}
	if _, err := ch.conn.Write(p); err != nil {
		return transportError("write", err)
	}
	s.logEvent(log.Event{
		Direction: log.DirectionOut,
		Layer:     log.LayerChannel,
		Category:  log.CategoryData,
		Channel:   log.ChannelID(id),
		Data:      log.NewDataEvent(p),
	})
	return nil
}

// ReadLine returns the next line from channel id, waiting according to the
// channel's timeout. It returns ErrChannelTimeout when no line arrived.
func (s *Session) ReadLine(id uint8) (string, error) {
	l, err := s.ReadLineInfo(id)
	return l.Text, err
}

// ReadLineInfo is ReadLine with truncation and partial-line details.
func (s *Session) ReadLineInfo(id uint8) (Line, error) {
	ch, err := s.lookup(id)
	if err != nil {
		return Line{}, err
	}

	l, err := ch.buf.ReadLine()
	if err != nil {
		if !errors.Is(err, ErrChannelTimeout) {
			s.logError(log.LayerChannel, fmt.Sprintf("readln ch %d", id), err)
		}
		s.logger.Debug("readln", "ch", id, "error", err)
		return Line{}, err
	}

	s.logger.Debug("readln", "ch", id, "text", l.Text, "truncated", l.Truncated, "partial", l.Partial)
	s.logEvent(log.Event{
		Direction: log.DirectionIn,
		Layer:     log.LayerChannel,
		Category:  log.CategoryLine,
		Channel:   log.ChannelID(id),
		Line:      &log.LineEvent{Text: l.Text, Truncated: l.Truncated},
	})
	return l, nil
}

// SetTimeout sets the read timeout of channel id. TimeoutForce interrupts a
// blocked ReadLine without changing the configured value.
func (s *Session) SetTimeout(id uint8, t Timeout) error {
	if !t.Valid() {
		return fmt.Errorf("%w: invalid timeout %d", ErrGeneric, t)
	}
	ch, err := s.lookup(id)
	if err != nil {
		return err
	}

	s.logger.Debug("timeout", "ch", id, "value", t.String())
	if err := s.backend.SetTimeout(id, t); err != nil {
		return err
	}
	if t != TimeoutForce {
		ch.timeout.Store(int64(t))
	}
	return nil
}

// Timeout returns the configured read timeout of channel id.
func (s *Session) Timeout(id uint8) (Timeout, error) {
	ch, err := s.lookup(id)
	if err != nil {
		return 0, err
	}
	return Timeout(ch.timeout.Load()), nil
}

// MakeFrame returns frame id, creating it with at least size bytes on first
// use. The mapping's length is the actual frame size.
func (s *Session) MakeFrame(id uint8, size int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return nil, err
	}

	mem, created, err := s.frames.GetOrCreate(id, size)
	if err != nil {
		s.logger.Debug("make frame failed", "frame", id, "size", size, "error", err)
		return nil, err
	}
	if created {
		s.logger.Debug("make frame", "frame", id, "size", len(mem))
		s.logEvent(log.Event{
			Direction: log.DirectionLocal,
			Layer:     log.LayerBackend,
			Category:  log.CategoryFrame,
			Frame:     &log.FrameEvent{ID: id, Size: len(mem), Op: log.FrameCreate},
		})
	}
	return mem, nil
}

// Frame returns the mapping of frame id, or nil if it does not exist.
func (s *Session) Frame(id uint8) []byte {
	return s.frames.Get(id)
}

// DeleteFrame releases frame id. Deleting an absent frame is a no-op.
func (s *Session) DeleteFrame(id uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return err
	}
	return s.deleteFrameLocked(id)
}

func (s *Session) deleteFrameLocked(id uint8) error {
	size := len(s.frames.Get(id))
	deleted, err := s.frames.Delete(id)
	if deleted {
		s.logger.Debug("delete frame", "frame", id)
		s.logEvent(log.Event{
			Direction: log.DirectionLocal,
			Layer:     log.LayerBackend,
			Category:  log.CategoryFrame,
			Frame:     &log.FrameEvent{ID: id, Size: size, Op: log.FrameDelete},
		})
	}
	return err
}

// Close deletes all frames, closes all channels and, for an opened session,
// leaves the board quiescent. Close is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *Session) closeLocked() error {
	if s.state == StateClosed {
		return nil
	}
	s.logger.Debug("close")

	var errs []error
	for id := uint8(0); id < MaxFrames; id++ {
		if err := s.deleteFrameLocked(id); err != nil {
			errs = append(errs, err)
		}
	}
	for _, id := range s.openIDsLocked() {
		if err := s.closeChannelLocked(id); err != nil {
			errs = append(errs, err)
		}
	}

	if s.state == StateIdentified {
		ctx, cancel := context.WithTimeout(context.Background(), s.closeTimeout())
		if err := s.quiesce(ctx, "close"); err != nil {
			errs = append(errs, err)
		}
		cancel()
	} else {
		s.logger.Debug("opened by bind, skipping reset")
	}

	if err := s.backend.Close(); err != nil {
		errs = append(errs, err)
	}

	s.setState(StateClosed, "close")
	return errors.Join(errs...)
}

func (s *Session) closeTimeout() time.Duration {
	if s.cfg.ShutdownTimeout > 0 {
		return s.cfg.ShutdownTimeout + s.cfg.OpenTimeout
	}
	return s.cfg.OpenTimeout
}

// setState moves the session and records the change. Caller holds s.mu or
// owns s exclusively.
func (s *Session) setState(next State, reason string) {
	prev := s.state
	s.state = next
	s.logEvent(log.Event{
		Direction: log.DirectionLocal,
		Layer:     log.LayerSession,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			OldState: prev.String(),
			NewState: next.String(),
			Reason:   reason,
		},
	})
}

func (s *Session) logEvent(ev log.Event) {
	ev.Timestamp = time.Now()
	ev.SessionID = s.id
	ev.Identity = s.identity
	s.protocol.Log(ev)
}

func (s *Session) logError(layer log.Layer, op string, err error) {
	code := int(CodeOf(err))
	s.logEvent(log.Event{
		Direction: log.DirectionLocal,
		Layer:     layer,
		Category:  log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   layer,
			Message: err.Error(),
			Code:    &code,
			Context: op,
		},
	})
}

// layerOf classifies an error for protocol logging.
func layerOf(err error) log.Layer {
	if errors.Is(err, ErrChannelBusy) || errors.Is(err, ErrChannelUnknown) || errors.Is(err, ErrChannelTimeout) {
		return log.LayerChannel
	}
	return log.LayerBackend
}

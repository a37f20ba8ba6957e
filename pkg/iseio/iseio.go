// Package iseio is the entry point for programs using ISE devices.
//
// It wires the default backends (hardware identities "ise<N>" before plugin
// identities "plug:<name>") and takes configuration and logging from the
// environment:
//
//	ISEIO_CONFIG        configuration file (.yaml, .yml or .toml)
//	ISEIO_INSTALL_ROOT  firmware fallback directory
//	ISEIO_PLUGIN_DIR    directory holding <name>.plg helpers
//	ISEIO_RUNTIME_DIR   rendezvous sockets and frame files
//	LIBISEIO_LOG        diagnostic log destination ("-", "--" or a file)
//	ISEIO_LOG_LEVEL     diagnostic level
//
// Options given to Open and Bind are applied after the environment's, so
// callers can override any of it.
package iseio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/iseio/iseio-go/pkg/config"
	"github.com/iseio/iseio-go/pkg/diag"
	"github.com/iseio/iseio-go/pkg/ise"
	"github.com/iseio/iseio-go/pkg/ise/hw"
	"github.com/iseio/iseio-go/pkg/ise/plug"
	"github.com/iseio/iseio-go/pkg/log"
)

// Drivers returns the default backend registry in probe order.
func Drivers() []ise.Driver {
	return []ise.Driver{
		hw.Driver(nil),
		plug.Driver(nil),
	}
}

// Environment is the configuration and logging a session runs with.
type Environment struct {
	Config   config.Config
	Logger   *slog.Logger
	Protocol log.Logger

	closers []io.Closer
}

// LoadEnvironment reads the configuration and opens the log destinations
// named by the environment. The caller must Close it.
func LoadEnvironment() (*Environment, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	return NewEnvironment(cfg, diag.EnvHost)
}

// NewEnvironment builds an environment for cfg with diagnostics taken from
// the variable logEnv. A protocol log is opened when cfg names one.
func NewEnvironment(cfg config.Config, logEnv string) (*Environment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, closer := diag.FromEnv(logEnv)
	env := &Environment{
		Config:  cfg,
		Logger:  logger,
		closers: []io.Closer{closer},
	}

	// Protocol events are mirrored into the diagnostic log at debug level.
	var sinks []log.Logger
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		sinks = append(sinks, log.NewSlogAdapter(logger))
	}
	if cfg.ProtocolLog != "" {
		fl, err := log.NewFileLogger(cfg.ProtocolLog)
		if err != nil {
			env.Close()
			return nil, fmt.Errorf("protocol log: %w", err)
		}
		sinks = append(sinks, fl)
		env.closers = append(env.closers, fl)
	}
	env.Protocol = log.NewMultiLogger(sinks...)
	return env, nil
}

// Options returns the session options of the environment.
func (e *Environment) Options() []ise.Option {
	return []ise.Option{
		ise.WithConfig(e.Config),
		ise.WithDrivers(Drivers()...),
		ise.WithLogger(e.Logger),
		ise.WithProtocolLogger(e.Protocol),
	}
}

// Close releases the log destinations.
func (e *Environment) Close() error {
	var errs []error
	for _, c := range e.closers {
		if c != nil {
			errs = append(errs, c.Close())
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

// Session is an ise.Session that owns its environment.
type Session struct {
	*ise.Session
	env *Environment
}

// Close closes the session, then its log destinations.
func (s *Session) Close() error {
	err := s.Session.Close()
	return errors.Join(err, s.env.Close())
}

type connectFunc func(context.Context, string, ...ise.Option) (*ise.Session, error)

func start(ctx context.Context, connect connectFunc, identity string, opts []ise.Option) (*Session, error) {
	env, err := LoadEnvironment()
	if err != nil {
		return nil, err
	}
	s, err := connect(ctx, identity, append(env.Options(), opts...)...)
	if err != nil {
		env.Close()
		return nil, err
	}
	return &Session{Session: s, env: env}, nil
}

// Open opens identity with the environment's configuration.
func Open(ctx context.Context, identity string, opts ...ise.Option) (*Session, error) {
	return start(ctx, ise.Open, identity, opts)
}

// Bind binds identity with the environment's configuration.
func Bind(ctx context.Context, identity string, opts ...ise.Option) (*Session, error) {
	return start(ctx, ise.Bind, identity, opts)
}

// Version opens identity, returns its version string and closes it.
func Version(ctx context.Context, identity string, opts ...ise.Option) (string, error) {
	s, err := Open(ctx, identity, opts...)
	if err != nil {
		return "", err
	}
	defer s.Close()
	return s.Version(), nil
}

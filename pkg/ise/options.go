package ise

import (
	"log/slog"

	"github.com/iseio/iseio-go/pkg/config"
	"github.com/iseio/iseio-go/pkg/log"
)

// options holds the optional settings of Bind and Open.
type options struct {
	cfg      config.Config
	drivers  []Driver
	logger   *slog.Logger
	protocol log.Logger
	workDir  string
}

// Option configures a Session.
type Option func(*options)

// WithConfig sets the configuration. The default is config.Default().
func WithConfig(cfg config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithDrivers sets the backend drivers, tried in the given order.
func WithDrivers(drivers ...Driver) Option {
	return func(o *options) { o.drivers = append([]Driver(nil), drivers...) }
}

// WithLogger sets the diagnostic logger.
// If nil, diagnostics are discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithProtocolLogger sets the protocol event logger.
// If nil, events are discarded.
func WithProtocolLogger(logger log.Logger) Option {
	return func(o *options) { o.protocol = logger }
}

// WithWorkDir sets the directory searched first for firmware images.
// The default is the process working directory.
func WithWorkDir(dir string) Option {
	return func(o *options) { o.workDir = dir }
}

func buildOptions(opts []Option) options {
	o := options{
		cfg:     config.Default(),
		workDir: ".",
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.protocol == nil {
		o.protocol = log.NoopLogger{}
	}
	return o
}

// Package config loads iseio settings from a YAML or TOML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/iseio/iseio-go/pkg/retry"
)

// Environment variables consulted by FromEnv.
const (
	EnvConfig      = "ISEIO_CONFIG"
	EnvInstallRoot = "ISEIO_INSTALL_ROOT"
	EnvPluginDir   = "ISEIO_PLUGIN_DIR"
	EnvRuntimeDir  = "ISEIO_RUNTIME_DIR"
)

// Default values.
const (
	DefaultInstallRoot     = "/usr/share/ise"
	DefaultPluginDir       = "."
	DefaultLineCapacity    = 4096
	DefaultOpenTimeout     = 5 * time.Second
	DefaultAckTimeout      = 5 * time.Second
	DefaultShutdownTimeout = 2 * time.Second
	DefaultControlPath     = "/dev/isex%d"
	DefaultChannelPath     = "/dev/ise%d"
)

// Config holds the settings shared by the session and both backends.
type Config struct {
	// InstallRoot is the fallback directory searched for firmware images.
	InstallRoot string

	// PluginDir holds plugin helper executables (<name>.plg).
	PluginDir string

	// RuntimeDir holds rendezvous sockets and frame backing files.
	RuntimeDir string

	// LineCapacity is the receive buffer size of a channel. Longer lines
	// are truncated.
	LineCapacity int

	// RunRetry bounds the run-program poll.
	RunRetry retry.Config

	OpenTimeout     time.Duration
	AckTimeout      time.Duration
	ShutdownTimeout time.Duration

	// ProtocolLog is a path for the CBOR protocol event log. Empty disables it.
	ProtocolLog string

	Hardware Hardware
}

// Hardware describes the device-file control surface.
type Hardware struct {
	// ControlPath is a format with one %d for the board number.
	ControlPath string
	// ChannelPath is a format with one %d for the board number.
	ChannelPath string
	Ioctl       Ioctl
}

// Ioctl holds the driver's request codes. Zero means not configured.
type Ioctl struct {
	Restart   uint
	Run       uint
	Channel   uint
	Flush     uint
	Sync      uint
	Timeout   uint
	MakeFrame uint
	FreeFrame uint
}

// Configured reports whether every request code is set.
func (i Ioctl) Configured() bool {
	return i.Restart != 0 && i.Run != 0 && i.Channel != 0 && i.Flush != 0 &&
		i.Sync != 0 && i.Timeout != 0 && i.MakeFrame != 0 && i.FreeFrame != 0
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		InstallRoot:     DefaultInstallRoot,
		PluginDir:       DefaultPluginDir,
		RuntimeDir:      filepath.Join(os.TempDir(), "iseio"),
		LineCapacity:    DefaultLineCapacity,
		RunRetry:        retry.DefaultConfig(),
		OpenTimeout:     DefaultOpenTimeout,
		AckTimeout:      DefaultAckTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		Hardware: Hardware{
			ControlPath: DefaultControlPath,
			ChannelPath: DefaultChannelPath,
		},
	}
}

// FromEnv loads the file named by ISEIO_CONFIG (or the defaults) and applies
// directory overrides from the environment.
func FromEnv() (Config, error) {
	cfg := Default()
	if path := os.Getenv(EnvConfig); path != "" {
		var err error
		cfg, err = Load(path)
		if err != nil {
			return Config{}, err
		}
	}
	if v := os.Getenv(EnvInstallRoot); v != "" {
		cfg.InstallRoot = v
	}
	if v := os.Getenv(EnvPluginDir); v != "" {
		cfg.PluginDir = v
	}
	if v := os.Getenv(EnvRuntimeDir); v != "" {
		cfg.RuntimeDir = v
	}
	return cfg, cfg.Validate()
}

// Validate rejects values no session could work with.
func (c Config) Validate() error {
	var errs []error
	if c.InstallRoot == "" {
		errs = append(errs, errors.New("install_root is empty"))
	}
	if c.RuntimeDir == "" {
		errs = append(errs, errors.New("runtime_dir is empty"))
	}
	if c.LineCapacity < 2 {
		errs = append(errs, fmt.Errorf("line_capacity %d is too small", c.LineCapacity))
	}
	if c.RunRetry.Attempts < 1 {
		errs = append(errs, fmt.Errorf("run_retry.attempts %d must be positive", c.RunRetry.Attempts))
	}
	if c.RunRetry.Multiplier != 0 && c.RunRetry.Multiplier < 1 {
		errs = append(errs, fmt.Errorf("run_retry.multiplier %v must be at least 1", c.RunRetry.Multiplier))
	}
	if c.OpenTimeout <= 0 {
		errs = append(errs, errors.New("open_timeout must be positive"))
	}
	if c.AckTimeout <= 0 {
		errs = append(errs, errors.New("ack_timeout must be positive"))
	}
	if c.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("shutdown_timeout is negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

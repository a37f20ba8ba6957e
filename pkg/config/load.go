package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the file layout. Pointers distinguish "absent" from zero.
type fileConfig struct {
	InstallRoot     *string     `yaml:"install_root" toml:"install_root"`
	PluginDir       *string     `yaml:"plugin_dir" toml:"plugin_dir"`
	RuntimeDir      *string     `yaml:"runtime_dir" toml:"runtime_dir"`
	LineCapacity    *int        `yaml:"line_capacity" toml:"line_capacity"`
	RunRetry        *fileRetry  `yaml:"run_retry" toml:"run_retry"`
	OpenTimeout     *string     `yaml:"open_timeout" toml:"open_timeout"`
	AckTimeout      *string     `yaml:"ack_timeout" toml:"ack_timeout"`
	ShutdownTimeout *string     `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
	ProtocolLog     *string     `yaml:"protocol_log" toml:"protocol_log"`
	Hardware        *fileDevice `yaml:"hardware" toml:"hardware"`
}

type fileRetry struct {
	Attempts   *int     `yaml:"attempts" toml:"attempts"`
	Initial    *string  `yaml:"initial" toml:"initial"`
	Max        *string  `yaml:"max" toml:"max"`
	Multiplier *float64 `yaml:"multiplier" toml:"multiplier"`
	Jitter     *float64 `yaml:"jitter" toml:"jitter"`
}

type fileDevice struct {
	ControlPath *string    `yaml:"control_path" toml:"control_path"`
	ChannelPath *string    `yaml:"channel_path" toml:"channel_path"`
	Ioctl       *fileIoctl `yaml:"ioctl" toml:"ioctl"`
}

type fileIoctl struct {
	Restart   uint `yaml:"restart" toml:"restart"`
	Run       uint `yaml:"run" toml:"run"`
	Channel   uint `yaml:"channel" toml:"channel"`
	Flush     uint `yaml:"flush" toml:"flush"`
	Sync      uint `yaml:"sync" toml:"sync"`
	Timeout   uint `yaml:"timeout" toml:"timeout"`
	MakeFrame uint `yaml:"make_frame" toml:"make_frame"`
	FreeFrame uint `yaml:"free_frame" toml:"free_frame"`
}

// Load reads a configuration file. The format follows the extension:
// .yaml/.yml or .toml. Unset fields keep their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	var raw fileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("load config: unknown format %q", ext)
	}

	cfg := Default()
	if err := raw.apply(&cfg); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

type durationField struct {
	name string
	src  *string
	dst  *time.Duration
}

func (f *fileConfig) apply(cfg *Config) error {
	setString(&cfg.InstallRoot, f.InstallRoot)
	setString(&cfg.PluginDir, f.PluginDir)
	setString(&cfg.RuntimeDir, f.RuntimeDir)
	setString(&cfg.ProtocolLog, f.ProtocolLog)
	if f.LineCapacity != nil {
		cfg.LineCapacity = *f.LineCapacity
	}

	durations := []durationField{
		{"open_timeout", f.OpenTimeout, &cfg.OpenTimeout},
		{"ack_timeout", f.AckTimeout, &cfg.AckTimeout},
		{"shutdown_timeout", f.ShutdownTimeout, &cfg.ShutdownTimeout},
	}
	if r := f.RunRetry; r != nil {
		if r.Attempts != nil {
			cfg.RunRetry.Attempts = *r.Attempts
		}
		if r.Multiplier != nil {
			cfg.RunRetry.Multiplier = *r.Multiplier
		}
		if r.Jitter != nil {
			cfg.RunRetry.Jitter = *r.Jitter
		}
		durations = append(durations,
			durationField{"run_retry.initial", r.Initial, &cfg.RunRetry.Initial},
			durationField{"run_retry.max", r.Max, &cfg.RunRetry.Max},
		)
	}
	for _, d := range durations {
		if d.src == nil {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(*d.src))
		if err != nil {
			return fmt.Errorf("parse %s: %w", d.name, err)
		}
		*d.dst = v
	}

	if h := f.Hardware; h != nil {
		setString(&cfg.Hardware.ControlPath, h.ControlPath)
		setString(&cfg.Hardware.ChannelPath, h.ChannelPath)
		if h.Ioctl != nil {
			cfg.Hardware.Ioctl = Ioctl(*h.Ioctl)
		}
	}
	return nil
}

func setString(dst *string, src *string) {
	if src == nil {
		return
	}
	if v := strings.TrimSpace(*src); v != "" {
		*dst = v
	}
}

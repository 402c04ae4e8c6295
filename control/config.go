// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Typed runtime configuration loaded from YAML.

package control

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/momentics/hioload-zmq/api"
	zmq4 "github.com/pebbe/zmq4"
	"gopkg.in/yaml.v3"
)

// Config is the complete runtime configuration.
type Config struct {
	Loop    LoopConfig     `yaml:"loop"`
	Log     LogConfig      `yaml:"log"`
	Metrics MetricsConfig  `yaml:"metrics"`
	Sockets []SocketConfig `yaml:"sockets"`
}

// LoopConfig tunes the cooperative event loop and its reactor.
type LoopConfig struct {
	// MaxEvents bounds the readiness events drained per reactor wait.
	MaxEvents int `yaml:"max_events"`
	// PollTimeout bounds an idle reactor wait; zero blocks until woken.
	PollTimeout time.Duration `yaml:"poll_timeout"`
	// CPU pins the loop thread to one logical CPU; -1 leaves it unpinned.
	CPU int `yaml:"cpu"`
}

// LogConfig selects the logger flavour and level.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// MetricsConfig toggles Prometheus collectors.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// SocketConfig describes one socket the application opens.
type SocketConfig struct {
	Name      string   `yaml:"name"`
	Type      string   `yaml:"type"`
	Endpoint  string   `yaml:"endpoint"`
	Bind      bool     `yaml:"bind"`
	Subscribe []string `yaml:"subscribe"` // topic prefixes, sub sockets only
}

// SocketTypes maps the socket type names accepted in configuration to
// their ZMQ types. It is the only list of supported names.
var SocketTypes = map[string]zmq4.Type{
	"pair":   zmq4.PAIR,
	"pub":    zmq4.PUB,
	"sub":    zmq4.SUB,
	"req":    zmq4.REQ,
	"rep":    zmq4.REP,
	"dealer": zmq4.DEALER,
	"router": zmq4.ROUTER,
	"pull":   zmq4.PULL,
	"push":   zmq4.PUSH,
	"xpub":   zmq4.XPUB,
	"xsub":   zmq4.XSUB,
	"stream": zmq4.STREAM,
}

// ParseSocketType looks up a configuration name, ignoring case.
func ParseSocketType(name string) (zmq4.Type, error) {
	typ, ok := SocketTypes[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("%w: unknown zmq socket type %q", api.ErrInvalidConfig, name)
	}
	return typ, nil
}

// DefaultConfig returns default configuration values.
func DefaultConfig() *Config {
	return &Config{
		Loop: LoopConfig{
			MaxEvents:   128,
			PollTimeout: 0,
			CPU:         -1,
		},
		Log: LogConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled:   false,
			Namespace: "hioload_zmq",
		},
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML on top of DefaultConfig and validates the result.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and socket declarations.
func (c *Config) Validate() error {
	if c.Loop.MaxEvents <= 0 {
		return fmt.Errorf("%w: loop.max_events must be positive, got %d", api.ErrInvalidConfig, c.Loop.MaxEvents)
	}
	if c.Loop.PollTimeout < 0 {
		return fmt.Errorf("%w: loop.poll_timeout must not be negative", api.ErrInvalidConfig)
	}
	if c.Loop.CPU < -1 {
		return fmt.Errorf("%w: loop.cpu must be -1 or a cpu index, got %d", api.ErrInvalidConfig, c.Loop.CPU)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(c.Sockets))
	for i, s := range c.Sockets {
		if s.Name == "" {
			return fmt.Errorf("%w: sockets[%d].name is empty", api.ErrInvalidConfig, i)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("%w: duplicate socket name %q", api.ErrInvalidConfig, s.Name)
		}
		seen[s.Name] = struct{}{}
		if _, err := ParseSocketType(s.Type); err != nil {
			return fmt.Errorf("socket %q: %w", s.Name, err)
		}
		if s.Endpoint == "" {
			return fmt.Errorf("%w: socket %q has no endpoint", api.ErrInvalidConfig, s.Name)
		}
	}
	return nil
}

// Socket returns the socket declaration with the given name.
func (c *Config) Socket(name string) (SocketConfig, bool) {
	for _, s := range c.Sockets {
		if s.Name == name {
			return s, true
		}
	}
	return SocketConfig{}, false
}

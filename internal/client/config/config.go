package config

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/protocol"
)

// Config holds runtime settings for the chat client.
type Config struct {
	ServerAddr   string
	MaxFrameSize uint32
	DialTimeout  time.Duration
}

// LoadDefaults populates c with defaults matching a local server.
func (c *Config) LoadDefaults() {
	c.ServerAddr = "127.0.0.1:8000"
	c.MaxFrameSize = protocol.DefaultMaxFrameSize
	c.DialTimeout = 5 * time.Second
}

func (c *Config) Validate() error {
	var errs []error
	if c.ServerAddr == "" {
		errs = append(errs, errors.New("server address is required"))
	}
	if c.MaxFrameSize == 0 {
		errs = append(errs, errors.New("max frame size must be positive"))
	}
	if c.DialTimeout <= 0 {
		errs = append(errs, errors.New("dial timeout must be positive"))
	}
	return errors.Join(errs...)
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags in args. Later sources take
// precedence over earlier ones.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

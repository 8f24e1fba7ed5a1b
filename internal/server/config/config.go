// Package config handles configuration for the chat server, including
// defaults, JSON overlay and command-line flags.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/protocol"
	"github.com/dmitrijs2005/gophchat/internal/server/hub"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/repomanager"
)

// Config holds runtime settings for the chat server.
//
// Fields:
//   - ListenAddr: bind address of the TCP chat listener.
//   - WebSocketAddr / HealthAddr: optional listeners, disabled when empty.
//   - DatabaseDriver / DatabaseDSN: user store (sqlite, postgres or memory).
//   - SecretKey: HMAC secret for signing session tokens. Required.
//   - TokenValidity: session token lifetime, zero for tokens that never expire.
//   - MaxFrameSize: largest accepted frame body in bytes.
//   - HubCapacity: per-connection buffer of the broadcast hub.
type Config struct {
	ListenAddr     string
	WebSocketAddr  string
	HealthAddr     string
	DatabaseDriver string
	DatabaseDSN    string
	SecretKey      string
	TokenValidity  time.Duration
	MaxFrameSize   uint32
	HubCapacity    int
	LogLevel       string
	LogFormat      string
	LogFile        string
}

// LoadDefaults populates Config with development defaults. There is no
// default secret key.
func (c *Config) LoadDefaults() {
	c.ListenAddr = "127.0.0.1:8000"
	c.WebSocketAddr = ""
	c.HealthAddr = ""
	c.DatabaseDriver = repomanager.DriverSQLite
	c.DatabaseDSN = repomanager.DefaultSQLiteDSN
	c.TokenValidity = 24 * time.Hour
	c.MaxFrameSize = protocol.DefaultMaxFrameSize
	c.HubCapacity = hub.DefaultCapacity
	c.LogLevel = "info"
	c.LogFormat = logging.FormatJSON
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if c.ListenAddr == "" {
		errs = append(errs, errors.New("listen address is required"))
	}
	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key is required (-s or secret_key)"))
	}
	if !repomanager.ValidDriver(c.DatabaseDriver) {
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.DatabaseDriver))
	}
	if c.DatabaseDriver == repomanager.DriverPostgres && c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database dsn is required for postgres"))
	}
	if c.TokenValidity < 0 {
		errs = append(errs, errors.New("token validity must not be negative"))
	}
	if c.MaxFrameSize == 0 {
		errs = append(errs, errors.New("max frame size must be positive"))
	}
	if c.HubCapacity <= 0 {
		errs = append(errs, errors.New("hub capacity must be positive"))
	}

	return errors.Join(errs...)
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags in args
// (usually os.Args[1:]).
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

package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophchat/internal/flagx"
	"github.com/dmitrijs2005/gophchat/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations use timex.Duration, so
// "24h" and integer nanoseconds are both accepted. Keys missing from the
// file keep their current value.
type JsonConfig struct {
	ListenAddr     string         `json:"listen_addr"`
	WebSocketAddr  string         `json:"websocket_addr"`
	HealthAddr     string         `json:"health_addr"`
	DatabaseDriver string         `json:"database_driver"`
	DatabaseDSN    string         `json:"database_dsn"`
	SecretKey      string         `json:"secret_key"`
	TokenValidity  timex.Duration `json:"token_validity"`
	MaxFrameSize   uint32         `json:"max_frame_size"`
	HubCapacity    int            `json:"hub_capacity"`
	LogLevel       string         `json:"log_level"`
	LogFormat      string         `json:"log_format"`
	LogFile        string         `json:"log_file"`
}

// parseJson overlays the file named by -c / -config, if any.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	c := JsonConfig{
		ListenAddr:     config.ListenAddr,
		WebSocketAddr:  config.WebSocketAddr,
		HealthAddr:     config.HealthAddr,
		DatabaseDriver: config.DatabaseDriver,
		DatabaseDSN:    config.DatabaseDSN,
		SecretKey:      config.SecretKey,
		TokenValidity:  timex.Duration{Duration: config.TokenValidity},
		MaxFrameSize:   config.MaxFrameSize,
		HubCapacity:    config.HubCapacity,
		LogLevel:       config.LogLevel,
		LogFormat:      config.LogFormat,
		LogFile:        config.LogFile,
	}

	if err := json.Unmarshal(file, &c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	config.ListenAddr = c.ListenAddr
	config.WebSocketAddr = c.WebSocketAddr
	config.HealthAddr = c.HealthAddr
	config.DatabaseDriver = c.DatabaseDriver
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.TokenValidity = c.TokenValidity.Duration
	config.MaxFrameSize = c.MaxFrameSize
	config.HubCapacity = c.HubCapacity
	config.LogLevel = c.LogLevel
	config.LogFormat = c.LogFormat
	config.LogFile = c.LogFile
	return nil
}

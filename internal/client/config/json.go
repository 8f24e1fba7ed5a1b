package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophchat/internal/flagx"
	"github.com/dmitrijs2005/gophchat/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	ServerAddr   string         `json:"server_addr"`
	MaxFrameSize uint32         `json:"max_frame_size"`
	DialTimeout  timex.Duration `json:"dial_timeout"`
}

// parseJson overlays cfg with the file named by -c / -config, if any.
// Keys missing from the file keep their current value.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	jc := JsonConfig{
		ServerAddr:   cfg.ServerAddr,
		MaxFrameSize: cfg.MaxFrameSize,
		DialTimeout:  timex.Duration{Duration: cfg.DialTimeout},
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.ServerAddr = jc.ServerAddr
	cfg.MaxFrameSize = jc.MaxFrameSize
	cfg.DialTimeout = jc.DialTimeout.Duration
	return nil
}

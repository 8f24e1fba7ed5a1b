package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/flagx"
)

var flagNames = []string{"a", "w", "g", "k", "d", "s", "t", "m", "q", "l", "j", "f"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   TCP chat listen address (e.g., "127.0.0.1:8000")
//	-w string   WebSocket listen address, empty to disable
//	-g string   gRPC health listen address, empty to disable
//	-k string   database driver: sqlite, postgres or memory
//	-d string   database DSN
//	-s string   token HMAC secret key
//	-t int      token validity, minutes (0 = never expires)
//	-m uint     max frame size, bytes
//	-q int      hub capacity per connection
//	-l string   log level
//	-j string   log format: json, text or console
//	-f string   log file, rotated
//
// Arguments not listed above are ignored.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.ListenAddr, "a", config.ListenAddr, "address and port to run server")
	fs.StringVar(&config.WebSocketAddr, "w", config.WebSocketAddr, "websocket address")
	fs.StringVar(&config.HealthAddr, "g", config.HealthAddr, "grpc health address")
	fs.StringVar(&config.DatabaseDriver, "k", config.DatabaseDriver, "database driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenValidity := fs.Int("t", int(config.TokenValidity.Minutes()), "token validity (in minutes)")
	maxFrameSize := fs.Uint("m", uint(config.MaxFrameSize), "max frame size (bytes)")

	fs.IntVar(&config.HubCapacity, "q", config.HubCapacity, "hub capacity")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "j", config.LogFormat, "log format")
	fs.StringVar(&config.LogFile, "f", config.LogFile, "log file")

	if err := fs.Parse(flagx.FilterArgs(args, flagNames...)); err != nil {
		return err
	}

	config.TokenValidity = time.Duration(*tokenValidity) * time.Minute
	config.MaxFrameSize = uint32(*maxFrameSize)
	return nil
}

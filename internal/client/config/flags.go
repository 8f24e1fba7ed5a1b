package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/flagx"
)

// parseFlags populates selected Config fields from -a, -m and -i. Other
// arguments are ignored.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerAddr, "a", cfg.ServerAddr, "address and port to access server")
	maxFrameSize := fs.Uint("m", uint(cfg.MaxFrameSize), "max frame size (bytes)")
	dialTimeout := fs.Int("i", int(cfg.DialTimeout.Seconds()), "dial timeout (in seconds)")

	if err := fs.Parse(flagx.FilterArgs(args, "a", "m", "i")); err != nil {
		return err
	}

	cfg.MaxFrameSize = uint32(*maxFrameSize)
	cfg.DialTimeout = time.Duration(*dialTimeout) * time.Second
	return nil
}

package config

import (
	"flag"
	"os"
	"time"

	"github.com/msavelyev/notiboard/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   bind address (default from Config)
//	-k string   session signing key (default from Config)
//	-s int      session TTL in minutes (default from Config)
//	-q int      per-client event queue size (default from Config)
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-k", "-s", "-q"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "address and port to bind")
	fs.StringVar(&cfg.SecretKey, "k", cfg.SecretKey, "session signing key")
	sessionTTL := fs.Int("s", int(cfg.SessionTTL.Minutes()), "session TTL (in minutes)")
	fs.IntVar(&cfg.ClientQueueSize, "q", cfg.ClientQueueSize, "per-client event queue size")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.SessionTTL = time.Duration(*sessionTTL) * time.Minute
}

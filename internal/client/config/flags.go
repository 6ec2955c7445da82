package config

import (
	"flag"
	"os"
	"time"

	"github.com/artstore/artstore/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-b string   base URL of the backend (default from Config)
//	-k string   public API key (default from Config)
//	-s string   local state database file (default from Config)
//	-w int      guard wait in seconds before the forced login redirect
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-b", "-k", "-s", "-w"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.BackendURL, "b", cfg.BackendURL, "base URL of the backend")
	fs.StringVar(&cfg.AnonKey, "k", cfg.AnonKey, "public API key")
	fs.StringVar(&cfg.LocalStatePath, "s", cfg.LocalStatePath, "local state database file")
	guardWait := fs.Int("w", int(cfg.GuardMaxWait.Seconds()), "guard wait before login redirect (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.GuardMaxWait = time.Duration(*guardWait) * time.Second
}

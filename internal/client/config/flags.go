package config

import (
	"flag"
	"os"

	"github.com/okutsen/snipkeep/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-s string   base URL of the snipkeep server
//	-d string   sqlite DSN of the local cache
//	-seed string URL of the bootstrap sample dataset
//
// Only the flags handled here are parsed, via flagx.FilterArgs, to avoid
// interference with flags defined by other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-s", "-d", "-seed"})

	fs := flag.NewFlagSet("client", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "s", cfg.ServerURL, "base URL of the snipkeep server")
	fs.StringVar(&cfg.LocalCacheDSN, "d", cfg.LocalCacheDSN, "sqlite DSN of the local cache")
	fs.StringVar(&cfg.SeedURL, "seed", cfg.SeedURL, "URL of the bootstrap sample dataset")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}

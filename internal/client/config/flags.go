package config

import (
	"flag"
	"os"

	"github.com/catusdev/catus-client/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   base URL of the backend REST API (default from Config)
//	-d string   path to the local SQLite database (default from Config)
//	-debug      enable verbose logging
//
// Note: the function filters os.Args to only include the flags it knows
// about, using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-debug"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "base URL of the backend REST API")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the local database")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable verbose logging")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}

package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/toolshare/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-b string   backend base URL
//	-d string   path of the local SQLite database
//	-t value    request timeout: whole seconds ("10") or a duration ("1500ms")
//	-r string   Redis address for cross-process session events
//	-l string   log level
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-b", "-d", "-t", "-r", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.BackendURL, "b", cfg.BackendURL, "backend base URL")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local database path")
	fs.Func("t", "request timeout (seconds or duration)", func(v string) error {
		d, err := parseTimeout(v)
		if err != nil {
			return err
		}
		cfg.RequestTimeout = d
		return nil
	})
	fs.StringVar(&cfg.RedisAddr, "r", cfg.RedisAddr, "redis address for session events")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}

// parseTimeout reads a bare integer as seconds, anything else as a
// time.Duration.
func parseTimeout(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q", v)
	}
	return d, nil
}

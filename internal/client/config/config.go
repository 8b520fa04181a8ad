package config

import (
	"time"

	"github.com/dmitrijs2005/toolshare/internal/client/events"
)

// Config holds runtime settings for the toolshare CLI.
//
// Fields:
//   - BackendURL: base URL of the REST backend. Empty means unconfigured;
//     login then fails with client.ErrNotConfigured.
//   - DatabasePath: SQLite file holding the session and the avatar cache.
//   - RequestTimeout: deadline of each backend call.
//   - AvatarTimeout: deadline of background avatar downloads.
//   - RedisAddr: when set, session events are shared with other processes
//     through Redis Pub/Sub on RedisChannel.
//   - StorePassphrase: when set, stored values are encrypted at rest.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	BackendURL      string
	DatabasePath    string
	RequestTimeout  time.Duration
	AvatarTimeout   time.Duration
	RedisAddr       string
	RedisChannel    string
	StorePassphrase string
	LogLevel        string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BackendURL = "http://localhost:5000/api"
	c.DatabasePath = "toolshare.db"
	c.RequestTimeout = 15 * time.Second
	c.AvatarTimeout = 30 * time.Second
	c.RedisAddr = ""
	c.RedisChannel = events.DefaultChannel
	c.StorePassphrase = ""
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment (including a .env file), a JSON or YAML file (if present)
// and command-line flags (if present). Later sources take precedence over
// earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseFile(cfg)
	parseFlags(cfg)
	return cfg
}

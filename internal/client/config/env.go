package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by parseEnv.
const (
	EnvBackendURL      = "TOOLSHARE_BACKEND_URL"
	EnvDatabasePath    = "TOOLSHARE_DB_PATH"
	EnvRequestTimeout  = "TOOLSHARE_REQUEST_TIMEOUT"
	EnvAvatarTimeout   = "TOOLSHARE_AVATAR_TIMEOUT"
	EnvRedisAddr       = "TOOLSHARE_REDIS_ADDR"
	EnvRedisChannel    = "TOOLSHARE_REDIS_CHANNEL"
	EnvStorePassphrase = "TOOLSHARE_STORE_PASSPHRASE"
	EnvLogLevel        = "TOOLSHARE_LOG_LEVEL"
)

// dotEnvFile is loaded if present. Variables already set in the process
// environment win over the file.
var dotEnvFile = ".env"

// parseEnv overlays Config with TOOLSHARE_* environment variables. Unset
// variables leave the current value. Timeouts use time.ParseDuration syntax
// ("10s"); a malformed one panics, like a malformed config file.
func parseEnv(cfg *Config) {
	_ = godotenv.Load(dotEnvFile) // silently ignore if the file doesn't exist

	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(name); ok {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) {
		v, ok := os.LookupEnv(name)
		if !ok || v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(fmt.Errorf("%s: %w", name, err))
		}
		*dst = d
	}

	str(EnvBackendURL, &cfg.BackendURL)
	str(EnvDatabasePath, &cfg.DatabasePath)
	dur(EnvRequestTimeout, &cfg.RequestTimeout)
	dur(EnvAvatarTimeout, &cfg.AvatarTimeout)
	str(EnvRedisAddr, &cfg.RedisAddr)
	str(EnvRedisChannel, &cfg.RedisChannel)
	str(EnvStorePassphrase, &cfg.StorePassphrase)
	str(EnvLogLevel, &cfg.LogLevel)
}

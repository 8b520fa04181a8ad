package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/toolshare/internal/flagx"
	"github.com/dmitrijs2005/toolshare/internal/timex"
	"github.com/goccy/go-yaml"
)

// FileConfig is a DTO used exclusively for config file unmarshalling.
// It relies on timex.Duration so files can specify timeouts either as
// strings like "10s" or as integer nanoseconds. After parsing, set values
// are copied into the runtime Config (which uses time.Duration).
type FileConfig struct {
	BackendURL      string         `json:"backend_url" yaml:"backend_url"`
	DatabasePath    string         `json:"database_path" yaml:"database_path"`
	RequestTimeout  timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	AvatarTimeout   timex.Duration `json:"avatar_timeout" yaml:"avatar_timeout"`
	RedisAddr       string         `json:"redis_addr" yaml:"redis_addr"`
	RedisChannel    string         `json:"redis_channel" yaml:"redis_channel"`
	StorePassphrase string         `json:"store_passphrase" yaml:"store_passphrase"`
	LogLevel        string         `json:"log_level" yaml:"log_level"`
}

// parseFile overlays Config with values loaded from a config file.
//
// Lookup order for the file path:
//  1. Command-line flags (-c or -config) via flagx.ConfigFileFlag().
//  2. The TOOLSHARE_CONFIG environment variable.
//  3. If still empty, no file is loaded and the function returns.
//
// Files ending in .yaml or .yml are decoded with goccy/go-yaml, anything else
// as JSON. Keys absent from the file keep their current value. Read or
// decode errors panic (caller should recover if desired).
func parseFile(cfg *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(cfg)
}

func (fc *FileConfig) apply(cfg *Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.BackendURL, fc.BackendURL)
	set(&cfg.DatabasePath, fc.DatabasePath)
	set(&cfg.RedisAddr, fc.RedisAddr)
	set(&cfg.RedisChannel, fc.RedisChannel)
	set(&cfg.StorePassphrase, fc.StorePassphrase)
	set(&cfg.LogLevel, fc.LogLevel)

	if fc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}
	if fc.AvatarTimeout.Duration > 0 {
		cfg.AvatarTimeout = fc.AvatarTimeout.Duration
	}
}

// Package config loads runtime configuration for the toolshare CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment: TOOLSHARE_* variables, with a .env file in the working
//     directory loaded first via godotenv (see parseEnv).
//  3. Optional JSON or YAML file (see parseFile) selected via -c/-config or
//     TOOLSHARE_CONFIG.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-b string   backend base URL
//	-d string   local SQLite database path
//	-t int      request timeout (seconds)
//	-r string   Redis address for cross-process session events
//	-l string   log level
//
// # File schema
//
// Timeouts use timex.Duration, so values can be either strings like "10s" or
// integer nanoseconds:
//
//	{
//	  "backend_url": "https://toolshare.example/api",
//	  "database_path": "/home/jane/.toolshare.db",
//	  "request_timeout": "10s",
//	  "avatar_timeout": "30s",
//	  "redis_addr": "127.0.0.1:6379",
//	  "log_level": "debug"
//	}
//
// The same keys work in YAML.
package config

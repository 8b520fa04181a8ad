package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseFile_SourcesAndPrecedence(t *testing.T) {
	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"backend_url":     "https://www.example/api",
		"request_timeout": "10s",
	})
	pathEnv := writeTempJSON(t, dir, "env.json", map[string]any{
		"backend_url": "https://env.example/api",
	})

	t.Run("loads from flags", func(t *testing.T) {
		isolate(t, "-config", pathFlag)

		cfg := &Config{}
		parseFile(cfg)

		assert.Equal(t, "https://www.example/api", cfg.BackendURL)
		assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	})

	t.Run("loads from TOOLSHARE_CONFIG", func(t *testing.T) {
		isolate(t)
		t.Setenv("TOOLSHARE_CONFIG", pathEnv)

		cfg := &Config{}
		parseFile(cfg)
		assert.Equal(t, "https://env.example/api", cfg.BackendURL)
	})

	t.Run("flag beats TOOLSHARE_CONFIG", func(t *testing.T) {
		isolate(t, "-c", pathFlag)
		t.Setenv("TOOLSHARE_CONFIG", pathEnv)

		cfg := &Config{}
		parseFile(cfg)
		assert.Equal(t, "https://www.example/api", cfg.BackendURL)
	})

	t.Run("no file → no changes", func(t *testing.T) {
		isolate(t)

		cfg := &Config{BackendURL: "defaults:1234", RequestTimeout: 42 * time.Second}
		parseFile(cfg)

		assert.Equal(t, "defaults:1234", cfg.BackendURL)
		assert.Equal(t, 42*time.Second, cfg.RequestTimeout)
	})

	t.Run("absent keys keep current values", func(t *testing.T) {
		isolate(t, "-c", pathEnv)

		cfg := &Config{DatabasePath: "keep.db", RequestTimeout: 5 * time.Second}
		parseFile(cfg)

		assert.Equal(t, "keep.db", cfg.DatabasePath)
		assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		isolate(t, "-config", bad)

		require.Panics(t, func() { parseFile(&Config{}) })
	})

	t.Run("missing file → panics", func(t *testing.T) {
		isolate(t, "-c", filepath.Join(dir, "nope.json"))
		require.Panics(t, func() { parseFile(&Config{}) })
	})
}

func Test_parseFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toolshare.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend_url: https://yaml.example/api
avatar_timeout: 1m
redis_addr: 127.0.0.1:6379
log_level: debug
`), 0o600))
	isolate(t, "-c", path)

	cfg := &Config{}
	parseFile(cfg)

	assert.Equal(t, "https://yaml.example/api", cfg.BackendURL)
	assert.Equal(t, time.Minute, cfg.AvatarTimeout)
	assert.Equal(t, "127.0.0.1:6379", cfg.RedisAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

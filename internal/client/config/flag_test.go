package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	// Test cases
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "Test1 OK", args: []string{"cmd", "-b", "http://127.0.0.1:5000/api", "-t", "10", "-d", "x.db"}, expectPanic: false,
			expected: &Config{BackendURL: "http://127.0.0.1:5000/api", DatabasePath: "x.db", RequestTimeout: 10 * time.Second}},
		{name: "Test2 redis and level", args: []string{"cmd", "-r", "localhost:6379", "-l", "debug", "-unknown", "v"}, expectPanic: false,
			expected: &Config{RedisAddr: "localhost:6379", LogLevel: "debug"}},
		{name: "Test3 duration timeout", args: []string{"cmd", "-t", "1500ms"}, expectPanic: false,
			expected: &Config{RequestTimeout: 1500 * time.Millisecond}},
		{name: "Test4 incorrect timeout", args: []string{"cmd", "-b", "http://x", "-t", "abc"}, expectPanic: true, expected: &Config{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}

func TestParseFlags_TimeoutUntouchedWithoutFlag(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"cmd", "-b", "http://x"}

	cfg := &Config{RequestTimeout: 500 * time.Millisecond, AvatarTimeout: 2 * time.Second}
	require.NotPanics(t, func() { parseFlags(cfg) })
	require.Equal(t, 500*time.Millisecond, cfg.RequestTimeout)
	require.Equal(t, "http://x", cfg.BackendURL)
}

func TestLoadConfig_SubSecondEnvTimeoutSurvivesFlags(t *testing.T) {
	isolate(t)
	t.Setenv(EnvRequestTimeout, "500ms")

	cfg := LoadConfig()
	require.Equal(t, 500*time.Millisecond, cfg.RequestTimeout)
}

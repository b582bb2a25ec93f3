package params

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "127.0.0.1:6379", cfg.Server.TCPAddr)
	assert.Equal(t, time.Second, cfg.Engine.MatchInterval)
	assert.Equal(t, 10, cfg.Engine.PriceSamples)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("TCP_ADDR", "0.0.0.0:7000")
	t.Setenv("SERVE_MODE", "sequential")
	t.Setenv("TCP_READ_TIMEOUT_MS", "250")
	t.Setenv("BOOK_STRATEGY", "sorted")
	t.Setenv("MATCH_INTERVAL_MS", "20")
	t.Setenv("MAX_FRAME_BYTES", "4096")
	t.Setenv("ENABLE_FEEDER", "true")
	t.Setenv("FEEDER_MODE", "randomwalk")
	t.Setenv("FEEDER_MEAN", "42.5")

	cfg := LoadFromEnv(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "0.0.0.0:7000", cfg.Server.TCPAddr)
	assert.Equal(t, "sequential", cfg.Server.ServeMode)
	assert.Equal(t, 250*time.Millisecond, cfg.Server.ReadTimeout)
	assert.Equal(t, "sorted", cfg.Engine.BookStrategy)
	assert.Equal(t, 20*time.Millisecond, cfg.Engine.MatchInterval)
	assert.Equal(t, uint32(4096), cfg.Server.MaxFrame)
	assert.True(t, cfg.Feeder.Enabled)
	assert.Equal(t, "randomwalk", cfg.Feeder.Mode)
	assert.Equal(t, 42.5, cfg.Feeder.Mean)
}

func TestLoadFromDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("API_ADDR=:9999\nJOURNAL_DIR=/tmp/j\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("API_ADDR")
		os.Unsetenv("JOURNAL_DIR")
	})

	cfg := LoadFromEnv(path)
	assert.Equal(t, ":9999", cfg.Server.APIAddr)
	assert.Equal(t, "/tmp/j", cfg.Sinks.JournalDir)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"serve mode", func(c *Config) { c.Server.ServeMode = "threaded" }},
		{"strategy", func(c *Config) { c.Engine.BookStrategy = "btree" }},
		{"interval", func(c *Config) { c.Engine.MatchInterval = 0 }},
		{"samples", func(c *Config) { c.Engine.PriceSamples = 0 }},
		{"frame", func(c *Config) { c.Server.MaxFrame = 0 }},
		{"feeder mode", func(c *Config) { c.Feeder.Enabled = true; c.Feeder.Mode = "chaos" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

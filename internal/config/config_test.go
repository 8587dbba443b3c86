package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8188), cfg.HTTP.Port)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, "book-covers", cfg.Storage.DefaultBucket)
	assert.Equal(t, "books", cfg.Storage.SoundBucket)
	assert.Equal(t, 1, cfg.Audio.Concurrency)

	assert.Equal(t, 100*time.Millisecond, cfg.Reader.TickInterval)
	assert.Equal(t, 5*time.Second, cfg.Reader.AutoStartDelay)
	assert.Equal(t, 2*time.Second, cfg.Reader.PageHoldDelay)
	assert.Equal(t, 3*time.Second, cfg.Reader.UntimedPageDelay)
	assert.Equal(t, 5*time.Second, cfg.Reader.BookCloseDelay)

	assert.Equal(t, 30*time.Minute, cfg.Sessions.IdleTimeout)
	assert.True(t, cfg.Tasks.Enabled)
}

func TestNewConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("STORAGE_ROOT_URL", "https://example.supabase.co")
	t.Setenv("READER_AUTO_START_DELAY", "1s")
	t.Setenv("AUDIO_CONCURRENCY", "4")
	t.Setenv("TASKS_ENABLED", "false")

	cfg := NewConfig()

	assert.Equal(t, int32(9000), cfg.HTTP.Port)
	assert.Equal(t, "https://example.supabase.co", cfg.Storage.RootURL)
	assert.Equal(t, time.Second, cfg.Reader.AutoStartDelay)
	assert.Equal(t, 4, cfg.Audio.Concurrency)
	assert.False(t, cfg.Tasks.Enabled)
}

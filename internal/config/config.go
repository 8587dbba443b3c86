package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultDatabasePath is the default path for the content database.
const DefaultDatabasePath = "./readalong.db"

type (
	Config struct {
		HTTP
		Global
		Database
		Storage
		Audio
		Reader
		Sessions
		Tasks
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path  string
		Debug bool // Log every SQL statement
	}
	Storage struct {
		RootURL       string // Storage service root, e.g. https://xyz.supabase.co
		DefaultBucket string // Bucket for single-segment asset refs
		SoundBucket   string // Bucket holding books/<id>/sound/<clip>
	}
	Audio struct {
		CacheDir     string        // On-disk clip cache; empty disables it
		FetchTimeout time.Duration // Per-clip download timeout
		RateLimit    float64       // Clip downloads per second, 0 = unlimited
		Concurrency  int           // Parallel clip loads during preload (1 = sequential)
	}
	Reader struct {
		TickInterval     time.Duration // Playback clock period
		AutoStartDelay   time.Duration // Grace period before playback starts on its own
		PageHoldDelay    time.Duration // Display hold after a timed page completes
		UntimedPageDelay time.Duration // Dwell on pages without caption timing
		BookCloseDelay   time.Duration // Auto-close after the last page
	}
	Sessions struct {
		IdleTimeout  time.Duration
		ReapSchedule string // Cron format: "*/5 * * * *" = every 5 minutes
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
)

// loadDotEnv reads an optional .env file into the process environment.
func loadDotEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		return
	}
	log.Printf("Loaded environment variables from %v", files)
}

func NewConfig() *Config {
	loadDotEnv(".env")

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_debug", false)

	v.SetDefault("storage_root_url", "http://localhost:54321")
	v.SetDefault("storage_default_bucket", "book-covers")
	v.SetDefault("storage_sound_bucket", "books")

	v.SetDefault("audio_cache_dir", "./audio-cache")
	v.SetDefault("audio_fetch_timeout", "30s")
	v.SetDefault("audio_rate_limit", 0)
	v.SetDefault("audio_concurrency", 1)

	// Reader timing defaults
	v.SetDefault("reader_tick_interval", "100ms")
	v.SetDefault("reader_auto_start_delay", "5s")
	v.SetDefault("reader_page_hold_delay", "2s")
	v.SetDefault("reader_untimed_page_delay", "3s")
	v.SetDefault("reader_book_close_delay", "5s")

	v.SetDefault("session_idle_timeout", "30m")
	v.SetDefault("session_reap_schedule", "*/5 * * * *")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path:  v.GetString("DATABASE_PATH"),
			Debug: v.GetBool("DATABASE_DEBUG"),
		},
		Storage: Storage{
			RootURL:       v.GetString("STORAGE_ROOT_URL"),
			DefaultBucket: v.GetString("STORAGE_DEFAULT_BUCKET"),
			SoundBucket:   v.GetString("STORAGE_SOUND_BUCKET"),
		},
		Audio: Audio{
			CacheDir:     v.GetString("AUDIO_CACHE_DIR"),
			FetchTimeout: v.GetDuration("AUDIO_FETCH_TIMEOUT"),
			RateLimit:    v.GetFloat64("AUDIO_RATE_LIMIT"),
			Concurrency:  v.GetInt("AUDIO_CONCURRENCY"),
		},
		Reader: Reader{
			TickInterval:     v.GetDuration("READER_TICK_INTERVAL"),
			AutoStartDelay:   v.GetDuration("READER_AUTO_START_DELAY"),
			PageHoldDelay:    v.GetDuration("READER_PAGE_HOLD_DELAY"),
			UntimedPageDelay: v.GetDuration("READER_UNTIMED_PAGE_DELAY"),
			BookCloseDelay:   v.GetDuration("READER_BOOK_CLOSE_DELAY"),
		},
		Sessions: Sessions{
			IdleTimeout:  v.GetDuration("SESSION_IDLE_TIMEOUT"),
			ReapSchedule: v.GetString("SESSION_REAP_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
	}
}

package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hanyong5/2025book/internal/audio"
	"github.com/hanyong5/2025book/internal/config"
	"github.com/hanyong5/2025book/internal/database"
	http_controllers "github.com/hanyong5/2025book/internal/http"
	"github.com/hanyong5/2025book/internal/importers"
	"github.com/hanyong5/2025book/internal/playback"
	"github.com/hanyong5/2025book/internal/reader"
	"github.com/hanyong5/2025book/internal/scheduler"
	"github.com/hanyong5/2025book/internal/services"
	"github.com/hanyong5/2025book/internal/storage"
	"github.com/hanyong5/2025book/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// OpenDatabase opens the content database, logging SQL when configured.
func OpenDatabase(cfg *config.Config) (*database.Database, error) {
	if cfg.Database.Debug {
		return database.NewDebugDatabase(cfg.Database.Path)
	}
	return database.NewDatabase(cfg.Database.Path)
}

func NewResolver(cfg *config.Config) *storage.Resolver {
	return storage.NewResolver(cfg.Storage.RootURL, cfg.Storage.DefaultBucket, cfg.Storage.SoundBucket)
}

// NewAudioLoader builds the clip loader. The returned disk cache is nil when
// caching is disabled or the cache directory is unusable.
func NewAudioLoader(cfg *config.Config, out audio.Output) (*audio.HTTPLoader, *audio.DiskCache) {
	var disk *audio.DiskCache
	if cfg.Audio.CacheDir != "" {
		var err error
		disk, err = audio.NewDiskCache(cfg.Audio.CacheDir)
		if err != nil {
			log.Printf("WARNING: Failed to initialize clip cache: %v", err)
			disk = nil
		} else {
			log.Printf("Clip cache initialized at %s", cfg.Audio.CacheDir)
		}
	}

	loader := audio.NewHTTPLoader(audio.HTTPLoaderConfig{
		Timeout:   cfg.Audio.FetchTimeout,
		RateLimit: cfg.Audio.RateLimit,
		DiskCache: disk,
		Output:    out,
	})
	return loader, disk
}

// ReaderConfig maps reader timing settings onto session options.
func ReaderConfig(cfg *config.Config) reader.Config {
	return reader.Config{
		Playback: playback.Options{
			TickInterval:     cfg.Reader.TickInterval,
			AutoStartDelay:   cfg.Reader.AutoStartDelay,
			PageHoldDelay:    cfg.Reader.PageHoldDelay,
			UntimedPageDelay: cfg.Reader.UntimedPageDelay,
			BookCloseDelay:   cfg.Reader.BookCloseDelay,
			Scheduler:        playback.RealScheduler{},
		},
		AudioConcurrency: cfg.Audio.Concurrency,
	}
}

// Serve runs the HTTP server until ctx is cancelled or the process receives
// SIGINT/SIGTERM, then shuts down within the configured timeout.
func Serve(ctx context.Context, router http.Handler, cfg *config.Config, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	// kill (no param) default sends syscall.SIGTERM, kill -2 is syscall.SIGINT
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Starting server at %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Printf("Shutdown Server, waiting %v before killing", timeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		// Sessions close first so open event streams end before the server
		// waits on its connections.
		if onShutdown != nil {
			onShutdown(shutdownCtx)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		log.Println("Server exiting")
		return nil
	})
	return g.Wait()
}

func Run(cfg *config.Config, version string) error {
	log.Printf("Starting readalong v%s", version)

	db, err := OpenDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	resolver := NewResolver(cfg)
	loader, disk := NewAudioLoader(cfg, audio.DiscardOutput{})
	readers := reader.NewService(db, loader, resolver, ReaderConfig(cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	routerCfg := http_controllers.RouterConfig{
		Store:    db,
		Resolver: resolver,
		Health:   db,
		Sessions: readers,
		Version:  version,
	}
	if disk != nil {
		routerCfg.ClipCache = disk
	}

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var warmer services.AudioWarmer
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(tasks.NewWarmBookAudioQueue(db, resolver, loader))
		taskClient.Start(ctx)

		warmer = taskClient
		routerCfg.TaskRunner = taskClient
	} else {
		log.Printf("Task queue disabled, imported books will not be warmed")
	}

	routerCfg.Importer = importers.NewPipeline(services.NewImportService(db, warmer))

	reaper := scheduler.NewSessionReaper(readers, cfg.Sessions.ReapSchedule, cfg.Sessions.IdleTimeout)
	if err := reaper.Start(ctx); err != nil {
		return fmt.Errorf("failed to start session reaper: %w", err)
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		reaper.Stop()
		readers.Shutdown()
		if taskClient != nil {
			taskClient.Stop(ctx)
		}
	}

	return Serve(ctx, router, cfg, onShutdown)
}

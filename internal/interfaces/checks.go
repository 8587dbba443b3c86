package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/hanyong5/2025book/internal/audio"
	"github.com/hanyong5/2025book/internal/database"
	"github.com/hanyong5/2025book/internal/http"
	"github.com/hanyong5/2025book/internal/importers"
	"github.com/hanyong5/2025book/internal/playback"
	"github.com/hanyong5/2025book/internal/reader"
	"github.com/hanyong5/2025book/internal/scheduler"
	"github.com/hanyong5/2025book/internal/services"
	"github.com/hanyong5/2025book/internal/storage"
	"github.com/hanyong5/2025book/internal/tasks"
)

// =============================================================================
// Content Store
// =============================================================================

var _ services.BookStore = (*database.Database)(nil)
var _ services.AssetResolver = (*storage.Resolver)(nil)
var _ audio.URLResolver = (*storage.Resolver)(nil)
var _ http.Pinger = (*database.Database)(nil)

// =============================================================================
// Audio
// =============================================================================

var _ audio.Handle = (*audio.Clip)(nil)
var _ audio.Loader = (*audio.HTTPLoader)(nil)
var _ audio.Output = audio.DiscardOutput{}
var _ tasks.ClipFetcher = (*audio.HTTPLoader)(nil)
var _ http.ClipCacheInvalidator = (*audio.DiskCache)(nil)

// =============================================================================
// Playback
// =============================================================================

var _ playback.Scheduler = playback.RealScheduler{}
var _ playback.Preloader = (*audio.Cache)(nil)
var _ playback.ClipSource = (*audio.Cache)(nil)
var _ http.SessionManager = (*reader.Service)(nil)
var _ http.SessionCounter = (*reader.Service)(nil)
var _ scheduler.IdleReaper = (*reader.Service)(nil)

// =============================================================================
// Import Pipeline and Tasks
// =============================================================================

var _ importers.BookImporter = (*services.ImportService)(nil)
var _ http.ManifestImporter = (*importers.Pipeline)(nil)
var _ services.AudioWarmer = (*tasks.Client)(nil)
var _ http.TaskRunner = (*tasks.Client)(nil)

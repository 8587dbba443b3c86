package http

import (
	"github.com/hanyong5/2025book/internal/services"
)

// RouterConfig contains all dependencies needed to create the HTTP router.
// Optional dependencies disable their routes when nil.
type RouterConfig struct {
	// Content
	Store    services.BookStore
	Resolver services.AssetResolver
	Health   Pinger

	// Optional
	Importer   ManifestImporter
	Sessions   SessionManager
	TaskRunner TaskRunner
	ClipCache  ClipCacheInvalidator

	// Application info
	Version string
}

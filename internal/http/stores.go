package http

import (
	"context"

	"github.com/mikestefanello/backlite"

	"github.com/hanyong5/2025book/internal/playback"
	"github.com/hanyong5/2025book/internal/services"
)

// This file consolidates the interfaces HTTP controllers depend on. Each
// controller takes only what it uses.

// DeleteStore removes books.
type DeleteStore interface {
	DeleteBook(id uint) error
}

// ClipCacheInvalidator drops locally cached narration clips of a book.
type ClipCacheInvalidator interface {
	Invalidate(bookID uint) error
}

// ManifestImporter imports a book manifest.
type ManifestImporter interface {
	Import(data []byte) (services.ImportResult, error)
}

// SessionManager opens and tracks reader sessions.
type SessionManager interface {
	Open(ctx context.Context, bookID uint) (*playback.Session, error)
	Get(id string) (*playback.Session, error)
	Close(id string) error
	List() []playback.Snapshot
}

// TaskRunner enqueues background tasks and reports their status.
type TaskRunner interface {
	EnqueueWarmBookAudio(bookID uint) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

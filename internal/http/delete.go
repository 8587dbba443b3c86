package http

import (
	"errors"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/hanyong5/2025book/internal/database"
)

type DeleteController struct {
	store DeleteStore
	clips ClipCacheInvalidator
}

// NewDeleteController creates a DeleteController. clips may be nil when no
// disk clip cache is configured.
func NewDeleteController(store DeleteStore, clips ClipCacheInvalidator) *DeleteController {
	return &DeleteController{store: store, clips: clips}
}

// DeleteBook removes a book, its pages and its cached clips.
// DELETE /api/books/:id
func (dc *DeleteController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := dc.store.DeleteBook(id); err != nil {
		if errors.Is(err, database.ErrBookNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "delete book")
		return
	}

	if dc.clips != nil {
		if err := dc.clips.Invalidate(id); err != nil {
			log.Printf("[AUDIO] Failed to drop cached clips of book %d: %v", id, err)
		}
	}

	respondSuccess(c, "Book deleted")
}

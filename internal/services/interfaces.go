package services

import "github.com/hanyong5/2025book/internal/entities"

// ContentStore provides read-only access to books and their pages.
// Use this interface when you only need to query content.
type ContentStore interface {
	GetBook(id uint) (*entities.Book, error)
	ListBooks() ([]entities.Book, error)
	// ListPages returns a book's pages ordered by page number.
	ListPages(bookID uint) ([]entities.Page, error)
}

// BookStore persists books together with their pages.
type BookStore interface {
	ContentStore
	SaveBook(book *entities.Book) error
	DeleteBook(id uint) error
}

// AssetResolver maps stored asset references to fetchable URLs.
type AssetResolver interface {
	ResolveAssetURL(ref string) string
	ResolveAudioURL(clipRef string, bookID uint) string
}

// AudioWarmer schedules background download of a book's narration clips.
type AudioWarmer interface {
	EnqueueWarmBookAudio(bookID uint) (string, error)
}

// ImportResult contains the outcome of a book import.
type ImportResult struct {
	BookID        uint   `json:"book_id"`
	Title         string `json:"title"`
	PagesImported int    `json:"pages_imported"`
	TimedPages    int    `json:"timed_pages"`
	ClipRefs      int    `json:"clip_refs"`
	WarmTaskID    string `json:"warm_task_id,omitempty"`
}

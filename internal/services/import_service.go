package services

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/hanyong5/2025book/internal/audio"
	"github.com/hanyong5/2025book/internal/captions"
	"github.com/hanyong5/2025book/internal/entities"
)

// ErrEmptyBook is returned when an imported book has no pages.
var ErrEmptyBook = errors.New("book has no pages")

// ImportService stores imported books and schedules their audio warm-up.
type ImportService struct {
	store  BookStore
	warmer AudioWarmer
}

// NewImportService creates a new ImportService. warmer may be nil when
// background tasks are disabled.
func NewImportService(store BookStore, warmer AudioWarmer) *ImportService {
	return &ImportService{
		store:  store,
		warmer: warmer,
	}
}

// ImportBook saves book with its pages ordered by page number. A book with the
// same title and author is replaced.
func (s *ImportService) ImportBook(book entities.Book) (ImportResult, error) {
	if len(book.Pages) == 0 {
		return ImportResult{}, ErrEmptyBook
	}

	sort.SliceStable(book.Pages, func(i, j int) bool {
		return book.Pages[i].PageNo < book.Pages[j].PageNo
	})

	result := ImportResult{Title: book.Title, PagesImported: len(book.Pages)}
	sets := make([]captions.Set, 0, len(book.Pages))
	for _, page := range book.Pages {
		set := captions.Parse(page.Text)
		if _, ok := set.Duration(); ok {
			result.TimedPages++
		}
		sets = append(sets, set)
	}
	result.ClipRefs = len(audio.CollectClipRefs(sets))

	if err := s.store.SaveBook(&book); err != nil {
		return ImportResult{}, fmt.Errorf("failed to save book: %w", err)
	}
	result.BookID = book.ID

	if s.warmer != nil && result.ClipRefs > 0 {
		taskID, err := s.warmer.EnqueueWarmBookAudio(book.ID)
		if err != nil {
			log.Printf("Failed to enqueue audio warm-up for book %d: %v", book.ID, err)
		} else {
			result.WarmTaskID = taskID
		}
	}

	log.Printf("Imported %q: %d pages (%d timed), %d clips", book.Title, result.PagesImported, result.TimedPages, result.ClipRefs)
	return result, nil
}

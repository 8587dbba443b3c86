package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanyong5/2025book/internal/entities"
)

type memoryStore struct {
	saved   []entities.Book
	saveErr error
}

func (m *memoryStore) GetBook(id uint) (*entities.Book, error)        { return nil, nil }
func (m *memoryStore) ListBooks() ([]entities.Book, error)            { return m.saved, nil }
func (m *memoryStore) ListPages(bookID uint) ([]entities.Page, error) { return nil, nil }
func (m *memoryStore) DeleteBook(id uint) error                       { return nil }

func (m *memoryStore) SaveBook(book *entities.Book) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	book.ID = uint(len(m.saved) + 1)
	m.saved = append(m.saved, *book)
	return nil
}

type recordingWarmer struct {
	bookIDs []uint
	err     error
}

func (w *recordingWarmer) EnqueueWarmBookAudio(bookID uint) (string, error) {
	if w.err != nil {
		return "", w.err
	}
	w.bookIDs = append(w.bookIDs, bookID)
	return "task-1", nil
}

func sampleBook() entities.Book {
	return entities.Book{
		Title:  "The Moon Rabbit",
		Author: "Anonymous",
		Pages: []entities.Page{
			{PageNo: 2, Text: `{"sentences":[{"s":0,"e":2,"text":"Hop","sound":"2.mp3"}]}`},
			{PageNo: 1, Text: `{"sentences":[{"s":0,"e":3,"text":"Hello","sound":"1.mp3"},{"s":3,"e":4,"text":"Again","sound":"1.mp3"}]}`},
			{PageNo: 3, Text: ""},
		},
	}
}

func TestImportBook(t *testing.T) {
	store := &memoryStore{}
	warmer := &recordingWarmer{}
	svc := NewImportService(store, warmer)

	result, err := svc.ImportBook(sampleBook())
	require.NoError(t, err)

	assert.Equal(t, uint(1), result.BookID)
	assert.Equal(t, 3, result.PagesImported)
	assert.Equal(t, 2, result.TimedPages)
	assert.Equal(t, 2, result.ClipRefs)
	assert.Equal(t, "task-1", result.WarmTaskID)
	assert.Equal(t, []uint{1}, warmer.bookIDs)

	require.Len(t, store.saved, 1)
	pages := store.saved[0].Pages
	assert.Equal(t, []int{1, 2, 3}, []int{pages[0].PageNo, pages[1].PageNo, pages[2].PageNo})
}

func TestImportBook_Errors(t *testing.T) {
	t.Run("no pages", func(t *testing.T) {
		svc := NewImportService(&memoryStore{}, nil)
		_, err := svc.ImportBook(entities.Book{Title: "Empty"})
		assert.ErrorIs(t, err, ErrEmptyBook)
	})

	t.Run("save failure", func(t *testing.T) {
		saveErr := errors.New("disk full")
		svc := NewImportService(&memoryStore{saveErr: saveErr}, nil)
		_, err := svc.ImportBook(sampleBook())
		assert.ErrorIs(t, err, saveErr)
	})

	t.Run("warm-up failure is not fatal", func(t *testing.T) {
		svc := NewImportService(&memoryStore{}, &recordingWarmer{err: errors.New("queue closed")})
		result, err := svc.ImportBook(sampleBook())
		require.NoError(t, err)
		assert.Empty(t, result.WarmTaskID)
	})
}

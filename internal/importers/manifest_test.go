package importers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanyong5/2025book/internal/captions"
	"github.com/hanyong5/2025book/internal/entities"
	"github.com/hanyong5/2025book/internal/services"
)

const yamlManifest = `
title: The Moon Rabbit
author: Anonymous
cover: book-covers/moon-rabbit.jpg
pages:
  - image: books/1/page1.jpg
    image_clean: books/1/page1_clean.jpg
    captions:
      sentences:
        - {s: 0, e: 2.5, text: "Once upon a time", sound: "p1_s1.mp3"}
  - image: books/1/page2.jpg
    captions: '{"sentences":[{"s":0,"e":3000,"t":"Hop","sound":"p2_s1.mp3"}]}'
  - image: books/1/page3.jpg
    captions:
      - {s: 1, e: 2, text: "The end"}
  - image: books/1/page4.jpg
`

const jsonManifest = `{
  "title": "Blank",
  "pages": [
    {"page_no": 3, "image": "a.jpg", "captions": {"sentences": [{"s": 0, "e": 1, "text": "One"}]}},
    {"page_no": 7, "image": "b.jpg", "captions": null}
  ]
}`

func TestParseManifest_YAML(t *testing.T) {
	m, err := ParseManifest([]byte(yamlManifest))
	require.NoError(t, err)

	book, err := m.Book()
	require.NoError(t, err)

	assert.Equal(t, "The Moon Rabbit", book.Title)
	assert.Equal(t, "book-covers/moon-rabbit.jpg", book.CoverRef)
	require.Len(t, book.Pages, 4)

	for i, page := range book.Pages {
		assert.Equal(t, i+1, page.PageNo, "page numbers default to position")
	}
	assert.Equal(t, "books/1/page1_clean.jpg", book.Pages[0].ImageCleanRef)

	first := captions.Parse(book.Pages[0].Text)
	require.Len(t, first, 1)
	assert.Equal(t, "Once upon a time", first[0].Text)
	assert.Equal(t, 2.5, first[0].End)

	second := captions.Parse(book.Pages[1].Text)
	require.Len(t, second, 1)
	assert.Equal(t, "Hop", second[0].Text)
	assert.Equal(t, 3.0, second[0].End)

	third := captions.Parse(book.Pages[2].Text)
	require.Len(t, third, 1)
	assert.Equal(t, "The end", third[0].Text)

	assert.Empty(t, book.Pages[3].Text)
}

func TestParseManifest_JSON(t *testing.T) {
	m, err := ParseManifest([]byte(jsonManifest))
	require.NoError(t, err)

	book, err := m.Book()
	require.NoError(t, err)

	require.Len(t, book.Pages, 2)
	assert.Equal(t, 3, book.Pages[0].PageNo)
	assert.Equal(t, 7, book.Pages[1].PageNo)
	assert.Len(t, captions.Parse(book.Pages[0].Text), 1)
	assert.Empty(t, book.Pages[1].Text)
}

func TestParseManifest_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not yaml", "title: [unclosed"},
		{"missing title", "pages:\n  - image: a.jpg\n"},
		{"no pages", "title: Empty\n"},
		{"duplicate page_no", "title: Dup\npages:\n  - page_no: 1\n  - page_no: 1\n"},
		{"negative page_no", "title: Neg\npages:\n  - page_no: -2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.data))
			assert.ErrorIs(t, err, ErrInvalidManifest)
		})
	}
}

type capturingImporter struct {
	books []entities.Book
}

func (c *capturingImporter) ImportBook(book entities.Book) (services.ImportResult, error) {
	c.books = append(c.books, book)
	return services.ImportResult{BookID: 42, Title: book.Title, PagesImported: len(book.Pages)}, nil
}

func TestPipeline_ImportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlManifest), 0o644))

	importer := &capturingImporter{}
	result, err := NewPipeline(importer).ImportFile(path)
	require.NoError(t, err)

	assert.Equal(t, uint(42), result.BookID)
	assert.Equal(t, 4, result.PagesImported)
	require.Len(t, importer.books, 1)
}

func TestPipeline_ImportErrors(t *testing.T) {
	importer := &capturingImporter{}
	pipeline := NewPipeline(importer)

	_, err := pipeline.Import([]byte("title: \n"))
	assert.ErrorIs(t, err, ErrInvalidManifest)

	_, err = pipeline.ImportFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
	assert.Empty(t, importer.books)
}

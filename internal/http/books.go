package http

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hanyong5/2025book/internal/captions"
	"github.com/hanyong5/2025book/internal/database"
	"github.com/hanyong5/2025book/internal/entities"
	"github.com/hanyong5/2025book/internal/importers"
	"github.com/hanyong5/2025book/internal/services"
)

// maxManifestSize bounds POST /api/books bodies.
const maxManifestSize = 8 << 20

type BookResponse struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	CoverURL  string    `json:"cover_url,omitempty"`
	PageCount int       `json:"page_count,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type PageResponse struct {
	ID              uint         `json:"id"`
	PageNo          int          `json:"page_no"`
	ImageURL        string       `json:"image_url,omitempty"`
	ImageCleanURL   string       `json:"image_clean_url,omitempty"`
	Captions        captions.Set `json:"captions"`
	DurationSeconds *float64     `json:"duration_seconds"` // nil for untimed pages
}

type BooksController struct {
	store    services.ContentStore
	resolver services.AssetResolver
	importer ManifestImporter
}

func NewBooksController(store services.ContentStore, resolver services.AssetResolver, importer ManifestImporter) *BooksController {
	return &BooksController{
		store:    store,
		resolver: resolver,
		importer: importer,
	}
}

func (bc *BooksController) bookResponse(book entities.Book) BookResponse {
	resp := BookResponse{
		ID:        book.ID,
		Title:     book.Title,
		Author:    book.Author,
		CreatedAt: book.CreatedAt,
	}
	if book.CoverRef != "" {
		resp.CoverURL = bc.resolver.ResolveAssetURL(book.CoverRef)
	}
	return resp
}

// GetAllBooks handles GET /api/books
func (bc *BooksController) GetAllBooks(c *gin.Context) {
	books, err := bc.store.ListBooks()
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}

	out := make([]BookResponse, 0, len(books))
	for _, book := range books {
		out = append(out, bc.bookResponse(book))
	}
	c.IndentedJSON(http.StatusOK, gin.H{"books": out, "count": len(out)})
}

// GetBook handles GET /api/books/:id
func (bc *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.store.GetBook(id)
	if errors.Is(err, database.ErrBookNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get book")
		return
	}

	pages, err := bc.store.ListPages(id)
	if err != nil {
		respondInternalError(c, err, "list pages")
		return
	}

	resp := bc.bookResponse(*book)
	resp.PageCount = len(pages)
	c.IndentedJSON(http.StatusOK, resp)
}

// GetPages handles GET /api/books/:id/pages
// Pages come back in reading order with resolved image URLs and decoded
// captions.
func (bc *BooksController) GetPages(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := bc.store.GetBook(id); err != nil {
		if errors.Is(err, database.ErrBookNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	pages, err := bc.store.ListPages(id)
	if err != nil {
		respondInternalError(c, err, "list pages")
		return
	}

	out := make([]PageResponse, 0, len(pages))
	for _, p := range pages {
		set := captions.Parse(p.Text)
		if set == nil {
			set = captions.Set{}
		}
		page := PageResponse{
			ID:       p.ID,
			PageNo:   p.PageNo,
			Captions: set,
		}
		if ref := p.DisplayImageRef(); ref != "" {
			page.ImageURL = bc.resolver.ResolveAssetURL(ref)
		}
		if p.ImageCleanRef != "" {
			page.ImageCleanURL = bc.resolver.ResolveAssetURL(p.ImageCleanRef)
		}
		if d, ok := set.Duration(); ok {
			page.DurationSeconds = &d
		}
		out = append(out, page)
	}
	c.IndentedJSON(http.StatusOK, gin.H{"book_id": id, "pages": out, "count": len(out)})
}

// ImportBook handles POST /api/books
// The body is a YAML or JSON book manifest.
func (bc *BooksController) ImportBook(c *gin.Context) {
	if bc.importer == nil {
		respondError(c, http.StatusServiceUnavailable, "import_disabled", "import is not configured")
		return
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxManifestSize+1))
	if err != nil {
		respondBadRequest(c, "failed to read request body")
		return
	}
	if len(data) > maxManifestSize {
		respondError(c, http.StatusRequestEntityTooLarge, "manifest_too_large", "manifest exceeds size limit")
		return
	}

	result, err := bc.importer.Import(data)
	switch {
	case errors.Is(err, importers.ErrInvalidManifest), errors.Is(err, services.ErrEmptyBook):
		respondError(c, http.StatusBadRequest, "invalid_manifest", err.Error())
		return
	case err != nil:
		respondInternalError(c, err, "import book")
		return
	}

	respondCreated(c, result)
}

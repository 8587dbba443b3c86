package importers

import (
	"fmt"
	"os"

	"github.com/hanyong5/2025book/internal/entities"
	"github.com/hanyong5/2025book/internal/services"
)

// BookImporter stores a converted book.
type BookImporter interface {
	ImportBook(book entities.Book) (services.ImportResult, error)
}

// Pipeline handles the common import workflow:
// parse → validate → convert → save.
type Pipeline struct {
	importer BookImporter
}

// NewPipeline creates a new import pipeline with the given importer.
func NewPipeline(importer BookImporter) *Pipeline {
	return &Pipeline{importer: importer}
}

// Import parses a manifest and stores the book it describes.
func (p *Pipeline) Import(data []byte) (services.ImportResult, error) {
	manifest, err := ParseManifest(data)
	if err != nil {
		return services.ImportResult{}, err
	}
	book, err := manifest.Book()
	if err != nil {
		return services.ImportResult{}, err
	}
	return p.importer.ImportBook(book)
}

// ImportFile imports the manifest at path.
func (p *Pipeline) ImportFile(path string) (services.ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return services.ImportResult{}, fmt.Errorf("failed to read manifest: %w", err)
	}
	return p.Import(data)
}

package importers

import (
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/hanyong5/2025book/internal/entities"
)

// ErrInvalidManifest is returned for manifests that cannot describe a book.
var ErrInvalidManifest = errors.New("invalid book manifest")

// Manifest describes a book and its pages.
type Manifest struct {
	Title  string         `yaml:"title"`
	Author string         `yaml:"author"`
	Cover  string         `yaml:"cover"`
	Pages  []ManifestPage `yaml:"pages"`
}

// ManifestPage is one page of a manifest. PageNo defaults to the page's
// position when omitted.
type ManifestPage struct {
	PageNo     int       `yaml:"page_no"`
	Image      string    `yaml:"image"`
	ImageClean string    `yaml:"image_clean"`
	Captions   yaml.Node `yaml:"captions"`
}

// ParseManifest decodes and validates a YAML or JSON manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	if m.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidManifest)
	}
	if len(m.Pages) == 0 {
		return fmt.Errorf("%w: no pages", ErrInvalidManifest)
	}

	seen := make(map[int]bool, len(m.Pages))
	for i := range m.Pages {
		p := &m.Pages[i]
		if p.PageNo == 0 {
			p.PageNo = i + 1
		}
		if p.PageNo < 0 {
			return fmt.Errorf("%w: page %d has negative page_no", ErrInvalidManifest, i+1)
		}
		if seen[p.PageNo] {
			return fmt.Errorf("%w: duplicate page_no %d", ErrInvalidManifest, p.PageNo)
		}
		seen[p.PageNo] = true
	}
	return nil
}

// Book converts the manifest into an unsaved book entity.
func (m *Manifest) Book() (entities.Book, error) {
	book := entities.Book{
		Title:    m.Title,
		Author:   m.Author,
		CoverRef: m.Cover,
		Pages:    make([]entities.Page, 0, len(m.Pages)),
	}
	for _, p := range m.Pages {
		text, err := captionText(&p.Captions)
		if err != nil {
			return entities.Book{}, fmt.Errorf("%w: page %d: %v", ErrInvalidManifest, p.PageNo, err)
		}
		book.Pages = append(book.Pages, entities.Page{
			PageNo:        p.PageNo,
			Text:          text,
			ImageRef:      p.Image,
			ImageCleanRef: p.ImageClean,
		})
	}
	return book, nil
}

// captionText returns the stored form of a caption payload: strings are kept
// verbatim, structured YAML is re-encoded as JSON. A bare list is wrapped in
// a sentences object.
func captionText(node *yaml.Node) (string, error) {
	switch node.Kind {
	case 0:
		return "", nil
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return "", nil
		}
		return node.Value, nil
	}

	var value any
	if err := node.Decode(&value); err != nil {
		return "", err
	}
	if node.Kind == yaml.SequenceNode {
		value = map[string]any{"sentences": value}
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

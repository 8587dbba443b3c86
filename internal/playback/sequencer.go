package playback

import (
	"github.com/hanyong5/2025book/internal/captions"
	"github.com/hanyong5/2025book/internal/entities"
)

// Page is a book page with its caption set decoded once at load time.
type Page struct {
	entities.Page
	Captions captions.Set
	Duration float64 // Seconds; zero when untimed
	Timed    bool
}

// NewPage decodes a page's caption payload.
func NewPage(p entities.Page) Page {
	set := captions.Parse(p.Text)
	d, ok := set.Duration()
	return Page{Page: p, Captions: set, Duration: d, Timed: ok}
}

// Sequencer owns the ordered pages and the current page index.
type Sequencer struct {
	pages []Page
	index int
}

func NewSequencer(pages []Page) *Sequencer {
	return &Sequencer{pages: pages}
}

func (q *Sequencer) Current() *Page {
	if len(q.pages) == 0 {
		return nil
	}
	return &q.pages[q.index]
}

func (q *Sequencer) Index() int { return q.index }
func (q *Sequencer) Len() int   { return len(q.pages) }

func (q *Sequencer) HasPrev() bool { return q.index > 0 }
func (q *Sequencer) HasNext() bool { return q.index < len(q.pages)-1 }

// Advance moves to the next page. It returns false on the last page.
func (q *Sequencer) Advance() bool {
	if !q.HasNext() {
		return false
	}
	q.index++
	return true
}

// Retreat moves to the previous page. It returns false on the first page.
func (q *Sequencer) Retreat() bool {
	if !q.HasPrev() {
		return false
	}
	q.index--
	return true
}

// GoTo moves to index.
func (q *Sequencer) GoTo(index int) error {
	if index < 0 || index >= len(q.pages) {
		return ErrPageOutOfRange
	}
	q.index = index
	return nil
}

// Sets returns every page's caption set, for clip preloading.
func (q *Sequencer) Sets() []captions.Set {
	sets := make([]captions.Set, len(q.pages))
	for i, p := range q.pages {
		sets[i] = p.Captions
	}
	return sets
}

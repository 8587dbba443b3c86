// Package reader manages live playback sessions, one per open book view.
//
// The Service fetches a book and its pages from the Content Store, creates a
// playback.Session positioned on the first page and starts preloading the
// book's narration clips. Sessions are addressed by a random ID and removed
// from the service when they close, whatever the reason.
package reader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hanyong5/2025book/internal/audio"
	"github.com/hanyong5/2025book/internal/playback"
	"github.com/hanyong5/2025book/internal/services"
)

var ErrSessionNotFound = errors.New("reader session not found")

// ContentError reports that a book or its pages could not be fetched. It is
// never retried automatically.
type ContentError struct {
	BookID uint
	Err    error
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("content unavailable for book %d: %v", e.BookID, e.Err)
}

func (e *ContentError) Unwrap() error {
	return e.Err
}

// Config holds the session defaults of a Service.
type Config struct {
	// Playback is the template for every session. ID and OnClose are set by
	// the service.
	Playback         playback.Options
	AudioConcurrency int
}

type entry struct {
	session *playback.Session
	clips   *audio.Cache
}

// Service owns the open reader sessions.
type Service struct {
	store    services.ContentStore
	loader   audio.Loader
	resolver audio.URLResolver
	cfg      Config
	now      func() time.Time

	baseCtx context.Context
	cancel  context.CancelFunc

	mu       sync.RWMutex
	sessions map[string]entry
}

// NewService creates a reader service. A nil loader disables audio, sessions
// then play captions only.
func NewService(store services.ContentStore, loader audio.Loader, resolver audio.URLResolver, cfg Config) *Service {
	now := cfg.Playback.Now
	if now == nil {
		now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		store:    store,
		loader:   loader,
		resolver: resolver,
		cfg:      cfg,
		now:      now,
		baseCtx:  ctx,
		cancel:   cancel,
		sessions: make(map[string]entry),
	}
}

// Open starts a session for bookID. Fetch failures are returned as
// *ContentError.
func (s *Service) Open(ctx context.Context, bookID uint) (*playback.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	book, err := s.store.GetBook(bookID)
	if err != nil {
		return nil, &ContentError{BookID: bookID, Err: err}
	}
	pages, err := s.store.ListPages(bookID)
	if err != nil {
		return nil, &ContentError{BookID: bookID, Err: err}
	}

	opts := s.cfg.Playback
	opts.ID = uuid.NewString()
	opts.OnClose = s.forget

	session, err := playback.NewSession(*book, pages, opts)
	if err != nil {
		return nil, &ContentError{BookID: bookID, Err: err}
	}

	e := entry{session: session}
	if s.loader != nil {
		e.clips = audio.NewCache(s.loader, s.resolver, s.cfg.AudioConcurrency)
	}

	s.mu.Lock()
	s.sessions[opts.ID] = e
	s.mu.Unlock()

	// Preloading outlives the request that opened the session.
	if e.clips != nil {
		session.StartPreload(s.baseCtx, e.clips)
	} else {
		session.StartPreload(s.baseCtx, nil)
	}

	log.Printf("[PLAYBACK] Opened session %s for %q (%d pages)", opts.ID, book.Title, len(pages))
	return session, nil
}

// Get returns an open session.
func (s *Service) Get(id string) (*playback.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e.session, nil
}

// Close tears a session down.
func (s *Service) Close(id string) error {
	session, err := s.Get(id)
	if err != nil {
		return err
	}
	session.Close()
	return nil
}

// List returns a snapshot of every open session ordered by ID.
func (s *Service) List() []playback.Snapshot {
	snapshots := make([]playback.Snapshot, 0)
	for _, session := range s.open() {
		snapshots = append(snapshots, session.Snapshot())
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].SessionID < snapshots[j].SessionID
	})
	return snapshots
}

// Len returns the number of open sessions.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ReapIdle closes sessions that have not been used for longer than maxIdle
// and returns how many were closed. Playing sessions are never reaped.
func (s *Service) ReapIdle(maxIdle time.Duration) int {
	now := s.now()
	reaped := 0
	for _, session := range s.open() {
		at, idle := session.IdleSince()
		if !idle || now.Sub(at) <= maxIdle {
			continue
		}
		session.Close()
		reaped++
	}
	return reaped
}

// Shutdown closes every session and stops pending preloads.
func (s *Service) Shutdown() {
	for _, session := range s.open() {
		session.Close()
	}
	s.cancel()
}

func (s *Service) open() []*playback.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*playback.Session, 0, len(s.sessions))
	for _, e := range s.sessions {
		out = append(out, e.session)
	}
	return out
}

func (s *Service) forget(id, reason string) {
	s.mu.Lock()
	e, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return
	}
	if e.clips != nil {
		e.clips.StopAll()
	}
	log.Printf("[PLAYBACK] Closed session %s (%s)", id, reason)
}

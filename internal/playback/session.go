// Package playback drives audio-synchronized page playback.
//
// A Session owns all mutable reader state: the page sequencer, the playback
// clock, the displayed caption set and the single active narration clip.
// Every command and timer callback runs under the session mutex, so at most
// one clip is ever active and no two transitions interleave.
//
// Timers are named slots (tick, auto-start, page hold, book close). Arming a
// slot cancels whatever it held, and a callback from a cancelled timer is
// discarded, so at most one timer of each kind is live.
package playback

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/hanyong5/2025book/internal/audio"
	"github.com/hanyong5/2025book/internal/captions"
	"github.com/hanyong5/2025book/internal/entities"
)

var (
	ErrClosed         = errors.New("session is closed")
	ErrNotReady       = errors.New("audio preload in progress")
	ErrNotPlaying     = errors.New("playback has not started")
	ErrPageOutOfRange = errors.New("page index out of range")
	ErrNoPages        = errors.New("book has no pages")
)

// Close reasons reported to Options.OnClose.
const (
	CloseFinished  = "finished"  // explicit finish command
	CloseCompleted = "completed" // book-finished auto-close
	CloseTeardown  = "teardown"  // session removed by its owner
)

// ClipSource looks up loaded clips by reference.
type ClipSource interface {
	Get(ref string) (audio.Handle, bool)
}

// Preloader loads the clips referenced by a book's caption sets.
type Preloader interface {
	Preload(ctx context.Context, bookID uint, sets []captions.Set, progress audio.ProgressFunc) (map[string]audio.Handle, error)
}

// Options configures a Session. Zero durations take the defaults.
type Options struct {
	ID               string
	TickInterval     time.Duration // Default: 100ms
	AutoStartDelay   time.Duration // Default: 5s
	PageHoldDelay    time.Duration // Default: 2s
	UntimedPageDelay time.Duration // Default: 3s
	BookCloseDelay   time.Duration // Default: 5s
	Scheduler        Scheduler     // Default: RealScheduler
	Now              func() time.Time
	OnClose          func(id, reason string)
}

// DefaultOptions returns the reader's standard timing.
func DefaultOptions() Options {
	return Options{
		TickInterval:     100 * time.Millisecond,
		AutoStartDelay:   5 * time.Second,
		PageHoldDelay:    2 * time.Second,
		UntimedPageDelay: 3 * time.Second,
		BookCloseDelay:   5 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TickInterval <= 0 {
		o.TickInterval = d.TickInterval
	}
	if o.AutoStartDelay <= 0 {
		o.AutoStartDelay = d.AutoStartDelay
	}
	if o.PageHoldDelay <= 0 {
		o.PageHoldDelay = d.PageHoldDelay
	}
	if o.UntimedPageDelay <= 0 {
		o.UntimedPageDelay = d.UntimedPageDelay
	}
	if o.BookCloseDelay <= 0 {
		o.BookCloseDelay = d.BookCloseDelay
	}
	if o.Scheduler == nil {
		o.Scheduler = RealScheduler{}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// timerSlot holds one named timer. gen invalidates callbacks of timers that
// were cancelled after they had already fired.
type timerSlot struct {
	timer Timer
	gen   uint64
}

// Session is one reader's playback of one book.
type Session struct {
	opts  Options
	book  entities.Book
	pages *Sequencer
	clock *Clock

	mu        sync.Mutex
	after     []func()
	state     State
	closed    bool
	reason    string
	displayed captions.Set
	previous  captions.Set
	progress  float64
	clips     ClipSource
	active    audio.Handle

	audioLoading  bool
	audioProgress float64
	cancelPreload context.CancelFunc

	tick, autoStart, pageHold, bookClose timerSlot

	subscribers  map[chan Snapshot]struct{}
	lastActivity time.Time
}

// NewSession creates a session positioned on the first page. Playback does
// not begin until Preload completes (or is skipped) and the auto-start delay
// passes, or Start is called.
func NewSession(book entities.Book, pages []entities.Page, opts Options) (*Session, error) {
	if len(pages) == 0 {
		return nil, ErrNoPages
	}
	opts = opts.withDefaults()

	decoded := make([]Page, len(pages))
	for i, p := range pages {
		decoded[i] = NewPage(p)
	}

	return &Session{
		opts:         opts,
		book:         book,
		pages:        NewSequencer(decoded),
		clock:        NewClock(opts.TickInterval),
		state:        NotStarted,
		subscribers:  make(map[chan Snapshot]struct{}),
		lastActivity: opts.Now(),
	}, nil
}

func (s *Session) ID() string         { return s.opts.ID }
func (s *Session) Book() entities.Book { return s.book }

// Pages returns the decoded pages. The slice must not be modified.
func (s *Session) Pages() []Page { return s.pages.pages }

// locked runs fn under the session mutex, then runs any callbacks fn queued
// for after the unlock.
func (s *Session) locked(fn func()) {
	s.mu.Lock()
	fn()
	after := s.after
	s.after = nil
	s.mu.Unlock()

	for _, f := range after {
		f()
	}
}

// StartPreload marks audio as loading and loads clips in the background.
func (s *Session) StartPreload(ctx context.Context, p Preloader) {
	ctx, cancel := context.WithCancel(ctx)
	ok := false
	s.locked(func() {
		if s.closed {
			return
		}
		ok = true
		s.beginPreloadLocked(cancel)
	})
	if !ok {
		cancel()
		return
	}
	go s.runPreload(ctx, p)
}

// Preload loads clips and blocks until done. A nil Preloader skips audio and
// makes the session ready immediately.
func (s *Session) Preload(ctx context.Context, p Preloader) {
	ctx, cancel := context.WithCancel(ctx)
	ok := false
	s.locked(func() {
		if s.closed {
			return
		}
		ok = true
		s.beginPreloadLocked(cancel)
	})
	if !ok {
		cancel()
		return
	}
	s.runPreload(ctx, p)
}

func (s *Session) beginPreloadLocked(cancel context.CancelFunc) {
	if s.cancelPreload != nil {
		s.cancelPreload()
	}
	s.cancelPreload = cancel
	s.audioLoading = true
	s.audioProgress = 0
	if s.state == AutoStartPending {
		s.disarm(&s.autoStart)
		s.state = NotStarted
	}
	s.publish()
}

func (s *Session) runPreload(ctx context.Context, p Preloader) {
	var (
		clips map[string]audio.Handle
		err   error
	)
	if p != nil {
		clips, err = p.Preload(ctx, s.book.ID, s.pages.Sets(), func(percent float64) {
			s.locked(func() {
				if s.closed {
					return
				}
				s.audioProgress = percent
				s.publish()
			})
		})
	}
	if err != nil {
		log.Printf("[PLAYBACK] Audio preload for book %d ended early, continuing with %d clips: %v", s.book.ID, len(clips), err)
	}

	s.locked(func() {
		if s.closed {
			return
		}
		s.cancelPreload = nil
		s.clips = clipMap(clips)
		s.audioLoading = false
		s.audioProgress = 100
		s.armAutoStartLocked()
		s.publish()
	})
}

type clipMap map[string]audio.Handle

func (m clipMap) Get(ref string) (audio.Handle, bool) {
	h, ok := m[ref]
	return h, ok
}

// Subscribe returns a channel receiving a snapshot after every state change,
// starting with the current one. Slow readers lose intermediate snapshots,
// never the latest. The channel closes when the session closes.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 16)
	s.locked(func() {
		if s.closed {
			ch <- s.snapshotLocked()
			close(ch)
			return
		}
		s.subscribers[ch] = struct{}{}
		ch <- s.snapshotLocked()
	})

	unsubscribe := func() {
		s.locked(func() {
			if _, ok := s.subscribers[ch]; ok {
				delete(s.subscribers, ch)
				close(ch)
			}
		})
	}
	return ch, unsubscribe
}

func (s *Session) publish() {
	if len(s.subscribers) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// Snapshot returns the current published state.
func (s *Session) Snapshot() Snapshot {
	var snap Snapshot
	s.locked(func() { snap = s.snapshotLocked() })
	return snap
}

// IdleSince returns when the session last received a command. A session is
// idle only while it waits on the reader: before start, paused or after the
// book finished. Auto-start and the hold between pages advance on their own.
func (s *Session) IdleSince() (time.Time, bool) {
	var (
		at   time.Time
		idle bool
	)
	s.locked(func() {
		at = s.lastActivity
		if s.closed {
			return
		}
		switch s.state {
		case NotStarted, Paused, BookFinished:
			idle = true
		}
	})
	return at, idle
}

func (s *Session) touch() {
	s.lastActivity = s.opts.Now()
}

// Close tears the session down: every timer is cancelled, the active clip is
// stopped and subscriber channels are closed. Closing twice is a no-op.
func (s *Session) Close() {
	s.locked(func() { s.closeLocked(CloseTeardown) })
}

func (s *Session) Closed() bool {
	var closed bool
	s.locked(func() { closed = s.closed })
	return closed
}

func (s *Session) closeLocked(reason string) {
	if s.closed {
		return
	}
	s.disarm(&s.tick)
	s.disarm(&s.autoStart)
	s.disarm(&s.pageHold)
	s.disarm(&s.bookClose)
	s.stopActiveClip()
	if s.cancelPreload != nil {
		s.cancelPreload()
		s.cancelPreload = nil
	}

	s.closed = true
	s.reason = reason
	s.publish()
	for ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = make(map[chan Snapshot]struct{})

	if s.opts.OnClose != nil {
		id := s.opts.ID
		s.after = append(s.after, func() { s.opts.OnClose(id, reason) })
	}
}

package playback

import (
	"log"
	"math"
	"time"

	"github.com/hanyong5/2025book/internal/captions"
)

// Start begins playback immediately and cancels a pending auto-start. It
// fails with ErrNotReady while audio is still loading and is a no-op once
// playback has started.
func (s *Session) Start() error {
	var err error
	s.locked(func() {
		if s.closed {
			err = ErrClosed
			return
		}
		if s.audioLoading {
			err = ErrNotReady
			return
		}
		s.touch()
		if s.state.started() {
			return
		}
		s.beginLocked()
		s.publish()
	})
	return err
}

// TogglePause pauses a playing page or resumes a paused one.
func (s *Session) TogglePause() error {
	var err error
	s.locked(func() {
		if s.closed {
			err = ErrClosed
			return
		}
		s.touch()
		switch s.state {
		case Playing:
			s.pauseLocked()
		case Paused:
			s.resumeLocked()
		default:
			err = ErrNotPlaying
			return
		}
		s.publish()
	})
	return err
}

// Finish ends the session at once, superseding the book-close delay.
func (s *Session) Finish() error {
	var err error
	s.locked(func() {
		if s.closed {
			err = ErrClosed
			return
		}
		s.touch()
		s.closeLocked(CloseFinished)
	})
	return err
}

// NextPage moves forward one page. On the last page it finishes the book.
func (s *Session) NextPage() error {
	return s.command(func() error {
		if !s.pages.HasNext() {
			s.finishBookLocked()
			return nil
		}
		s.pages.Advance()
		s.pageChangedLocked()
		return nil
	})
}

// PrevPage moves back one page. It is a no-op on the first page.
func (s *Session) PrevPage() error {
	return s.command(func() error {
		if s.pages.Retreat() {
			s.pageChangedLocked()
		}
		return nil
	})
}

// GoToPage jumps to the page at index.
func (s *Session) GoToPage(index int) error {
	return s.command(func() error {
		if index == s.pages.Index() {
			return nil
		}
		if err := s.pages.GoTo(index); err != nil {
			return err
		}
		s.pageChangedLocked()
		return nil
	})
}

func (s *Session) command(fn func() error) error {
	var err error
	s.locked(func() {
		if s.closed {
			err = ErrClosed
			return
		}
		s.touch()
		if err = fn(); err != nil {
			return
		}
		s.publish()
	})
	return err
}

func (s *Session) armAutoStartLocked() {
	if s.state != NotStarted || s.audioLoading {
		return
	}
	s.state = AutoStartPending
	s.arm(&s.autoStart, false, s.opts.AutoStartDelay, func() {
		log.Printf("[PLAYBACK] Session %s auto-starting book %d", s.opts.ID, s.book.ID)
		s.beginLocked()
		s.publish()
	})
}

func (s *Session) beginLocked() {
	s.disarm(&s.autoStart)
	s.state = Playing
	s.runPageLocked()
}

// runPageLocked drives the current page from its present clock value. Timed
// pages tick; untimed pages only wait out the fixed delay.
func (s *Session) runPageLocked() {
	page := s.pages.Current()
	if !page.Timed {
		s.arm(&s.pageHold, false, s.opts.UntimedPageDelay, s.advanceLocked)
		return
	}
	s.arm(&s.tick, true, s.clock.Period(), s.tickLocked)
}

func (s *Session) tickLocked() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[PLAYBACK] Session %s recovered from tick failure on page %d: %v", s.opts.ID, s.pages.Index(), r)
		}
	}()

	if s.state != Playing {
		return
	}
	page := s.pages.Current()
	t := s.clock.Tick()
	d := page.Duration

	active := page.Captions.Active(t)
	changed := !active.Same(s.previous)
	s.previous = active
	s.displayed = active
	s.progress = math.Min(100, t/d*100)
	if changed {
		s.transitionLocked(active)
	}

	if t >= d {
		s.completePageLocked(d)
	}
	s.publish()
}

// transitionLocked swaps narration for a new active set: the current clip is
// stopped and the first clip in sequence order, if loaded, starts from zero.
func (s *Session) transitionLocked(active captions.Set) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[PLAYBACK] Session %s recovered from audio transition failure: %v", s.opts.ID, r)
		}
	}()
	s.stopActiveClip()

	iv, ok := active.FirstClip()
	if !ok || s.clips == nil {
		return
	}
	clip, ok := s.clips.Get(iv.ClipRef)
	if !ok {
		return
	}
	clip.Rewind()
	s.active = clip
	if err := clip.Play(); err != nil {
		log.Printf("[PLAYBACK] Session %s failed to start clip %q: %v", s.opts.ID, iv.ClipRef, err)
	}
}

func (s *Session) stopActiveClip() {
	if s.active == nil {
		return
	}
	s.active.Pause()
	s.active.Rewind()
	s.active = nil
}

func (s *Session) completePageLocked(d float64) {
	s.disarm(&s.tick)
	s.progress = 100
	s.displayed = s.pages.Current().Captions.Trailing(d)
	s.state = PageFinished
	s.arm(&s.pageHold, false, s.opts.PageHoldDelay, s.advanceLocked)
}

func (s *Session) advanceLocked() {
	if !s.pages.Advance() {
		s.finishBookLocked()
	} else {
		s.pageChangedLocked()
	}
	s.publish()
}

func (s *Session) finishBookLocked() {
	if s.state == BookFinished {
		return
	}
	s.disarm(&s.tick)
	s.disarm(&s.pageHold)
	s.disarm(&s.autoStart)
	s.state = BookFinished
	log.Printf("[PLAYBACK] Session %s finished book %d, closing in %s", s.opts.ID, s.book.ID, s.opts.BookCloseDelay)
	s.arm(&s.bookClose, false, s.opts.BookCloseDelay, func() {
		s.closeLocked(CloseCompleted)
	})
}

// pageChangedLocked resets per-page state after the sequencer moved. Clips
// stay in the cache; only the reference to the active one is dropped.
func (s *Session) pageChangedLocked() {
	s.disarm(&s.tick)
	s.disarm(&s.pageHold)
	s.disarm(&s.bookClose)
	s.stopActiveClip()
	s.clock.Reset()
	s.displayed = nil
	s.previous = nil
	s.progress = 0

	switch s.state {
	case Playing, PageFinished, BookFinished:
		s.state = Playing
		s.runPageLocked()
	}
}

func (s *Session) pauseLocked() {
	s.disarm(&s.tick)
	s.disarm(&s.pageHold)
	if s.active != nil {
		s.active.Pause()
	}
	s.state = Paused
}

// resumeLocked continues the paused clip from its position when it still
// belongs to the displayed captions, then restarts the page loop.
func (s *Session) resumeLocked() {
	s.state = Playing
	if s.active != nil && s.active.Paused() {
		if iv, ok := s.displayed.FirstClip(); ok && iv.ClipRef == s.active.Ref() {
			if err := s.active.Play(); err != nil {
				log.Printf("[PLAYBACK] Session %s failed to resume clip %q: %v", s.opts.ID, iv.ClipRef, err)
			}
		}
	}
	s.runPageLocked()
}

// arm replaces the timer in slot. The callback runs under the session lock
// and is dropped if the slot was re-armed or disarmed in the meantime.
func (s *Session) arm(slot *timerSlot, every bool, d time.Duration, fire func()) {
	s.disarm(slot)
	gen := slot.gen
	cb := func() {
		s.locked(func() {
			if s.closed || slot.gen != gen {
				return
			}
			fire()
		})
	}
	if every {
		slot.timer = s.opts.Scheduler.Every(d, cb)
	} else {
		slot.timer = s.opts.Scheduler.AfterFunc(d, cb)
	}
}

func (s *Session) disarm(slot *timerSlot) {
	slot.gen++
	if slot.timer != nil {
		slot.timer.Stop()
		slot.timer = nil
	}
}

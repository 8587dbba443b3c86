// Package playbacktest provides a virtual-time scheduler for driving
// playback sessions deterministically in tests.
package playbacktest

import (
	"sort"
	"sync"
	"time"

	"github.com/hanyong5/2025book/internal/playback"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// ManualScheduler fires timers only when Advance moves its clock. Callbacks
// run on the caller's goroutine without the scheduler lock held, so they may
// schedule or stop other timers.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    uint64
	timers []*manualTimer
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

type manualTimer struct {
	s      *ManualScheduler
	at     time.Duration
	period time.Duration
	seq    uint64
	f      func()
}

func (t *manualTimer) Stop() bool {
	return t.s.remove(t)
}

func (m *ManualScheduler) AfterFunc(d time.Duration, f func()) playback.Timer {
	return m.add(d, 0, f)
}

func (m *ManualScheduler) Every(d time.Duration, f func()) playback.Timer {
	return m.add(d, d, f)
}

func (m *ManualScheduler) add(d, period time.Duration, f func()) *manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &manualTimer{s: m, at: m.now + d, period: period, seq: m.seq, f: f}
	m.timers = append(m.timers, t)
	return t
}

func (m *ManualScheduler) remove(t *manualTimer) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, candidate := range m.timers {
		if candidate == t {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			return true
		}
	}
	return false
}

// Advance moves virtual time forward by d, firing every timer that comes due
// in chronological order. Periodic timers fire once per elapsed period.
func (m *ManualScheduler) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.nextDue(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = next.at
		if next.period > 0 {
			next.at += next.period
		} else {
			m.removeLocked(next)
		}
		f := next.f
		m.mu.Unlock()

		f()
	}
}

func (m *ManualScheduler) nextDue(target time.Duration) *manualTimer {
	due := make([]*manualTimer, 0, len(m.timers))
	for _, t := range m.timers {
		if t.at <= target {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].at != due[j].at {
			return due[i].at < due[j].at
		}
		return due[i].seq < due[j].seq
	})
	return due[0]
}

func (m *ManualScheduler) removeLocked(t *manualTimer) {
	for i, candidate := range m.timers {
		if candidate == t {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			return
		}
	}
}

// Elapsed returns the virtual time since the scheduler was created.
func (m *ManualScheduler) Elapsed() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Now returns the virtual wall-clock time, for Options.Now.
func (m *ManualScheduler) Now() time.Time {
	return epoch.Add(m.Elapsed())
}

// Pending returns the number of live timers.
func (m *ManualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

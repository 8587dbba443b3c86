package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule checks a standard five-field cron expression.
func ValidateCronSchedule(schedule string) error {
	_, err := scheduleParser.Parse(schedule)
	return err
}

// IdleReaper closes sessions idle for longer than maxIdle.
type IdleReaper interface {
	ReapIdle(maxIdle time.Duration) int
}

// SessionReaper periodically closes abandoned reader sessions.
type SessionReaper struct {
	reaper   IdleReaper
	schedule string
	maxIdle  time.Duration

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.RWMutex
	isRunning bool

	statsMu    sync.Mutex
	lastRun    time.Time
	lastReaped int
}

func NewSessionReaper(reaper IdleReaper, schedule string, maxIdle time.Duration) *SessionReaper {
	return &SessionReaper{
		reaper:   reaper,
		schedule: schedule,
		maxIdle:  maxIdle,
		cron:     cron.New(cron.WithParser(scheduleParser)),
	}
}

// Start schedules the reaper. It stops when ctx is cancelled.
func (s *SessionReaper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if s.maxIdle <= 0 {
		log.Printf("[SCHEDULER] Session reaper: disabled")
		return nil
	}
	if err := ValidateCronSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.RunNow()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule session reaper: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true
	log.Printf("[SCHEDULER] Session reaper: started with schedule '%s', idle timeout %v", s.schedule, s.maxIdle)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop waits for a running reap to finish and stops the schedule.
func (s *SessionReaper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	<-s.cron.Stop().Done()
	s.isRunning = false
	log.Printf("[SCHEDULER] Session reaper: stopped")
}

// RunNow reaps idle sessions immediately and returns how many were closed.
func (s *SessionReaper) RunNow() int {
	reaped := s.reaper.ReapIdle(s.maxIdle)

	s.statsMu.Lock()
	s.lastRun = time.Now()
	s.lastReaped = reaped
	s.statsMu.Unlock()

	if reaped > 0 {
		log.Printf("[SCHEDULER] Session reaper: closed %d idle sessions", reaped)
	}
	return reaped
}

func (s *SessionReaper) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTime returns when the reaper runs next, or nil when stopped.
func (s *SessionReaper) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// LastRun returns the time and result of the latest reap.
func (s *SessionReaper) LastRun() (time.Time, int) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.lastRun, s.lastReaped
}

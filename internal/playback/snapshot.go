package playback

import (
	"github.com/hanyong5/2025book/internal/captions"
)

// ClipState describes the active narration clip. Playing reports that the
// engine started the clip and has not stopped it yet; it stays true after the
// sound itself ends, until the active captions change or the page moves on.
type ClipState struct {
	Ref             string  `json:"ref"`
	URL             string  `json:"url"`
	Playing         bool    `json:"playing"`
	PositionSeconds float64 `json:"position_seconds"`
}

// Snapshot is the read-only view of a session published to presentation
// surfaces after every change.
type Snapshot struct {
	SessionID      string       `json:"session_id"`
	BookID         uint         `json:"book_id"`
	BookTitle      string       `json:"book_title"`
	State          State        `json:"state"`
	PageIndex      int          `json:"page_index"`
	PageID         uint         `json:"page_id"`
	PageNo         int          `json:"page_no"`
	PageCount      int          `json:"page_count"`
	Captions       captions.Set `json:"captions"`
	Progress       float64      `json:"progress"`
	ElapsedSeconds float64      `json:"elapsed_seconds"`
	TotalSeconds   *float64     `json:"total_seconds"` // nil for untimed pages
	AudioLoading   bool         `json:"audio_loading"`
	AudioProgress  float64      `json:"audio_progress"`
	ActiveClip     *ClipState   `json:"active_clip"`
	CanPrev        bool         `json:"can_prev"`
	CanNext        bool         `json:"can_next"`
	Closed         bool         `json:"closed"`
	CloseReason    string       `json:"close_reason,omitempty"`
}

func (s *Session) snapshotLocked() Snapshot {
	page := s.pages.Current()

	snap := Snapshot{
		SessionID:     s.opts.ID,
		BookID:        s.book.ID,
		BookTitle:     s.book.Title,
		State:         s.state,
		PageIndex:     s.pages.Index(),
		PageID:        page.ID,
		PageNo:        page.PageNo,
		PageCount:     s.pages.Len(),
		Captions:      append(captions.Set{}, s.displayed...),
		Progress:      s.progress,
		AudioLoading:  s.audioLoading,
		AudioProgress: s.audioProgress,
		CanPrev:       s.pages.HasPrev(),
		CanNext:       s.pages.HasNext(),
		Closed:        s.closed,
		CloseReason:   s.reason,
	}

	elapsed := s.clock.Seconds()
	if page.Timed {
		total := page.Duration
		snap.TotalSeconds = &total
		if elapsed > total {
			elapsed = total
		}
	}
	snap.ElapsedSeconds = elapsed

	if s.active != nil {
		snap.ActiveClip = &ClipState{
			Ref:             s.active.Ref(),
			URL:             s.active.URL(),
			Playing:         !s.active.Paused(),
			PositionSeconds: s.active.Position().Seconds(),
		}
	}
	return snap
}

package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hanyong5/2025book/internal/database"
	"github.com/hanyong5/2025book/internal/playback"
	"github.com/hanyong5/2025book/internal/reader"
)

// SessionsController exposes reader sessions: opening a book, playback
// commands, snapshots and a Server-Sent Events stream of snapshots.
type SessionsController struct {
	sessions SessionManager
}

func NewSessionsController(sessions SessionManager) *SessionsController {
	return &SessionsController{sessions: sessions}
}

// respondSessionError maps session and playback errors to API errors.
func respondSessionError(c *gin.Context, err error) {
	var contentErr *reader.ContentError
	switch {
	case errors.Is(err, reader.ErrSessionNotFound):
		respondError(c, http.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, playback.ErrClosed):
		respondError(c, http.StatusGone, "session_closed", err.Error())
	case errors.Is(err, playback.ErrNotReady):
		respondError(c, http.StatusConflict, "audio_loading", err.Error())
	case errors.Is(err, playback.ErrNotPlaying):
		respondError(c, http.StatusConflict, "not_playing", err.Error())
	case errors.Is(err, playback.ErrPageOutOfRange):
		respondError(c, http.StatusBadRequest, "page_out_of_range", err.Error())
	case errors.Is(err, database.ErrBookNotFound):
		respondError(c, http.StatusNotFound, "book_not_found", err.Error())
	case errors.As(err, &contentErr):
		respondError(c, http.StatusBadGateway, "content_unavailable", err.Error())
	default:
		respondInternalError(c, err, "session")
	}
}

// OpenSession handles POST /api/books/:id/sessions
func (sc *SessionsController) OpenSession(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	session, err := sc.sessions.Open(c.Request.Context(), bookID)
	if err != nil {
		respondSessionError(c, err)
		return
	}
	respondCreated(c, session.Snapshot())
}

// ListSessions handles GET /api/sessions
func (sc *SessionsController) ListSessions(c *gin.Context) {
	snapshots := sc.sessions.List()
	c.JSON(http.StatusOK, gin.H{"sessions": snapshots, "count": len(snapshots)})
}

// GetSession handles GET /api/sessions/:sid
func (sc *SessionsController) GetSession(c *gin.Context) {
	session, err := sc.sessions.Get(c.Param("sid"))
	if err != nil {
		respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

// command runs a playback command and responds with the resulting snapshot.
func (sc *SessionsController) command(c *gin.Context, run func(*playback.Session) error) {
	session, err := sc.sessions.Get(c.Param("sid"))
	if err != nil {
		respondSessionError(c, err)
		return
	}
	if err := run(session); err != nil {
		respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

// Start handles POST /api/sessions/:sid/start
func (sc *SessionsController) Start(c *gin.Context) {
	sc.command(c, (*playback.Session).Start)
}

// TogglePause handles POST /api/sessions/:sid/pause
func (sc *SessionsController) TogglePause(c *gin.Context) {
	sc.command(c, (*playback.Session).TogglePause)
}

// Finish handles POST /api/sessions/:sid/finish
func (sc *SessionsController) Finish(c *gin.Context) {
	sc.command(c, (*playback.Session).Finish)
}

// NextPage handles POST /api/sessions/:sid/next
func (sc *SessionsController) NextPage(c *gin.Context) {
	sc.command(c, (*playback.Session).NextPage)
}

// PrevPage handles POST /api/sessions/:sid/prev
func (sc *SessionsController) PrevPage(c *gin.Context) {
	sc.command(c, (*playback.Session).PrevPage)
}

// GoToPage handles POST /api/sessions/:sid/pages/:index
func (sc *SessionsController) GoToPage(c *gin.Context) {
	index, ok := parseIndexParam(c, "index")
	if !ok {
		return
	}
	sc.command(c, func(s *playback.Session) error {
		return s.GoToPage(index)
	})
}

// CloseSession handles DELETE /api/sessions/:sid
func (sc *SessionsController) CloseSession(c *gin.Context) {
	if err := sc.sessions.Close(c.Param("sid")); err != nil {
		respondSessionError(c, err)
		return
	}
	respondSuccess(c, "Session closed")
}

// Events handles GET /api/sessions/:sid/events
// Streams a "snapshot" event after every change until the session closes or
// the client goes away.
func (sc *SessionsController) Events(c *gin.Context) {
	session, err := sc.sessions.Get(c.Param("sid"))
	if err != nil {
		respondSessionError(c, err)
		return
	}

	events, unsubscribe := session.Subscribe()
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		select {
		case snap, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("snapshot", snap)
			return !snap.Closed
		case <-c.Request.Context().Done():
			return false
		}
	})
}

package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status   string            `json:"status"`
	Time     string            `json:"time"`
	Version  string            `json:"version,omitempty"`
	Sessions int               `json:"sessions"`
	Checks   map[string]string `json:"checks"`
}

// Pinger reports database connectivity.
type Pinger interface {
	Ping() error
}

// SessionCounter reports the number of open reader sessions.
type SessionCounter interface {
	Len() int
}

type HealthController struct {
	db       Pinger
	sessions SessionCounter
	version  string
}

func NewHealthController(db Pinger, sessions SessionCounter, version string) *HealthController {
	return &HealthController{
		db:       db,
		sessions: sessions,
		version:  version,
	}
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "not configured"
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}
	if h.sessions != nil {
		health.Sessions = h.sessions.Len()
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}

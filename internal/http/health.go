package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/erratas/internal/database"
	"github.com/mrlokans/erratas/internal/sessions"
)

type HealthResponse struct {
	Status      string            `json:"status"`
	Time        string            `json:"time"`
	Version     string            `json:"version,omitempty"`
	Libraries   int               `json:"libraries"`
	Checks      map[string]string `json:"checks"`
	NextCleanup string            `json:"next_cleanup,omitempty"`
}

// CleanupStatus is the part of the cleanup scheduler health reports on.
type CleanupStatus interface {
	IsRunning() bool
	NextRunTime() *time.Time
}

type HealthController struct {
	db        *database.Database
	libraries *sessions.Store
	cleanup   CleanupStatus
	version   string
}

func NewHealthController(db *database.Database, libraries *sessions.Store, cleanup CleanupStatus, version string) *HealthController {
	return &HealthController{
		db:        db,
		libraries: libraries,
		cleanup:   cleanup,
		version:   version,
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

	// A stopped scheduler is reported but does not make the service unhealthy.
	var nextCleanup string
	if h.cleanup != nil {
		if h.cleanup.IsRunning() {
			checks["cleanup"] = "ok"
			if next := h.cleanup.NextRunTime(); next != nil {
				nextCleanup = next.Format(time.RFC3339)
			}
		} else {
			checks["cleanup"] = "stopped"
		}
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}
	health.NextCleanup = nextCleanup
	if h.libraries != nil {
		health.Libraries = h.libraries.Len()
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}

func (h *HealthController) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

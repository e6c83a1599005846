package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/erratas/internal/audit"
	"github.com/mrlokans/erratas/internal/entities"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 200
)

type ActivityResponse struct {
	Events []entities.AuditEvent `json:"events"`
	Total  int64                 `json:"total"`
}

// ActivityController lists the audit trail of the caller's session.
type ActivityController struct {
	libs         sessionLibraries
	auditService *audit.Service
}

func NewActivityController(cfg RouterConfig) *ActivityController {
	return &ActivityController{
		libs:         sessionLibraries{manager: cfg.SessionManager, store: cfg.Libraries},
		auditService: cfg.AuditService,
	}
}

// List returns the most recent events first.
// GET /api/activity?limit=50&offset=0
func (ac *ActivityController) List(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultActivityLimit)
	if err != nil || limit <= 0 {
		respondBadRequest(c, "invalid limit")
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		respondBadRequest(c, "invalid offset")
		return
	}
	limit = min(limit, maxActivityLimit)

	// A session that never uploaded has no key and therefore no events.
	key := ac.libs.key(c)
	if key == "" || ac.auditService == nil {
		c.JSON(http.StatusOK, ActivityResponse{Events: []entities.AuditEvent{}})
		return
	}

	events, total, err := ac.auditService.GetEvents(key, limit, offset)
	if err != nil {
		respondInternalError(c, err, "list activity")
		return
	}
	if events == nil {
		events = []entities.AuditEvent{}
	}
	c.JSON(http.StatusOK, ActivityResponse{Events: events, Total: total})
}

func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

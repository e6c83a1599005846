package http

import (
	"log/slog"

	"github.com/mrlokans/erratas/internal/audit"
	"github.com/mrlokans/erratas/internal/database"
	"github.com/mrlokans/erratas/internal/library"
	"github.com/mrlokans/erratas/internal/sessions"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Registry     *library.Registry
	Database     *database.Database
	AuditService *audit.Service
	Logger       *slog.Logger

	// Sessions: the cookie session carries a key into Libraries
	SessionManager *sessions.Manager
	Libraries      *sessions.Store

	// CSRF protection is enabled when CSRFSecret is set
	CSRFSecret    []byte
	SecureCookies bool

	// Uploads
	MaxUploadBytes int64
	WorkspaceDir   string
	UploadLimiter  *UploadLimiter // nil disables upload rate limiting

	// Cleanup is reported by the health endpoint when set
	Cleanup CleanupStatus

	// Application info
	Version string
}

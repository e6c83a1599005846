package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/erratas/internal/logging"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(SecurityHeadersMiddleware())

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	router.Use(cfg.SessionManager.SessionLoadSave())

	if cfg.MaxUploadBytes > 0 {
		// Keep small uploads in memory, spill the rest to disk
		router.MaxMultipartMemory = min(cfg.MaxUploadBytes, 8<<20)
	}

	health := NewHealthController(cfg.Database, cfg.Libraries, cfg.Cleanup, cfg.Version)
	formats := NewFormatsController(cfg.Registry)
	libraries := NewLibraryController(cfg)
	books := NewBooksController(cfg)
	errata := NewErrataController(cfg)
	activity := NewActivityController(cfg)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	api := router.Group("/api")
	{
		api.GET("/csrf", CSRFToken)
		api.GET("/formats", formats.List)

		api.POST("/library", cfg.UploadLimiter.Middleware(), libraries.Upload)
		api.GET("/library", libraries.Show)
		api.DELETE("/library", libraries.Discard)
		api.GET("/library/download", libraries.Download)
		api.GET("/activity", activity.List)

		api.GET("/books", books.List)
		api.GET("/books/:id/errata", books.Errata)
		api.PATCH("/books/:id/errata/:erratumId", books.UpdateErratum)
		api.POST("/books/:id/report", errata.Report)
		api.POST("/books/:id/errata/delete", errata.Delete)
	}

	return router
}

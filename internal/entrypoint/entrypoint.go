package entrypoint

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/erratas/internal/audit"
	"github.com/mrlokans/erratas/internal/config"
	"github.com/mrlokans/erratas/internal/database"
	auditRepo "github.com/mrlokans/erratas/internal/database/audit"
	http_controllers "github.com/mrlokans/erratas/internal/http"
	"github.com/mrlokans/erratas/internal/kobo"
	"github.com/mrlokans/erratas/internal/library"
	"github.com/mrlokans/erratas/internal/logging"
	"github.com/mrlokans/erratas/internal/scheduler"
	"github.com/mrlokans/erratas/internal/sessions"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT or SIGTERM, then shuts it down
// within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, logger *slog.Logger, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
		close(listenErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-listenErr:
		if ok {
			if onShutdown != nil {
				onShutdown(context.Background())
			}
			return fmt.Errorf("listen: %w", err)
		}
	case sig := <-quit:
		logger.Info("shutting down server", "signal", sig.String(), "timeout", timeout)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := srv.Shutdown(ctx)

	// Run after the server stopped accepting requests so no handler sees a
	// closed library.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("server exiting")
	return nil
}

// Run wires every component and serves until interrupted.
func Run(cfg *config.Config, logger *slog.Logger, version string) error {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger.Info("starting erratas", "version", version)

	db, err := database.NewDatabase(cfg.Database.Path, logger)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("error closing database", "error", err)
		}
	}()

	auditService := audit.NewService(auditRepo.NewRepository(db.DB), logger)

	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("get sql database: %w", err)
	}
	sessionManager, err := sessions.NewManager(sqlDB, cfg.Session)
	if err != nil {
		return fmt.Errorf("initialize session manager: %w", err)
	}
	defer sessionManager.Close()

	libraries := sessions.NewStore(logger)

	registry, err := library.NewRegistry(kobo.Descriptor())
	if err != nil {
		return fmt.Errorf("register formats: %w", err)
	}

	csrfSecret, err := csrfSecret(cfg.Session.CSRFSecret)
	if err != nil {
		return err
	}
	if cfg.Session.CSRFSecret == "" {
		logger.Info("generated CSRF secret (set CSRF_SECRET to persist)")
	}

	// Sweep leftovers of a previous run before serving
	cleanup := scheduler.NewCleanupScheduler(libraries, auditService, scheduler.CleanupOptions{
		Schedule:        cfg.Cleanup.Schedule,
		SessionIdle:     sessionManager.IdleTimeout,
		WorkspaceDir:    cfg.Upload.WorkspaceDir,
		WorkspaceMaxAge: cfg.Cleanup.WorkspaceMaxAge,
		AuditRetention:  time.Duration(cfg.Audit.RetentionDays) * 24 * time.Hour,
	}, logger)
	cleanup.RunNow()

	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	if err := cleanup.Start(schedulerCtx); err != nil {
		logger.Warn("cleanup scheduler not started", "error", err)
	}

	uploadLimiter := http_controllers.NewUploadLimiter(cfg.Upload.RateLimit, cfg.Upload.RateWindow)
	defer uploadLimiter.Stop()

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Registry:       registry,
		Database:       db,
		AuditService:   auditService,
		Logger:         logger,
		SessionManager: sessionManager,
		Libraries:      libraries,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Session.SecureCookies,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		WorkspaceDir:   cfg.Upload.WorkspaceDir,
		UploadLimiter:  uploadLimiter,
		Cleanup:        cleanup,
		Version:        version,
	})

	return Serve(router, cfg, logger, func(ctx context.Context) {
		cleanup.Stop()
		if err := libraries.CloseAll(); err != nil {
			logger.Warn("failed to release session libraries", "error", err)
		}
	})
}

// csrfSecret decodes a configured hex secret, falls back to the raw bytes
// and generates a random 32 byte secret when none is configured.
func csrfSecret(configured string) ([]byte, error) {
	if configured != "" {
		if secret, err := hex.DecodeString(configured); err == nil && len(secret) >= 32 {
			return secret, nil
		}
		return []byte(configured), nil
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate CSRF secret: %w", err)
	}
	return secret, nil
}

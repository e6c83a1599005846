package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/erratas/internal/logging"
	"github.com/mrlokans/erratas/internal/workspace"
)

// SessionExpirer drops session libraries that have been idle too long.
type SessionExpirer interface {
	Expire(idle time.Duration) int
}

// AuditPruner removes audit events past their retention.
type AuditPruner interface {
	DeleteOldEvents(retention time.Duration) (int64, error)
}

// CleanupOptions configures a CleanupScheduler. Zero durations disable the
// corresponding step.
type CleanupOptions struct {
	Schedule        string
	SessionIdle     time.Duration
	WorkspaceDir    string
	WorkspaceMaxAge time.Duration
	AuditRetention  time.Duration
}

// CleanupResult summarises one cleanup run.
type CleanupResult struct {
	SessionsExpired   int
	WorkspacesRemoved int
	AuditEventsPruned int64
}

// CleanupScheduler periodically releases resources left behind by
// abandoned sessions: their libraries, orphaned working copies on disk and
// stale audit events.
type CleanupScheduler struct {
	sessions SessionExpirer
	audit    AuditPruner
	opts     CleanupOptions
	logger   *slog.Logger

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	runMu      sync.Mutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewCleanupScheduler creates a new scheduler instance. sessions and audit
// may be nil.
func NewCleanupScheduler(sessions SessionExpirer, audit AuditPruner, opts CleanupOptions, logger *slog.Logger) *CleanupScheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &CleanupScheduler{
		sessions: sessions,
		audit:    audit,
		opts:     opts,
		logger:   logger.With(logging.FieldComponent, "cleanup"),
		cron:     cron.New(cron.WithParser(newParser())),
	}
}

// Start schedules the cleanup job. The scheduler stops when ctx is done.
func (s *CleanupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if s.opts.Schedule == "" {
		s.logger.Info("cleanup scheduler disabled")
		return nil
	}

	if err := ValidateSchedule(s.opts.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.opts.Schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.opts.Schedule, func() {
		s.RunNow()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule cleanup job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	s.logger.Info("cleanup scheduler started",
		"schedule", s.opts.Schedule,
		"description", DescribeSchedule(s.opts.Schedule),
		"next_run", s.cron.Entry(entryID).Next,
	)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running cleanup to finish and stops the scheduler.
func (s *CleanupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.isRunning = false
	s.cancelFunc = nil

	s.logger.Info("cleanup scheduler stopped")
}

// IsRunning returns whether the scheduler is active
func (s *CleanupScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTime returns when the next cleanup will occur, or nil when the
// scheduler is not running.
func (s *CleanupScheduler) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	next := s.cron.Entry(s.entryID).Next
	return &next
}

// RunNow performs a cleanup synchronously. Concurrent runs are serialised.
func (s *CleanupScheduler) RunNow() CleanupResult {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	var result CleanupResult
	startTime := time.Now()

	if s.sessions != nil && s.opts.SessionIdle > 0 {
		result.SessionsExpired = s.sessions.Expire(s.opts.SessionIdle)
	}

	if s.opts.WorkspaceMaxAge > 0 {
		removed, err := workspace.Sweep(s.opts.WorkspaceDir, s.opts.WorkspaceMaxAge)
		if err != nil {
			s.logger.Warn("workspace sweep failed", "error", err)
		}
		result.WorkspacesRemoved = removed
	}

	if s.audit != nil && s.opts.AuditRetention > 0 {
		pruned, err := s.audit.DeleteOldEvents(s.opts.AuditRetention)
		if err != nil {
			s.logger.Warn("audit pruning failed", "error", err)
		}
		result.AuditEventsPruned = pruned
	}

	s.logger.Info("cleanup finished",
		"sessions_expired", result.SessionsExpired,
		"workspaces_removed", result.WorkspacesRemoved,
		"audit_events_pruned", result.AuditEventsPruned,
		"duration", time.Since(startTime).Round(time.Millisecond),
	)
	return result
}

package audit

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mrlokans/erratas/internal/database/audit"
	"github.com/mrlokans/erratas/internal/entities"
	"github.com/mrlokans/erratas/internal/logging"
)

const maxErrorLen = 500

// Service provides high-level audit logging functionality.
// Writes are synchronous; a failed write is logged and never surfaced to
// the caller, so auditing cannot break a request.
type Service struct {
	repo   *audit.Repository
	logger *slog.Logger
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{repo: repo, logger: logger.With(logging.FieldComponent, "audit")}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

func (s *Service) record(event *entities.AuditEvent) {
	if err := s.repo.LogEvent(event); err != nil {
		s.logger.Warn("failed to record audit event",
			"event_type", event.EventType,
			"action", event.Action,
			"error", err,
		)
	}
}

// LogUpload records a highlights file upload.
func (s *Service) LogUpload(sessionID, filename, format string, books, errata int, err error) {
	event := &entities.AuditEvent{
		SessionID:   sessionID,
		EventType:   entities.AuditEventUpload,
		Action:      format + "_upload",
		Description: truncate(fmt.Sprintf("Uploaded %s with %d books and %d errata", filename, books, errata), maxErrorLen),
		Metadata: metadata(map[string]any{
			"filename":     filename,
			"books_count":  books,
			"errata_count": errata,
		}),
		Status: entities.AuditStatusSuccess,
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.Description = truncate("Failed to load "+filename, maxErrorLen)
		event.ErrorMsg = truncate(err.Error(), maxErrorLen)
	}
	s.record(event)
}

// LogReport records a generated errata report.
func (s *Service) LogReport(sessionID, bookID string, count int, skipped []string) {
	s.record(&entities.AuditEvent{
		SessionID:   sessionID,
		EventType:   entities.AuditEventReport,
		Action:      "errata_report",
		Description: fmt.Sprintf("Reported %d errata", count),
		BookID:      bookID,
		Metadata: metadata(map[string]any{
			"errata_count": count,
			"skipped":      skipped,
		}),
		Status: entities.AuditStatusSuccess,
	})
}

// LogDelete records a deletion of errata from a book.
func (s *Service) LogDelete(sessionID, bookID string, count int, err error) {
	event := &entities.AuditEvent{
		SessionID:   sessionID,
		EventType:   entities.AuditEventDelete,
		Action:      "errata_delete",
		Description: fmt.Sprintf("Deleted %d errata", count),
		BookID:      bookID,
		Status:      entities.AuditStatusSuccess,
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), maxErrorLen)
	}
	s.record(event)
}

// LogDownload records an export of the modified library.
func (s *Service) LogDownload(sessionID, filename string) {
	s.record(&entities.AuditEvent{
		SessionID:   sessionID,
		EventType:   entities.AuditEventDownload,
		Action:      "library_download",
		Description: truncate("Downloaded "+filename, maxErrorLen),
		Status:      entities.AuditStatusSuccess,
	})
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(sessionID string, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(sessionID, limit, offset)
}

// GetEventsByType retrieves audit events filtered by type.
func (s *Service) GetEventsByType(eventType entities.AuditEventType, limit int) ([]entities.AuditEvent, error) {
	return s.repo.GetEventsByType(eventType, limit)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

func metadata(values map[string]any) string {
	data, err := json.Marshal(values)
	if err != nil {
		return ""
	}
	return string(data)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

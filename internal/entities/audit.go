package entities

import "time"

type AuditEventType string

const (
	AuditEventUpload   AuditEventType = "upload"
	AuditEventReport   AuditEventType = "report"
	AuditEventDelete   AuditEventType = "delete"
	AuditEventDownload AuditEventType = "download"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

type AuditEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	SessionID   string         `gorm:"index;size:64" json:"session_id"`
	EventType   AuditEventType `gorm:"index;size:50" json:"event_type"`
	Action      string         `gorm:"size:100" json:"action"`      // e.g., "sqlite_upload", "errata_delete"
	Description string         `gorm:"size:500" json:"description"` // Human-readable summary
	BookID      string         `gorm:"index;size:256" json:"book_id,omitempty"`
	Metadata    string         `gorm:"type:text" json:"metadata,omitempty"` // JSON for extra data
	Status      AuditStatus    `gorm:"size:20" json:"status"`
	ErrorMsg    string         `gorm:"size:500" json:"error_msg,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}

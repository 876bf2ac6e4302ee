package models

import (
	"time"

	"gorm.io/gorm"
)

// EventDocument is a raw event document waiting in the import inbox
type EventDocument struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	DocumentID string         `gorm:"uniqueIndex" json:"document_id"`
	EventID    string         `gorm:"index" json:"event_id"`
	EventType  string         `json:"event_type"`
	Source     string         `json:"source"`
	Data       []byte         `json:"data"`
	ReceivedAt time.Time      `gorm:"index" json:"received_at"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at"`
	Error      *string        `json:"error"`
	Attempts   int            `json:"attempts"`
	Processed  bool           `gorm:"index" json:"processed"`
}

// TableName overrides the table name used by EventDocument
func (EventDocument) TableName() string {
	return "event_documents"
}

// All returns every model managed by migrations
func All() []interface{} {
	return []interface{}{
		&EventDocument{},
		&AnalyticsEvent{},
		&AnalyticsEventAction{},
	}
}

package models

import (
	"time"

	"gorm.io/datatypes"

	"example.com/backstage/analytics/domain"
)

// AnalyticsEvent is the projection row of one event
type AnalyticsEvent struct {
	ID            string    `gorm:"primaryKey" json:"id"`
	EventType     string    `gorm:"uniqueIndex:idx_events_tx_type,priority:2;not null" json:"event_type"`
	TransactionID string    `gorm:"uniqueIndex:idx_events_tx_type,priority:1;not null" json:"transaction_id"`
	TrackingID    string    `gorm:"index" json:"tracking_id"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `gorm:"autoCreateTime:false" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
}

// TableName overrides the table name used by AnalyticsEvent
func (AnalyticsEvent) TableName() string {
	return "analytics_events"
}

// AnalyticsEventAction is the projection row of one action, carrying the
// cumulative declaration as of that action
type AnalyticsEventAction struct {
	ID                 string          `gorm:"primaryKey" json:"id"`
	EventID            string          `gorm:"index;not null" json:"event_id"`
	TransactionID      string          `gorm:"uniqueIndex:idx_actions_tx_type,priority:1;not null" json:"transaction_id"`
	ActionType         string          `gorm:"uniqueIndex:idx_actions_tx_type,priority:2;not null" json:"action_type"`
	EventType          string          `json:"event_type"`
	Status             string          `json:"status"`
	CreatedAt          time.Time       `gorm:"autoCreateTime:false" json:"created_at"`
	CreatedBy          string          `json:"created_by"`
	CreatedByRole      string          `json:"created_by_role"`
	CreatedByUserType  string          `json:"created_by_user_type"`
	CreatedAtLocation  *string         `json:"created_at_location"`
	Declaration        domain.FieldMap `json:"declaration"`
	Annotation         domain.FieldMap `json:"annotation"`
	OriginalActionID   *string         `json:"original_action_id"`
	Content            datatypes.JSON  `json:"content"`
	RegistrationNumber *string         `json:"registration_number"`
	AssignedTo         *string         `json:"assigned_to"`
	RequestID          *string         `json:"request_id"`
	Reason             *string         `json:"reason"`
}

// TableName overrides the table name used by AnalyticsEventAction
func (AnalyticsEventAction) TableName() string {
	return "analytics_event_actions"
}

// OmittedColumns lists the optional columns the source never set. They are
// left out of the INSERT so the column keeps its default.
func (a AnalyticsEventAction) OmittedColumns() []string {
	var omit []string
	if a.CreatedAtLocation == nil {
		omit = append(omit, "CreatedAtLocation")
	}
	if a.OriginalActionID == nil {
		omit = append(omit, "OriginalActionID")
	}
	if len(a.Content) == 0 {
		omit = append(omit, "Content")
	}
	if a.RegistrationNumber == nil {
		omit = append(omit, "RegistrationNumber")
	}
	if a.AssignedTo == nil {
		omit = append(omit, "AssignedTo")
	}
	if a.RequestID == nil {
		omit = append(omit, "RequestID")
	}
	if a.Reason == nil {
		omit = append(omit, "Reason")
	}
	return omit
}

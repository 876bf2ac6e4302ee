package domain

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of civil-registration event
type EventType string

// Built-in event types. Custom kinds are registered through configuration.
const (
	EventTypeBirth EventType = "BIRTH"
	EventTypeDeath EventType = "DEATH"
)

// ActionType identifies a life-cycle transition recorded against an event
type ActionType string

// ActionType constants
const (
	ActionCreate             ActionType = "CREATE"
	ActionNotify             ActionType = "NOTIFY"
	ActionDeclare            ActionType = "DECLARE"
	ActionValidate           ActionType = "VALIDATE"
	ActionRegister           ActionType = "REGISTER"
	ActionReject             ActionType = "REJECT"
	ActionArchive            ActionType = "ARCHIVE"
	ActionPrintCertificate   ActionType = "PRINT_CERTIFICATE"
	ActionRequestCorrection  ActionType = "REQUEST_CORRECTION"
	ActionApproveCorrection  ActionType = "APPROVE_CORRECTION"
	ActionRejectCorrection   ActionType = "REJECT_CORRECTION"
	ActionCorrect            ActionType = "CORRECT"
	ActionAssign             ActionType = "ASSIGN"
	ActionUnassign           ActionType = "UNASSIGN"
	ActionRead               ActionType = "READ"
	ActionMarkedAsDuplicate  ActionType = "MARKED_AS_DUPLICATE"
	ActionMarkAsNotDuplicate ActionType = "MARK_AS_NOT_DUPLICATE"
)

// ActionStatus is the acceptance state of an action
type ActionStatus string

// ActionStatus constants
const (
	StatusRequested ActionStatus = "Requested"
	StatusAccepted  ActionStatus = "Accepted"
	StatusRejected  ActionStatus = "Rejected"
)

// EventStatus is the lifecycle status derived by folding accepted actions
type EventStatus string

// EventStatus constants
const (
	EventStatusUnknown    EventStatus = ""
	EventStatusCreated    EventStatus = "CREATED"
	EventStatusNotified   EventStatus = "NOTIFIED"
	EventStatusDeclared   EventStatus = "DECLARED"
	EventStatusValidated  EventStatus = "VALIDATED"
	EventStatusRegistered EventStatus = "REGISTERED"
	EventStatusArchived   EventStatus = "ARCHIVED"
	EventStatusRejected   EventStatus = "REJECTED"
)

// Action is one atomic transition applied to an event
type Action struct {
	ID                 string          `json:"id" validate:"required"`
	Type               ActionType      `json:"type" validate:"required"`
	Status             ActionStatus    `json:"status,omitempty"`
	TransactionID      string          `json:"transactionId,omitempty"`
	CreatedAt          time.Time       `json:"createdAt" validate:"required"`
	CreatedBy          string          `json:"createdBy,omitempty"`
	CreatedByRole      string          `json:"createdByRole,omitempty"`
	CreatedByUserType  string          `json:"createdByUserType,omitempty"`
	CreatedAtLocation  *string         `json:"createdAtLocation,omitempty"`
	Declaration        FieldMap        `json:"declaration"`
	Annotation         FieldMap        `json:"annotation"`
	OriginalActionID   *string         `json:"originalActionId,omitempty"`
	Content            json.RawMessage `json:"content,omitempty"`
	RegistrationNumber *string         `json:"registrationNumber,omitempty"`
	AssignedTo         *string         `json:"assignedTo,omitempty"`
	RequestID          *string         `json:"requestId,omitempty"`
	Reason             *string         `json:"reason,omitempty"`
}

// EffectiveStatus returns the action status, treating an unset status as accepted.
func (a Action) EffectiveStatus() ActionStatus {
	if a.Status == "" {
		return StatusAccepted
	}
	return a.Status
}

// ContributesDeclaration reports whether the action's declaration is folded
// into the event's current state.
func (a Action) ContributesDeclaration() bool {
	switch a.EffectiveStatus() {
	case StatusRequested, StatusRejected:
		return false
	}
	return true
}

// IdempotencyKey returns the key used to detect a re-submitted action.
// Source systems send their request transaction id; without one every
// action is its own key.
func (a Action) IdempotencyKey() string {
	if a.TransactionID != "" {
		return a.TransactionID
	}
	return a.ID
}

// EventDocument is an event together with its action log, as supplied by
// the event source
type EventDocument struct {
	ID            string    `json:"id" validate:"required"`
	Type          EventType `json:"type" validate:"required"`
	TrackingID    string    `json:"trackingId,omitempty"`
	TransactionID string    `json:"transactionId,omitempty"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt,omitempty"`
	Actions       []Action  `json:"actions" validate:"dive"`
}

// Timestamps returns the creation and last update time of the event. Explicit
// document timestamps win; otherwise they come from the ordered action log.
func (d EventDocument) Timestamps(ordered []Action) (time.Time, time.Time) {
	createdAt, updatedAt := d.CreatedAt, d.UpdatedAt
	if len(ordered) == 0 {
		return createdAt, updatedAt
	}
	if createdAt.IsZero() {
		createdAt = ordered[0].CreatedAt
	}
	if updatedAt.IsZero() {
		updatedAt = ordered[0].CreatedAt
		for _, action := range ordered[1:] {
			if action.CreatedAt.After(updatedAt) {
				updatedAt = action.CreatedAt
			}
		}
	}
	return createdAt, updatedAt
}

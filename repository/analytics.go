package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/backstage/analytics/models"
)

// PersistResult reports what a Persist call wrote
type PersistResult struct {
	// EventID is the id of the event row written
	EventID string
	// ActionIDs holds one row id per input action, in input order.
	ActionIDs []string
	// Deduplicated counts actions that hit an existing (transaction_id,
	// action_type) row and were not inserted.
	Deduplicated int
}

// AnalyticsRepository writes event projections
type AnalyticsRepository interface {
	Persist(ctx context.Context, event models.AnalyticsEvent, actions []models.AnalyticsEventAction) (*PersistResult, error)
	GetEvent(ctx context.Context, eventID string) (*models.AnalyticsEvent, error)
	ListActions(ctx context.Context, eventID string) ([]models.AnalyticsEventAction, error)
}

// analyticsRepository implements AnalyticsRepository
type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

// Persist replaces the projection of one event in a single transaction.
// Any failure rolls back, leaving the previous projection as it was.
func (r *analyticsRepository) Persist(ctx context.Context, event models.AnalyticsEvent, actions []models.AnalyticsEventAction) (*PersistResult, error) {
	if event.ID == "" {
		return nil, ErrEmptyEventID
	}

	result := &PersistResult{ActionIDs: make([]string, 0, len(actions))}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteProjection(tx, event.ID); err != nil {
			return err
		}

		eventID, err := insertEvent(tx, event)
		if err != nil {
			return err
		}
		// actions must never point at an event row that was not written
		if eventID != event.ID {
			return fmt.Errorf("%w: transaction %s of event %s is held by event %s",
				ErrTransactionConflict, event.TransactionID, event.ID, eventID)
		}
		result.EventID = eventID

		for _, action := range actions {
			actionID, inserted, err := insertAction(tx, action)
			if err != nil {
				return err
			}
			if !inserted {
				result.Deduplicated++
			}
			result.ActionIDs = append(result.ActionIDs, actionID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetEvent returns the event row of an event id
func (r *analyticsRepository) GetEvent(ctx context.Context, eventID string) (*models.AnalyticsEvent, error) {
	var event models.AnalyticsEvent
	err := r.db.WithContext(ctx).Where("id = ?", eventID).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

// ListActions returns the action rows of an event ordered by creation time
func (r *analyticsRepository) ListActions(ctx context.Context, eventID string) ([]models.AnalyticsEventAction, error) {
	var actions []models.AnalyticsEventAction
	if err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&actions).Error; err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}
	return actions, nil
}

// deleteProjection removes the actions and event row of an event. Missing
// rows are not an error.
func deleteProjection(tx *gorm.DB, eventID string) error {
	if err := tx.Where("event_id = ?", eventID).Delete(&models.AnalyticsEventAction{}).Error; err != nil {
		return fmt.Errorf("%w: actions of event %s: %w", ErrDeleteFailed, eventID, err)
	}
	if err := tx.Where("id = ?", eventID).Delete(&models.AnalyticsEvent{}).Error; err != nil {
		return fmt.Errorf("%w: event %s: %w", ErrDeleteFailed, eventID, err)
	}
	return nil
}

// insertEvent inserts the event row unless (transaction_id, event_type) is
// taken, and returns the id of the row that holds it
func insertEvent(tx *gorm.DB, event models.AnalyticsEvent) (string, error) {
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "transaction_id"}, {Name: "event_type"}},
		DoNothing: true,
	}).Create(&event)
	if res.Error != nil {
		return "", fmt.Errorf("%w: event %s: %w", ErrCreateFailed, event.ID, res.Error)
	}
	if res.RowsAffected > 0 {
		return event.ID, nil
	}

	var existing models.AnalyticsEvent
	if err := tx.Select("id").
		Where("transaction_id = ? AND event_type = ?", event.TransactionID, event.EventType).
		First(&existing).Error; err != nil {
		return "", fmt.Errorf("failed to read back event for transaction %s: %w", event.TransactionID, err)
	}
	return existing.ID, nil
}

// insertAction inserts an action row unless (transaction_id, action_type) is
// taken. Unset optional columns are omitted from the statement.
func insertAction(tx *gorm.DB, action models.AnalyticsEventAction) (string, bool, error) {
	stmt := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "transaction_id"}, {Name: "action_type"}},
		DoNothing: true,
	})
	if omit := action.OmittedColumns(); len(omit) > 0 {
		stmt = stmt.Omit(omit...)
	}
	res := stmt.Create(&action)
	if res.Error != nil {
		return "", false, fmt.Errorf("%w: action %s: %w", ErrCreateFailed, action.ID, res.Error)
	}
	if res.RowsAffected > 0 {
		return action.ID, true, nil
	}

	var existing models.AnalyticsEventAction
	if err := tx.Select("id").
		Where("transaction_id = ? AND action_type = ?", action.TransactionID, action.ActionType).
		First(&existing).Error; err != nil {
		return "", false, fmt.Errorf("failed to read back action for transaction %s: %w", action.TransactionID, err)
	}
	return existing.ID, false, nil
}

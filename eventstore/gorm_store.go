package eventstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"example.com/backstage/analytics/domain"
	"example.com/backstage/analytics/models"
)

// GormEventStore implements EventStore using GORM
type GormEventStore struct {
	db          *gorm.DB
	maxAttempts int
}

// NewGormEventStore creates a new GORM event store. Documents that failed
// maxAttempts times are no longer returned as pending; zero means no limit.
func NewGormEventStore(db *gorm.DB, maxAttempts int) *GormEventStore {
	return &GormEventStore{db: db, maxAttempts: maxAttempts}
}

// Append stores a received document
func (s *GormEventStore) Append(ctx context.Context, doc domain.EventDocument, source string) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal event document: %w", err)
	}

	record := models.EventDocument{
		DocumentID: uuid.New().String(),
		EventID:    doc.ID,
		EventType:  string(doc.Type),
		Source:     source,
		Data:       data,
		ReceivedAt: time.Now().UTC(),
		Processed:  false,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to save event document: %w", err)
	}

	log.Debug().
		Str("document_id", record.DocumentID).
		Str("event_id", doc.ID).
		Str("event_type", string(doc.Type)).
		Str("source", source).
		Msg("Event document appended")
	return record.DocumentID, nil
}

// GetPending returns unimported documents in arrival order
func (s *GormEventStore) GetPending(ctx context.Context, limit int) ([]PendingDocument, error) {
	query := s.db.WithContext(ctx).
		Where("processed = ?", false).
		Order("received_at ASC").
		Order("id ASC").
		Limit(limit)
	if s.maxAttempts > 0 {
		query = query.Where("attempts < ?", s.maxAttempts)
	}

	var records []models.EventDocument
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to get pending documents: %w", err)
	}

	pending := make([]PendingDocument, 0, len(records))
	for _, record := range records {
		var doc domain.EventDocument
		if err := json.Unmarshal(record.Data, &doc); err != nil {
			// keep the batch going, the broken document is parked
			log.Error().Err(err).Str("document_id", record.DocumentID).Msg("Failed to decode stored event document")
			if markErr := s.MarkFailed(ctx, record.DocumentID, err); markErr != nil {
				return nil, markErr
			}
			continue
		}
		pending = append(pending, PendingDocument{
			DocumentID: record.DocumentID,
			Attempts:   record.Attempts,
			Document:   doc,
		})
	}
	return pending, nil
}

// MarkImported marks a document as imported. Older unprocessed documents of
// the same event are marked processed too, so a late retry cannot replace
// the newer projection with stale actions.
func (s *GormEventStore) MarkImported(ctx context.Context, documentID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record models.EventDocument
		if err := tx.Where("document_id = ?", documentID).First(&record).Error; err != nil {
			return fmt.Errorf("failed to load document %s: %w", documentID, err)
		}

		now := time.Now().UTC()
		if err := tx.Model(&models.EventDocument{}).
			Where("id = ?", record.ID).
			Updates(map[string]interface{}{
				"processed":  true,
				"error":      nil,
				"updated_at": now,
			}).Error; err != nil {
			return fmt.Errorf("failed to mark document as imported: %w", err)
		}

		superseded := fmt.Sprintf("superseded by document %s", documentID)
		res := tx.Model(&models.EventDocument{}).
			Where("event_id = ? AND processed = ?", record.EventID, false).
			Where("received_at < ? OR (received_at = ? AND id < ?)", record.ReceivedAt, record.ReceivedAt, record.ID).
			Updates(map[string]interface{}{
				"processed":  true,
				"error":      &superseded,
				"updated_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to supersede older documents: %w", res.Error)
		}
		if res.RowsAffected > 0 {
			log.Info().
				Str("document_id", documentID).
				Str("event_id", record.EventID).
				Int64("superseded", res.RowsAffected).
				Msg("Older event documents superseded")
		}
		return nil
	})
}

// MarkFailed records the failure and counts the attempt
func (s *GormEventStore) MarkFailed(ctx context.Context, documentID string, cause error) error {
	errMsg := cause.Error()
	if err := s.db.WithContext(ctx).
		Model(&models.EventDocument{}).
		Where("document_id = ?", documentID).
		Updates(map[string]interface{}{
			"error":      &errMsg,
			"attempts":   gorm.Expr("attempts + 1"),
			"updated_at": time.Now().UTC(),
		}).Error; err != nil {
		return fmt.Errorf("failed to mark document as failed: %w", err)
	}
	return nil
}

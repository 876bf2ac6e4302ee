package eventstore

import (
	"context"

	"example.com/backstage/analytics/domain"
)

// PendingDocument is an event document waiting to be imported
type PendingDocument struct {
	DocumentID string
	Attempts   int
	Document   domain.EventDocument
}

// EventStore is the import inbox of raw event documents
type EventStore interface {
	// Append stores a received document and returns its inbox id
	Append(ctx context.Context, doc domain.EventDocument, source string) (string, error)

	// GetPending returns up to limit unimported documents, oldest first
	GetPending(ctx context.Context, limit int) ([]PendingDocument, error)

	// MarkImported marks a document as imported
	MarkImported(ctx context.Context, documentID string) error

	// MarkFailed records an import failure against a document
	MarkFailed(ctx context.Context, documentID string, cause error) error
}

package repository

import "errors"

// Common repository errors
var (
	ErrNotFound            = errors.New("record not found")
	ErrCreateFailed        = errors.New("failed to create record")
	ErrDeleteFailed        = errors.New("failed to delete record")
	ErrEmptyEventID        = errors.New("event id is empty")
	// ErrTransactionConflict means the (transaction_id, event_type) pair
	// already belongs to another event
	ErrTransactionConflict = errors.New("transaction id belongs to another event")
)

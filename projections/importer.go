package projections

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/backstage/analytics/cache"
	"example.com/backstage/analytics/domain"
	"example.com/backstage/analytics/eventconfig"
	"example.com/backstage/analytics/metrics"
	"example.com/backstage/analytics/models"
	"example.com/backstage/analytics/repository"
	"example.com/backstage/analytics/tracing"
	"example.com/backstage/analytics/utils"
)

// Persister writes the projection of one event atomically
type Persister interface {
	Persist(ctx context.Context, event models.AnalyticsEvent, actions []models.AnalyticsEventAction) (*repository.PersistResult, error)
}

// Outcome is what happened to one event of a batch
type Outcome string

// Outcome constants
const (
	OutcomeImported Outcome = "imported"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeFailed   Outcome = "failed"
)

// EventResult is the outcome of importing one event
type EventResult struct {
	EventID string  `json:"event_id"`
	Outcome Outcome `json:"outcome"`
	Error   string  `json:"error,omitempty"`
}

// BatchResult summarizes an ImportEvents call
type BatchResult struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Events   []EventResult `json:"events"`
}

// Importer projects event documents and persists them, one transaction per
// event
type Importer struct {
	registry  eventconfig.Lookup
	persister Persister
	locker    cache.Locker
	tracer    tracing.Tracer
	metrics   *metrics.Metrics
	indexer   Indexer
}

// ImporterOption configures an Importer
type ImporterOption func(*Importer)

// WithLocker sets the per-event lock
func WithLocker(locker cache.Locker) ImporterOption {
	return func(i *Importer) { i.locker = locker }
}

// WithTracer sets the tracer
func WithTracer(tracer tracing.Tracer) ImporterOption {
	return func(i *Importer) { i.tracer = tracer }
}

// WithMetrics sets the metrics collector
func WithMetrics(m *metrics.Metrics) ImporterOption {
	return func(i *Importer) { i.metrics = m }
}

// WithIndexer mirrors committed projections to a search index
func WithIndexer(indexer Indexer) ImporterOption {
	return func(i *Importer) { i.indexer = indexer }
}

// NewImporter creates an importer. Event types missing from registry are
// skipped.
func NewImporter(registry eventconfig.Lookup, persister Persister, opts ...ImporterOption) *Importer {
	i := &Importer{
		registry:  registry,
		persister: persister,
		locker:    cache.NewLocalLocker(),
		tracer:    tracing.Disabled(),
		metrics:   metrics.NewMetrics(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// ImportEvents imports each document independently. A failing event is
// logged and does not stop the batch.
func (i *Importer) ImportEvents(ctx context.Context, docs []domain.EventDocument) BatchResult {
	result := BatchResult{Events: make([]EventResult, 0, len(docs))}
	for _, doc := range docs {
		outcome, err := i.importEvent(ctx, doc)
		er := EventResult{EventID: doc.ID, Outcome: outcome}
		switch outcome {
		case OutcomeImported:
			result.Imported++
		case OutcomeSkipped:
			result.Skipped++
		case OutcomeFailed:
			result.Failed++
			er.Error = err.Error()
		}
		result.Events = append(result.Events, er)
	}
	return result
}

// ImportEvent imports one document. Skipping an unconfigured event type is
// not an error.
func (i *Importer) ImportEvent(ctx context.Context, doc domain.EventDocument) error {
	_, err := i.importEvent(ctx, doc)
	return err
}

func (i *Importer) importEvent(ctx context.Context, doc domain.EventDocument) (Outcome, error) {
	start := time.Now()
	outcome, err := i.doImport(ctx, doc)
	i.metrics.RecordTimer(metrics.ImportDuration, time.Since(start))

	switch outcome {
	case OutcomeImported:
		i.metrics.IncrementCounter(metrics.EventsImported)
	case OutcomeSkipped:
		i.metrics.IncrementCounter(metrics.EventsSkipped)
	case OutcomeFailed:
		i.metrics.IncrementCounter(metrics.EventsFailed)
		log.Error().Err(err).
			Str("event_id", doc.ID).
			Str("event_type", string(doc.Type)).
			Msg("Failed to import event")
	}
	return outcome, err
}

func (i *Importer) doImport(ctx context.Context, doc domain.EventDocument) (Outcome, error) {
	if err := utils.ValidateEventDocument(doc); err != nil {
		return OutcomeFailed, fmt.Errorf("%w: event %s: %w", ErrMalformedEvent, doc.ID, err)
	}

	cfg, ok := i.registry.Lookup(doc.Type)
	if !ok {
		log.Info().
			Str("event_id", doc.ID).
			Str("event_type", string(doc.Type)).
			Msg("Event type not configured for analytics, skipping")
		return OutcomeSkipped, nil
	}

	txn := i.tracer.StartTransaction("ImportEvent")
	defer i.tracer.EndTransaction(txn)
	i.tracer.AddAttribute(txn, "event_id", doc.ID)
	i.tracer.AddAttribute(txn, "event_type", string(doc.Type))
	i.tracer.AddAttribute(txn, "actions", len(doc.Actions))

	transactionID := doc.TransactionID
	if transactionID == "" {
		transactionID = uuid.New().String()
	}

	projection, err := NewProjector(cfg).ProjectEvent(doc, transactionID)
	if err != nil {
		i.tracer.RecordError(txn, err)
		return OutcomeFailed, fmt.Errorf("%w: event %s: %w", ErrMalformedEvent, doc.ID, err)
	}

	unlock, err := i.locker.Lock(ctx, doc.ID)
	if err != nil {
		i.tracer.RecordError(txn, err)
		return OutcomeFailed, errors.Wrapf(err, "failed to lock event %s", doc.ID)
	}
	defer unlock()

	segment := i.tracer.StartSegment(txn, "Persist")
	result, err := i.persister.Persist(ctx, projection.Event, projection.Actions)
	segment.End()
	if err != nil {
		i.tracer.RecordError(txn, err)
		return OutcomeFailed, errors.Wrapf(err, "failed to persist event %s", doc.ID)
	}

	i.metrics.IncrementCounterBy(metrics.ActionsWritten, int64(len(result.ActionIDs)-result.Deduplicated))
	i.metrics.IncrementCounterBy(metrics.ActionsDeduped, int64(result.Deduplicated))

	log.Info().
		Str("event_id", doc.ID).
		Str("event_type", string(doc.Type)).
		Str("transaction_id", transactionID).
		Str("status", projection.Event.Status).
		Int("actions", len(projection.Actions)).
		Int("deduplicated", result.Deduplicated).
		Msg("Event imported")

	if i.indexer != nil {
		segment := i.tracer.StartSegment(txn, "Index")
		if err := i.indexer.IndexProjection(ctx, projection); err != nil {
			i.metrics.IncrementCounter(metrics.IndexFailures)
			log.Warn().Err(err).Str("event_id", doc.ID).Msg("Failed to index event projection")
		}
		segment.End()
	}

	return OutcomeImported, nil
}

package projections

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"example.com/backstage/analytics/eventstore"
)

// EventProcessor drains the import inbox through the importer
type EventProcessor struct {
	store     eventstore.EventStore
	importer  *Importer
	batchSize int
	mutex     sync.Mutex
}

// NewEventProcessor creates a new event processor
func NewEventProcessor(store eventstore.EventStore, importer *Importer, batchSize int) *EventProcessor {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &EventProcessor{
		store:     store,
		importer:  importer,
		batchSize: batchSize,
	}
}

// ProcessBatch imports one batch of pending documents and returns how many
// were taken from the inbox. Overlapping calls wait for each other.
func (p *EventProcessor) ProcessBatch(ctx context.Context) (int, error) {
	taken, _, err := p.processBatch(ctx)
	return taken, err
}

func (p *EventProcessor) processBatch(ctx context.Context) (int, int, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	pending, err := p.store.GetPending(ctx, p.batchSize)
	if err != nil {
		return 0, 0, err
	}
	if len(pending) == 0 {
		return 0, 0, nil
	}

	log.Info().Msgf("Processing %d event documents", len(pending))

	imported := 0
	for _, doc := range pending {
		if ctx.Err() != nil {
			return 0, imported, ctx.Err()
		}
		if err := p.importer.ImportEvent(ctx, doc.Document); err != nil {
			if markErr := p.store.MarkFailed(ctx, doc.DocumentID, err); markErr != nil {
				log.Error().Err(markErr).Str("document_id", doc.DocumentID).Msg("Failed to record import failure")
			}
			continue
		}

		if err := p.store.MarkImported(ctx, doc.DocumentID); err != nil {
			log.Error().Err(err).Str("document_id", doc.DocumentID).Msg("Failed to mark document as imported")
			continue
		}
		imported++
	}
	return len(pending), imported, nil
}

// Drain processes batches until the inbox has nothing pending or a full
// batch made no progress
func (p *EventProcessor) Drain(ctx context.Context) error {
	for {
		taken, imported, err := p.processBatch(ctx)
		if err != nil {
			return err
		}
		if taken < p.batchSize || imported == 0 {
			return nil
		}
	}
}

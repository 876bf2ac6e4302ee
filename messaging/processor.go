package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/rs/zerolog/log"

	"example.com/backstage/analytics/domain"
	"example.com/backstage/analytics/utils"
)

// SourceServiceBus tags inbox documents received from the queue
const SourceServiceBus = "servicebus"

// ErrPoisonMessage marks a message that will never be processable. Such
// messages are dead-lettered instead of retried.
var ErrPoisonMessage = errors.New("poison message")

// MessageProcessor handles one received message
type MessageProcessor interface {
	ProcessMessage(ctx context.Context, message *azservicebus.ReceivedMessage) error
}

// Appender stores received event documents
type Appender interface {
	Append(ctx context.Context, doc domain.EventDocument, source string) (string, error)
}

// Processor decodes event documents and appends them to the import inbox
type Processor struct {
	inbox Appender
}

// NewProcessor creates a new processor
func NewProcessor(inbox Appender) *Processor {
	return &Processor{inbox: inbox}
}

// ProcessMessage appends the event document carried by message
func (p *Processor) ProcessMessage(ctx context.Context, message *azservicebus.ReceivedMessage) error {
	var doc domain.EventDocument
	if err := json.Unmarshal(message.Body, &doc); err != nil {
		return fmt.Errorf("%w: error unmarshalling event document: %v", ErrPoisonMessage, err)
	}
	if err := utils.ValidateEventDocument(doc); err != nil {
		return fmt.Errorf("%w: invalid event document: %v", ErrPoisonMessage, err)
	}

	documentID, err := p.inbox.Append(ctx, doc, SourceServiceBus)
	if err != nil {
		return err
	}

	log.Info().
		Str("message_id", message.MessageID).
		Str("document_id", documentID).
		Str("event_id", doc.ID).
		Str("event_type", string(doc.Type)).
		Msg("Event document received")
	return nil
}

package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/rs/zerolog/log"

	"example.com/backstage/analytics/config"
)

const receiveBatchSize = 10

// AzureClient consumes event documents from a Service Bus queue
type AzureClient struct {
	client    *azservicebus.Client
	queueName string
}

// NewAzureClient creates a new Service Bus client
func NewAzureClient(cfg config.AzureConfig) (*AzureClient, error) {
	client, err := azservicebus.NewClientFromConnectionString(cfg.QueueConnStr, nil)
	if err != nil {
		return nil, err
	}
	return &AzureClient{client: client, queueName: cfg.QueueName}, nil
}

// StartConsumer receives messages until ctx is cancelled
func (a *AzureClient) StartConsumer(ctx context.Context, processor MessageProcessor) error {
	receiver, err := a.client.NewReceiverForQueue(a.queueName, nil)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := receiver.Close(closeCtx); err != nil {
			log.Error().Err(err).Msg("Error closing Service Bus receiver")
		}
	}()

	log.Info().Msgf("Starting consumer for queue %s", a.queueName)

	for {
		messages, err := receiver.ReceiveMessages(ctx, receiveBatchSize, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error().Err(err).Msgf("Error receiving messages from queue %s", a.queueName)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(2 * time.Second):
			}
			continue
		}

		for _, message := range messages {
			settle(ctx, receiver, message, processor.ProcessMessage(ctx, message))
		}
	}
}

// Close closes the Service Bus connection
func (a *AzureClient) Close(ctx context.Context) error {
	return a.client.Close(ctx)
}

// settler is the part of a receiver used to finish a message
type settler interface {
	CompleteMessage(ctx context.Context, message *azservicebus.ReceivedMessage, options *azservicebus.CompleteMessageOptions) error
	AbandonMessage(ctx context.Context, message *azservicebus.ReceivedMessage, options *azservicebus.AbandonMessageOptions) error
	DeadLetterMessage(ctx context.Context, message *azservicebus.ReceivedMessage, options *azservicebus.DeadLetterOptions) error
}

// settle completes a processed message, dead-letters a poison one and
// returns anything else to the queue
func settle(ctx context.Context, receiver settler, message *azservicebus.ReceivedMessage, processErr error) {
	var err error
	switch {
	case processErr == nil:
		err = receiver.CompleteMessage(ctx, message, nil)
	case errors.Is(processErr, ErrPoisonMessage):
		log.Error().Err(processErr).Msgf("Dead-lettering message '%s'", message.MessageID)
		reason := "PoisonMessage"
		description := processErr.Error()
		err = receiver.DeadLetterMessage(ctx, message, &azservicebus.DeadLetterOptions{
			Reason:           &reason,
			ErrorDescription: &description,
		})
	default:
		log.Error().Err(processErr).Msgf("Error processing message '%s'", message.MessageID)
		err = receiver.AbandonMessage(ctx, message, nil)
	}
	if err != nil {
		log.Error().Err(err).Msgf("Error settling message '%s'", message.MessageID)
	}
}

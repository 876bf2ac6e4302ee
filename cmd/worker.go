package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"example.com/backstage/analytics/eventstore"
	"example.com/backstage/analytics/messaging"
	"example.com/backstage/analytics/projections"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Start the background worker that drains the event inbox and consumes Azure Service Bus messages`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	inbox := eventstore.NewGormEventStore(a.db, a.cfg.Worker.MaxAttempts)
	processor := projections.NewEventProcessor(inbox, a.importer, a.cfg.Worker.BatchSize)

	if a.cfg.Azure.Enabled {
		azureClient, err := messaging.NewAzureClient(a.cfg.Azure)
		if err != nil {
			return err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := azureClient.Close(closeCtx); err != nil {
				log.Error().Err(err).Msg("Error closing Service Bus client")
			}
		}()

		g.Go(func() error {
			log.Info().Str("queue", a.cfg.Azure.QueueName).Msg("Starting Azure Service Bus consumer")
			return azureClient.StartConsumer(ctx, messaging.NewProcessor(inbox))
		})
	}

	g.Go(func() error {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(a.cfg.Worker.Interval),
			gocron.NewTask(func() {
				if err := processor.Drain(ctx); err != nil {
					log.Error().Err(err).Msg("Failed to drain event inbox")
				}
			}),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return err
		}

		log.Info().Dur("interval", a.cfg.Worker.Interval).Msg("Starting inbox drain job")
		scheduler.Start()

		<-ctx.Done()

		return scheduler.Shutdown()
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker error")
		return err
	}

	log.Info().Msg("Worker shutting down gracefully")
	return nil
}

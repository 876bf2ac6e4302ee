package cmd

import (
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"example.com/backstage/analytics/cache"
	"example.com/backstage/analytics/config"
	"example.com/backstage/analytics/database"
	"example.com/backstage/analytics/eventconfig"
	"example.com/backstage/analytics/metrics"
	"example.com/backstage/analytics/projections"
	"example.com/backstage/analytics/repository"
	"example.com/backstage/analytics/tracing"
)

// app holds the components shared by every command
type app struct {
	cfg      config.Config
	db       *gorm.DB
	metrics  *metrics.Metrics
	tracer   tracing.Tracer
	importer *projections.Importer
}

func bootstrap() (*app, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, err
	}
	configureLogging(cfg.Logging)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			return nil, err
		}
	}

	registry, err := eventconfig.Load(cfg.EventConfig.Dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load event configuration")
	}
	log.Info().Interface("event_types", registry.EventTypes()).Msg("Event configuration loaded")

	m := metrics.NewMetrics()
	m.SetHealth("database", true)

	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		tracer = tracing.Disabled()
	}

	opts := []projections.ImporterOption{
		projections.WithLocker(cache.NewLocker(cfg.Redis)),
		projections.WithTracer(tracer),
		projections.WithMetrics(m),
	}
	if cfg.Elastic.Enabled {
		indexer, err := newIndexer(cfg.Elastic)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Elasticsearch, continuing without search indexing")
			m.SetHealth("elasticsearch", false)
		} else {
			m.SetHealth("elasticsearch", true)
			opts = append(opts, projections.WithIndexer(indexer))
		}
	}

	importer := projections.NewImporter(registry, repository.NewAnalyticsRepository(db), opts...)

	return &app{
		cfg:      cfg,
		db:       db,
		metrics:  m,
		tracer:   tracer,
		importer: importer,
	}, nil
}

func newIndexer(cfg config.ElasticConfig) (*projections.ElasticIndexer, error) {
	client, err := projections.NewElasticsearchClient(cfg)
	if err != nil {
		return nil, err
	}
	if err := projections.EnsureIndices(client, cfg.Prefix); err != nil {
		return nil, err
	}
	return projections.NewElasticIndexer(client, cfg.Prefix), nil
}

// close releases the database pool and flushes the tracer
func (a *app) close() {
	a.tracer.Close()
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database")
		}
	}
}

func configureLogging(cfg config.LoggingConfig) {
	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	if level, err := zerolog.ParseLevel(cfg.Level); err == nil && cfg.Level != "" {
		zerolog.SetGlobalLevel(level)
	}
}

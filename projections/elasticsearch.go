package projections

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/rs/zerolog/log"

	"example.com/backstage/analytics/config"
)

// Index names, before the configured prefix
const (
	EventsIndex       = "events"
	EventActionsIndex = "event-actions"
)

// Indexer receives committed projections
type Indexer interface {
	IndexProjection(ctx context.Context, projection *Projection) error
}

// NewElasticsearchClient creates a new Elasticsearch client
func NewElasticsearchClient(cfg config.ElasticConfig) (*elasticsearch.Client, error) {
	elasticCfg := elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 10,
		},
	}

	client, err := elasticsearch.NewClient(elasticCfg)
	if err != nil {
		return nil, fmt.Errorf("error creating Elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("error connecting to Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch returned error: %s", res.String())
	}

	log.Info().Msg("Successfully connected to Elasticsearch")
	return client, nil
}

// FormatIndex adds the prefix to the index name
func FormatIndex(prefix, indexName string) string {
	if prefix == "" {
		return indexName
	}
	return prefix + "-" + indexName
}

// EnsureIndices creates the projection indices that do not exist yet
func EnsureIndices(client *elasticsearch.Client, prefix string) error {
	for _, index := range []string{EventsIndex, EventActionsIndex} {
		formattedIndex := FormatIndex(prefix, index)

		res, err := client.Indices.Exists([]string{formattedIndex})
		if err != nil {
			return fmt.Errorf("error checking if index %s exists: %w", formattedIndex, err)
		}
		res.Body.Close()
		if res.StatusCode == http.StatusOK {
			continue
		}

		log.Info().Msgf("Creating index %s", formattedIndex)
		res, err = client.Indices.Create(formattedIndex)
		if err != nil {
			return fmt.Errorf("error creating index %s: %w", formattedIndex, err)
		}
		if res.IsError() {
			res.Body.Close()
			return fmt.Errorf("error creating index %s: %s", formattedIndex, res.String())
		}
		res.Body.Close()
	}
	return nil
}

// ElasticIndexer mirrors committed projections into Elasticsearch
type ElasticIndexer struct {
	client *elasticsearch.Client
	prefix string
}

// NewElasticIndexer creates a new indexer
func NewElasticIndexer(client *elasticsearch.Client, prefix string) *ElasticIndexer {
	return &ElasticIndexer{client: client, prefix: prefix}
}

// IndexProjection indexes the event row and each action row. Documents are
// keyed by row id, so re-indexing overwrites.
func (i *ElasticIndexer) IndexProjection(ctx context.Context, projection *Projection) error {
	if err := i.index(ctx, EventsIndex, projection.Event.ID, projection.Event); err != nil {
		return err
	}
	for _, action := range projection.Actions {
		if err := i.index(ctx, EventActionsIndex, action.ID, action); err != nil {
			return err
		}
	}
	return nil
}

func (i *ElasticIndexer) index(ctx context.Context, index, id string, doc interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal %s document %s: %w", index, id, err)
	}

	formattedIndex := FormatIndex(i.prefix, index)
	res, err := i.client.Index(
		formattedIndex,
		bytes.NewReader(body),
		i.client.Index.WithDocumentID(id),
		i.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to index document %s in %s: %w", id, formattedIndex, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing document %s in %s: %s", id, formattedIndex, res.String())
	}
	return nil
}

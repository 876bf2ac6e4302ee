package projections

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeElasticsearch(t *testing.T) (*elasticsearch.Client, func() []string) {
	t.Helper()
	var mu sync.Mutex
	var paths []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/" {
			_, _ = w.Write([]byte(`{"version":{"number":"7.17.10","build_flavor":"default"},"tagline":"You Know, for Search"}`))
			return
		}
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	return client, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), paths...)
	}
}

func TestElasticIndexer_IndexesEventAndActions(t *testing.T) {
	client, requests := newFakeElasticsearch(t)

	projection, err := NewProjector(birthConfig(t)).ProjectEvent(e1(), "tx-1")
	require.NoError(t, err)

	indexer := NewElasticIndexer(client, "analytics")
	require.NoError(t, indexer.IndexProjection(context.Background(), projection))

	assert.Equal(t, []string{
		"PUT /analytics-events/_doc/E1",
		"PUT /analytics-event-actions/_doc/create",
		"PUT /analytics-event-actions/_doc/register",
	}, requests())
}

func TestFormatIndex(t *testing.T) {
	assert.Equal(t, "analytics-events", FormatIndex("analytics", EventsIndex))
	assert.Equal(t, "events", FormatIndex("", EventsIndex))
}

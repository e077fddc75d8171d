package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"

	"vellum/internal/config"
	"vellum/internal/logging"
	"vellum/internal/services"
)

// Elasticsearch indexes documents into a single Elasticsearch index.
type Elasticsearch struct {
	client  *elasticsearch.Client
	index   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewElasticsearch builds the Elasticsearch index gateway from configuration.
func NewElasticsearch(cfg *config.Config, logger *slog.Logger) (*Elasticsearch, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.Search.URL},
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "indexing", "build client", cfg.Search.URL, err)
	}
	return &Elasticsearch{
		client:  client,
		index:   cfg.Search.Index,
		timeout: time.Duration(cfg.Search.TimeoutSeconds) * time.Second,
		logger:  logger.With(logging.String(logging.FieldComponent, "search")),
	}, nil
}

// Index writes the document under its entry ID so re-indexing after a
// retried stage overwrites rather than duplicates.
func (e *Elasticsearch) Index(ctx context.Context, doc Document) (string, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return "", services.Wrap(services.ErrPermanentInput, "indexing", "encode document", doc.EntryID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	res, err := e.client.Index(
		e.index,
		bytes.NewReader(body),
		e.client.Index.WithContext(ctx),
		e.client.Index.WithDocumentID(doc.EntryID),
	)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "indexing", "index request", "elasticsearch unreachable", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		marker := services.ErrTransient
		if res.StatusCode >= http.StatusBadRequest && res.StatusCode < http.StatusInternalServerError &&
			res.StatusCode != http.StatusTooManyRequests {
			marker = services.ErrPermanentInput
		}
		return "", services.Wrap(marker, "indexing", "index request",
			fmt.Sprintf("elasticsearch returned %s", res.Status()), nil)
	}

	logging.WithContext(ctx, e.logger).Info("document indexed",
		logging.String("index", e.index),
		logging.String("doc_id", doc.EntryID),
	)
	return fmt.Sprintf("%s/%s", e.index, doc.EntryID), nil
}

// Ping verifies the cluster is reachable. Used at startup and by health
// checks; failure at startup is a configuration error.
func (e *Elasticsearch) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "indexing", "ping", "elasticsearch unreachable", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return services.Wrap(services.ErrConfiguration, "indexing", "ping",
			fmt.Sprintf("elasticsearch returned %s", res.Status()), nil)
	}
	return nil
}

package audit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"session_broker_backend/internal/platform/elasticsearch"
)

var indexMapping = map[string]interface{}{
	"properties": map[string]interface{}{
		"id":        map[string]interface{}{"type": "keyword"},
		"operation": map[string]interface{}{"type": "keyword"},
		"outcome":   map[string]interface{}{"type": "keyword"},
		"email":     map[string]interface{}{"type": "keyword"},
		"user_id":   map[string]interface{}{"type": "keyword"},
		"status":    map[string]interface{}{"type": "integer"},
		"kind":      map[string]interface{}{"type": "keyword"},
		"timestamp": map[string]interface{}{"type": "date"},
	},
}

const indexTimeout = 5 * time.Second

// ElasticsearchSink indexes each event as a document.
type ElasticsearchSink struct {
	client *elasticsearch.ESClientWrapper
	index  string
	logger *zap.Logger
}

// NewElasticsearchSink ensures the audit index exists and returns a sink for it.
func NewElasticsearchSink(ctx context.Context, client *elasticsearch.ESClientWrapper, index string, logger *zap.Logger) (*ElasticsearchSink, error) {
	if err := elasticsearch.EnsureIndex(ctx, client, index, indexMapping, logger); err != nil {
		return nil, err
	}
	return &ElasticsearchSink{client: client, index: index, logger: logger.Named("audit")}, nil
}

// Emit indexes event. Failures are logged and otherwise ignored.
func (s *ElasticsearchSink) Emit(ctx context.Context, event Event) {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()
	if err := elasticsearch.IndexDocument(ctx, s.client, s.index, event.ID, event); err != nil {
		s.logger.Warn("Failed to index audit event", zap.String("operation", event.Operation), zap.Error(err))
	}
}

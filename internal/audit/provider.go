package audit

import (
	"context"

	"go.uber.org/zap"

	"session_broker_backend/internal/config"
	"session_broker_backend/internal/platform/elasticsearch"
)

// NewSink picks the Elasticsearch sink when a client is available and the
// no-op sink otherwise.
func NewSink(client *elasticsearch.ESClientWrapper, cfg *config.Config, logger *zap.Logger) Sink {
	if client == nil {
		return NoopSink{}
	}
	sink, err := NewElasticsearchSink(context.Background(), client, cfg.AuditIndex, logger)
	if err != nil {
		logger.Warn("Audit index unavailable; audit events disabled", zap.Error(err))
		return NoopSink{}
	}
	return sink
}

// ProvideDispatcher builds the dispatcher and a cleanup that drains it.
func ProvideDispatcher(sink Sink, cfg *config.Config) (*Dispatcher, func()) {
	d := NewDispatcher(sink, cfg.AuditBufferSize)
	return d, d.Close
}

package audit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"session_broker_backend/internal/platform/elasticsearch"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	gate   chan struct{}
}

func (s *recordingSink) Emit(_ context.Context, e Event) {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) all() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func TestDispatcher_DrainsOnClose(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, 16)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), NewEvent("signin", OutcomeSuccess, http.StatusOK))
	}
	d.Close()

	assert.Len(t, sink.all(), 5)
	assert.Equal(t, uint64(0), d.Dropped())

	// emits after close are ignored
	d.Emit(context.Background(), NewEvent("signin", OutcomeSuccess, http.StatusOK))
	assert.Len(t, sink.all(), 5)
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	sink := &recordingSink{gate: make(chan struct{})}
	d := NewDispatcher(sink, 1)

	// first event is picked up by the worker and blocks on the gate,
	// the second fills the buffer, the rest are dropped
	d.Emit(context.Background(), NewEvent("a", OutcomeSuccess, 200))
	require.Eventually(t, func() bool { return len(d.ch) == 0 }, timeout, tick)
	d.Emit(context.Background(), NewEvent("b", OutcomeSuccess, 200))
	d.Emit(context.Background(), NewEvent("c", OutcomeSuccess, 200))
	d.Emit(context.Background(), NewEvent("d", OutcomeSuccess, 200))

	assert.Equal(t, uint64(2), d.Dropped())
	close(sink.gate)
	d.Close()
	assert.Len(t, sink.all(), 2)
}

func TestNilDispatcherIsSafe(t *testing.T) {
	var d *Dispatcher
	d.Emit(context.Background(), NewEvent("signin", OutcomeFailure, 401))
	d.Close()
	assert.Equal(t, uint64(0), d.Dropped())
}

func TestElasticsearchSink_IndexesEvents(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		mu.Unlock()
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodHead:
			w.WriteHeader(http.StatusNotFound)
		case strings.Contains(r.URL.Path, "/_doc/"):
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"result":"created"}`))
		default:
			_, _ = w.Write([]byte(`{"acknowledged":true}`))
		}
	}))
	defer srv.Close()

	client, err := es.NewClient(es.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	sink, err := NewElasticsearchSink(context.Background(), &elasticsearch.ESClientWrapper{Client: client}, "session-audit", zap.NewNop())
	require.NoError(t, err)

	event := NewEvent("signup", OutcomeSuccess, http.StatusCreated)
	sink.Emit(context.Background(), event)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"HEAD /session-audit",
		"PUT /session-audit",
		"PUT /session-audit/_doc/" + event.ID,
	}, paths)
}

// Package audit records session lifecycle outcomes off the request path.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Outcome values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Event is one lifecycle operation result.
type Event struct {
	ID        string    `json:"id"`
	Operation string    `json:"operation"`
	Outcome   string    `json:"outcome"`
	Email     string    `json:"email,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	Status    int       `json:"status"`
	Kind      string    `json:"kind,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent stamps an event with a fresh ID and the current time.
func NewEvent(operation, outcome string, status int) Event {
	return Event{
		ID:        uuid.NewString(),
		Operation: operation,
		Outcome:   outcome,
		Status:    status,
		Timestamp: time.Now().UTC(),
	}
}

// Sink receives events. Implementations must not block for long.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// Emitter is what request-path code depends on.
type Emitter interface {
	Emit(ctx context.Context, event Event)
}

// NoopSink discards events.
type NoopSink struct{}

func (NoopSink) Emit(context.Context, Event) {}

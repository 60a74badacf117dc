// Package eventstore persists a per-build ledger of works page outcomes.
//
// Every build appends events (build started, page built, page not found,
// soft failure, build completed) to a Store. Summaries are projected from
// the event log on demand.
package eventstore

import (
	"context"
	"time"
)

// Store persists ledger events.
type Store interface {
	// Append writes an event. ID and Timestamp are assigned by the store.
	Append(ctx context.Context, e Event) error

	// Build returns the events of one build in append order.
	Build(ctx context.Context, buildID string) ([]Event, error)

	// Since returns every event recorded at or after t, in append order.
	Since(ctx context.Context, t time.Time) ([]Event, error)

	// PageHistory returns the most recent events that mention slug, newest first.
	PageHistory(ctx context.Context, slug string, limit int) ([]Event, error)

	Close() error
}

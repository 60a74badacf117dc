package eventstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Ledger appends the events of a single build to a Store.
type Ledger struct {
	store   Store
	buildID string
}

// NewLedger starts a ledger for a new build with a random build ID.
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store, buildID: uuid.NewString()}
}

// NewLedgerWithID starts a ledger for an existing build ID.
func NewLedgerWithID(store Store, buildID string) *Ledger {
	return &Ledger{store: store, buildID: buildID}
}

// BuildID returns the build the ledger writes to.
func (l *Ledger) BuildID() string { return l.buildID }

func (l *Ledger) append(ctx context.Context, eventType, slug string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return ErrEventAppendFailed.WithCause(err).WithContext("event_type", eventType)
	}
	return l.store.Append(ctx, Event{BuildID: l.buildID, Type: eventType, Slug: slug, Payload: data})
}

func (l *Ledger) BuildStarted(ctx context.Context, e BuildStarted) error {
	return l.append(ctx, TypeBuildStarted, "", e)
}

func (l *Ledger) PageBuilt(ctx context.Context, e PageBuilt) error {
	return l.append(ctx, TypePageBuilt, e.Slug, e)
}

func (l *Ledger) PageNotFound(ctx context.Context, e PageNotFound) error {
	return l.append(ctx, TypePageNotFound, e.Slug, e)
}

func (l *Ledger) SoftFailure(ctx context.Context, e SoftFailure) error {
	return l.append(ctx, TypeSoftFailure, e.Slug, e)
}

func (l *Ledger) BuildCompleted(ctx context.Context, e BuildCompleted) error {
	return l.append(ctx, TypeBuildCompleted, "", e)
}

// Summary loads the build's events and projects them into a BuildSummary.
func (l *Ledger) Summary(ctx context.Context) (*BuildSummary, error) {
	events, err := l.store.Build(ctx, l.buildID)
	if err != nil {
		return nil, err
	}
	summaries, err := Project(events)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, nil
	}
	return summaries[0], nil
}

// History returns summaries of the builds recorded since the given time,
// newest first.
func History(ctx context.Context, store Store, since time.Time) ([]*BuildSummary, error) {
	events, err := store.Since(ctx, since)
	if err != nil {
		return nil, err
	}
	return Project(events)
}

// PageHistory returns the latest recorded outcomes of slug across builds,
// newest first. A non-positive limit returns all of them.
func PageHistory(ctx context.Context, store Store, slug string, limit int) ([]PageRecord, error) {
	events, err := store.PageHistory(ctx, slug, limit)
	if err != nil {
		return nil, err
	}
	return ProjectPage(events)
}

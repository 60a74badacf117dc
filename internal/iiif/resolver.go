package iiif

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/iiifworks/internal/foundation/errors"
	"git.home.luguber.info/inful/iiifworks/internal/index"
	"git.home.luguber.info/inful/iiifworks/internal/logfields"
	"git.home.luguber.info/inful/iiifworks/internal/observability"
)

// Reasons attached to ErrNotFound.
const (
	ReasonUnknownSlug = "unknown slug"
	ReasonFetchFailed = "fetch failed"
)

// ErrNotFound signals that a page cannot be built and must be omitted.
var ErrNotFound = errors.NotFoundError("page not found").Build()

// Resolution is a resolved page: its index entry and the fetched manifest.
type Resolution struct {
	Entry    index.ManifestEntry
	Manifest *Manifest
}

// Resolver turns slugs into manifests.
type Resolver struct {
	store   *index.Store
	fetcher Fetcher
	logger  *slog.Logger
}

// NewResolver creates a resolver over a loaded index. A nil logger uses slog.Default().
func NewResolver(store *index.Store, fetcher Fetcher, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, fetcher: fetcher, logger: logger}
}

// Resolve looks up slug and fetches its manifest. Every failure is reported
// as ErrNotFound carrying a reason; the manifest is returned unchanged.
func (r *Resolver) Resolve(ctx context.Context, slug string) (Resolution, error) {
	entry, ok := r.store.Lookup(slug)
	if !ok {
		observability.WarnContext(ctx, r.logger, "Manifest not found for slug",
			logfields.Slug(slug), logfields.Reason(ReasonUnknownSlug))
		return Resolution{}, ErrNotFound.WithContextMap(errors.ErrorContext{
			"slug":   slug,
			"reason": ReasonUnknownSlug,
		})
	}

	start := time.Now()
	m, err := r.fetch(ctx, entry.ID)
	if err != nil {
		observability.ErrorContext(ctx, r.logger, "Failed to fetch manifest",
			logfields.Slug(slug), logfields.ManifestID(entry.ID),
			logfields.Reason(ReasonFetchFailed), logfields.Error(err))
		return Resolution{}, ErrNotFound.WithCause(err).WithContextMap(errors.ErrorContext{
			"slug":        slug,
			"manifest_id": entry.ID,
			"reason":      ReasonFetchFailed,
		})
	}

	observability.DebugContext(ctx, r.logger, "Manifest fetched",
		logfields.ManifestID(entry.ID),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	return Resolution{Entry: entry, Manifest: m}, nil
}

// fetch calls the collaborator, turning a panic or a nil manifest into an error.
func (r *Resolver) fetch(ctx context.Context, id string) (m *Manifest, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			m, err = nil, fmt.Errorf("manifest fetcher panicked: %v", rec)
		}
	}()
	m, err = r.fetcher.Fetch(ctx, id)
	if err == nil && m == nil {
		err = fmt.Errorf("manifest fetcher returned no manifest")
	}
	return m, err
}

// Reason extracts the not-found reason from a Resolve error.
func Reason(err error) string {
	if c, ok := errors.AsClassified(err); ok {
		if r, ok := c.Context().GetString("reason"); ok {
			return r
		}
	}
	return ""
}

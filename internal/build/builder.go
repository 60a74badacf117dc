package build

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/iiifworks/internal/bundle"
	"git.home.luguber.info/inful/iiifworks/internal/content"
	"git.home.luguber.info/inful/iiifworks/internal/eventstore"
	"git.home.luguber.info/inful/iiifworks/internal/foundation"
	"git.home.luguber.info/inful/iiifworks/internal/iiif"
	"git.home.luguber.info/inful/iiifworks/internal/index"
	"git.home.luguber.info/inful/iiifworks/internal/logfields"
	"git.home.luguber.info/inful/iiifworks/internal/metrics"
	"git.home.luguber.info/inful/iiifworks/internal/observability"
	"git.home.luguber.info/inful/iiifworks/internal/related"
)

// Soft-failure components, used in logs, metrics and the ledger.
const (
	ComponentReferencing = "referencing_content"
	ComponentOverlay     = "overlay"
)

// Settings are the explicit build-time values the pipeline needs.
type Settings struct {
	// BaseURL prefixes related facet URLs (site url + base path).
	BaseURL     string
	SourceDirs  []string
	OverlaySlug string
	OverlayDir  string
	// PagePrefix is the route prefix of works pages, e.g. "/works".
	PagePrefix string
}

// Ledger records build events. *eventstore.Ledger implements it.
type Ledger interface {
	BuildID() string
	BuildStarted(ctx context.Context, e eventstore.BuildStarted) error
	PageBuilt(ctx context.Context, e eventstore.PageBuilt) error
	PageNotFound(ctx context.Context, e eventstore.PageNotFound) error
	SoftFailure(ctx context.Context, e eventstore.SoftFailure) error
	BuildCompleted(ctx context.Context, e eventstore.BuildCompleted) error
}

// Builder resolves works pages.
type Builder struct {
	store    *index.Store
	facets   []index.Facet
	fetcher  iiif.Fetcher
	resolver *iiif.Resolver
	sampler  *related.Sampler
	finder   content.Finder
	overlays content.OverlayLoader
	recorder metrics.Recorder
	ledger   Ledger

	overlayMu sync.Mutex
	overlay   *overlayLoad
	logger   *slog.Logger
	settings Settings
}

// NewBuilder creates a builder over a loaded index. Collaborators default to
// a system-entropy sampler, no referencing content, an empty overlay and no
// metrics or ledger.
func NewBuilder(store *index.Store, fetcher iiif.Fetcher, settings Settings) *Builder {
	logger := slog.Default()
	return &Builder{
		store:    store,
		facets:   store.Facets(),
		fetcher:  fetcher,
		resolver: iiif.NewResolver(store, fetcher, logger),
		sampler:  related.New(nil),
		finder: content.FinderFunc(func(context.Context, content.Query) ([]content.NavigationItem, error) {
			return []content.NavigationItem{}, nil
		}),
		overlays: content.OverlayLoaderFunc(func(context.Context, content.OverlayQuery) (content.Overlay, error) {
			return content.EmptyOverlay(), nil
		}),
		recorder: metrics.NoopRecorder{},
		ledger:   nopLedger{},
		logger:   logger,
		settings: settings,
	}
}

// WithLogger sets the logger of the builder and its resolver.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	if logger != nil {
		b.logger = logger
		b.resolver = iiif.NewResolver(b.store, b.fetcher, logger)
	}
	return b
}

// WithSampler sets the related facet sampler.
func (b *Builder) WithSampler(s *related.Sampler) *Builder {
	if s != nil {
		b.sampler = s
	}
	return b
}

// WithFinder sets the referencing content lookup.
func (b *Builder) WithFinder(f content.Finder) *Builder {
	if f != nil {
		b.finder = f
	}
	return b
}

// WithOverlayLoader sets the overlay loader.
func (b *Builder) WithOverlayLoader(l content.OverlayLoader) *Builder {
	if l != nil {
		b.overlays = l
	}
	return b
}

// WithRecorder sets the metrics recorder.
func (b *Builder) WithRecorder(r metrics.Recorder) *Builder {
	if r != nil {
		b.recorder = r
	}
	return b
}

// WithLedger sets the build ledger.
func (b *Builder) WithLedger(l Ledger) *Builder {
	if l != nil {
		b.ledger = l
	}
	return b
}

// EnumeratePaths returns one slug per index entry in index order.
func (b *Builder) EnumeratePaths() []string {
	paths := b.store.Paths()
	slugs := make([]string, len(paths))
	for i, p := range paths {
		slugs[i] = p.Slug
	}
	return slugs
}

// ResolvePage builds the bundle for slug. The only error is iiif.ErrNotFound
// (or a context error): the page must then be omitted.
func (b *Builder) ResolvePage(ctx context.Context, slug string) (*bundle.PageBundle, error) {
	pb, _, err := b.resolvePage(ctx, slug)
	return pb, err
}

func (b *Builder) resolvePage(ctx context.Context, slug string) (*bundle.PageBundle, int, error) {
	ctx = observability.WithSlug(ctx, slug)

	start := time.Now()
	res, err := b.resolver.Resolve(observability.WithStage(ctx, "resolve"), slug)
	b.recorder.ObserveStageDuration("resolve", time.Since(start))
	if err != nil {
		return nil, 0, err
	}
	manifestID := canonicalID(res)

	var (
		relatedRefs []foundation.Option[string]
		refs        foundation.Result[[]content.NavigationItem]
		overlay     foundation.Result[content.Overlay]
	)

	var g errgroup.Group
	g.Go(func() error {
		defer b.observe("related", time.Now())
		relatedRefs = b.sampler.Sample(res.Entry.Key, b.facets, b.settings.BaseURL)
		return nil
	})
	g.Go(func() error {
		defer b.observe("referencing", time.Now())
		refs = attempt(ComponentReferencing, func() ([]content.NavigationItem, error) {
			return b.finder.Find(ctx, content.Query{ManifestID: manifestID, SourceDirs: b.settings.SourceDirs})
		})
		return nil
	})
	g.Go(func() error {
		defer b.observe("overlay", time.Now())
		overlay = b.loadOverlay(ctx)
		return nil
	})
	// Every task returns nil; failures travel in the results.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	soft := 0
	record := func(component string) func(error) {
		return func(err error) {
			soft++
			b.softFailure(ctx, slug, manifestID, component, err)
		}
	}
	items := refs.Recover([]content.NavigationItem{}, record(ComponentReferencing))
	ov := overlay.Recover(content.EmptyOverlay(), record(ComponentOverlay))

	pb := bundle.Assemble(res.Manifest, relatedRefs, items, ov.Source, ov.FrontMatter)
	pb.Slug = slug
	pb.Path = PagePath(b.settings.PagePrefix, slug)
	return pb, soft, nil
}

// canonicalID is the id content refers to: the fetched document's id, or the
// index id when the document has none.
func canonicalID(res iiif.Resolution) string {
	if res.Manifest != nil {
		if id := res.Manifest.ID(); id != "" {
			return id
		}
	}
	return res.Entry.ID
}

// overlayLoad holds the shared overlay of one run. Every page of the run
// sees the same result, failures included.
type overlayLoad struct {
	once   sync.Once
	result foundation.Result[content.Overlay]
}

// loadOverlay loads the works overlay. During Run the first page loads it
// and the others reuse the result.
func (b *Builder) loadOverlay(ctx context.Context) foundation.Result[content.Overlay] {
	load := func() foundation.Result[content.Overlay] {
		return attempt(ComponentOverlay, func() (content.Overlay, error) {
			return b.overlays.Load(ctx, content.OverlayQuery{Slug: b.settings.OverlaySlug, Directory: b.settings.OverlayDir})
		})
	}

	b.overlayMu.Lock()
	l := b.overlay
	b.overlayMu.Unlock()
	if l == nil {
		return load()
	}
	l.once.Do(func() { l.result = load() })
	return l.result
}

func (b *Builder) shareOverlay(on bool) {
	b.overlayMu.Lock()
	defer b.overlayMu.Unlock()
	if on {
		b.overlay = &overlayLoad{}
	} else {
		b.overlay = nil
	}
}

func (b *Builder) softFailure(ctx context.Context, slug, manifestID, component string, err error) {
	observability.WarnContext(ctx, b.logger, "Content collaborator failed; using default",
		logfields.Component(component),
		logfields.ManifestID(manifestID),
		logfields.Error(err))
	b.recorder.IncSoftFailure(component)
	if lerr := b.ledger.SoftFailure(ctx, eventstore.SoftFailure{Slug: slug, Component: component, Error: err.Error()}); lerr != nil {
		observability.DebugContext(ctx, b.logger, "Ledger write failed", logfields.Error(lerr))
	}
}

func (b *Builder) observe(stage string, start time.Time) {
	b.recorder.ObserveStageDuration(stage, time.Since(start))
}

// attempt runs a collaborator call, converting a panic into a failed result.
func attempt[T any](component string, fn func() (T, error)) (r foundation.Result[T]) {
	defer func() {
		if rec := recover(); rec != nil {
			r = foundation.Err[T](fmt.Errorf("%s panicked: %v", component, rec))
		}
	}()
	return foundation.Attempt(fn)
}

// PagePath joins the works page prefix and a slug into a route.
func PagePath(prefix, slug string) string {
	prefix = "/" + trimSlashes(prefix)
	if prefix == "/" {
		return "/" + slug
	}
	return prefix + "/" + slug
}

type nopLedger struct{}

func (nopLedger) BuildID() string { return "" }

func (nopLedger) BuildStarted(context.Context, eventstore.BuildStarted) error     { return nil }
func (nopLedger) PageBuilt(context.Context, eventstore.PageBuilt) error           { return nil }
func (nopLedger) PageNotFound(context.Context, eventstore.PageNotFound) error     { return nil }
func (nopLedger) SoftFailure(context.Context, eventstore.SoftFailure) error       { return nil }
func (nopLedger) BuildCompleted(context.Context, eventstore.BuildCompleted) error { return nil }

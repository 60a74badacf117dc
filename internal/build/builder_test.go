package build

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/iiifworks/internal/content"
	"git.home.luguber.info/inful/iiifworks/internal/eventstore"
	"git.home.luguber.info/inful/iiifworks/internal/foundation"
	"git.home.luguber.info/inful/iiifworks/internal/iiif"
	"git.home.luguber.info/inful/iiifworks/internal/index"
	"git.home.luguber.info/inful/iiifworks/internal/metrics"
	"git.home.luguber.info/inful/iiifworks/internal/related"
)

const baseURL = "https://example.org"

func testStore(t *testing.T, facets ...index.Facet) *index.Store {
	t.Helper()
	store, err := index.New([]index.ManifestEntry{
		{Slug: "abc", ID: "X", Key: 3},
		{Slug: "def", ID: "Y", Key: 5},
		{Slug: "ghi", ID: "Z", Key: 7},
	}, facets)
	require.NoError(t, err)
	return store
}

func typeFacet() index.Facet {
	return index.Facet{Slug: "type", Label: "Type", Values: []index.FacetValue{
		index.NewFacetValue("a", "A", 3),
		index.NewFacetValue("b", "B", 5),
	}}
}

func manifestFor(id string) *iiif.Manifest {
	return iiif.NewManifest(
		iiif.Field{Key: iiif.KeyID, Value: json.RawMessage(fmt.Sprintf("%q", id))},
		iiif.Field{Key: iiif.KeyType, Value: json.RawMessage(`"Manifest"`)},
		iiif.Field{Key: iiif.KeyProvider, Value: json.RawMessage(`[{"id":"https://example.org/agent","type":"Agent"}]`)},
		iiif.Field{Key: iiif.KeyLabel, Value: json.RawMessage(`{"en":["Item"]}`)},
	)
}

// fetcherFailing returns a fetcher that fails for the given ids.
func fetcherFailing(ids ...string) iiif.Fetcher {
	failing := make(map[string]bool, len(ids))
	for _, id := range ids {
		failing[id] = true
	}
	return iiif.FetcherFunc(func(_ context.Context, id string) (*iiif.Manifest, error) {
		if failing[id] {
			return nil, fmt.Errorf("fetch %s: connection refused", id)
		}
		return manifestFor(id), nil
	})
}

func testSettings() Settings {
	return Settings{
		BaseURL:     baseURL,
		SourceDirs:  []string{"content"},
		OverlaySlug: "_layout",
		OverlayDir:  "content/works",
		PagePrefix:  "/works",
	}
}

type countingRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	soft     map[string]int
	outcomes map[metrics.PageOutcome]int
	builds   []metrics.BuildOutcome
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{soft: map[string]int{}, outcomes: map[metrics.PageOutcome]int{}}
}

func (r *countingRecorder) IncSoftFailure(component string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.soft[component]++
}

func (r *countingRecorder) IncPageOutcome(o metrics.PageOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[o]++
}

func (r *countingRecorder) IncBuildOutcome(o metrics.BuildOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builds = append(r.builds, o)
}

func failingFinder() content.Finder {
	return content.FinderFunc(func(context.Context, content.Query) ([]content.NavigationItem, error) {
		return nil, stderrors.New("content index unavailable")
	})
}

func failingOverlay() content.OverlayLoader {
	return content.OverlayLoaderFunc(func(context.Context, content.OverlayQuery) (content.Overlay, error) {
		return content.Overlay{}, stderrors.New("overlay missing")
	})
}

func TestEnumeratePaths(t *testing.T) {
	b := NewBuilder(testStore(t), fetcherFailing(), testSettings())

	assert.Equal(t, []string{"abc", "def", "ghi"}, b.EnumeratePaths())
}

func TestResolvePage_SingleCandidate(t *testing.T) {
	b := NewBuilder(testStore(t, typeFacet()), fetcherFailing(), testSettings())

	pb, err := b.ResolvePage(t.Context(), "abc")
	require.NoError(t, err)

	assert.Equal(t, []foundation.Option[string]{
		foundation.Some("https://example.org/api/facet/type/a.json?sort=random"),
	}, pb.Related)
	assert.Equal(t, "abc", pb.Slug)
	assert.Equal(t, "/works/abc", pb.Path)
}

func TestResolvePage_NoCandidate(t *testing.T) {
	facet := index.Facet{Slug: "type", Values: []index.FacetValue{
		index.NewFacetValue("a", "A", 4),
		index.NewFacetValue("b", "B", 5),
	}}
	b := NewBuilder(testStore(t, facet), fetcherFailing(), testSettings())

	pb, err := b.ResolvePage(t.Context(), "abc")
	require.NoError(t, err)
	require.Len(t, pb.Related, 1)
	assert.True(t, pb.Related[0].IsNone())

	data, err := json.Marshal(pb)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"related":[null]`)
}

func TestResolvePage_RelatedLengthMatchesFacets(t *testing.T) {
	facets := []index.Facet{
		typeFacet(),
		{Slug: "empty"},
		{Slug: "subject", Values: []index.FacetValue{index.NewFacetValue("maps", "Maps", 3, 5)}},
	}
	b := NewBuilder(testStore(t, facets...), fetcherFailing(), testSettings()).
		WithSampler(related.NewSeeded(1))

	pb, err := b.ResolvePage(t.Context(), "abc")
	require.NoError(t, err)
	require.Len(t, pb.Related, 3)
	assert.True(t, pb.Related[0].IsSome())
	assert.True(t, pb.Related[1].IsNone())
	assert.Equal(t, "https://example.org/api/facet/subject/maps.json?sort=random", pb.Related[2].UnwrapOr(""))
}

func TestResolvePage_UnknownSlugIsNotFound(t *testing.T) {
	b := NewBuilder(testStore(t), fetcherFailing(), testSettings())

	pb, err := b.ResolvePage(t.Context(), "missing")
	require.Error(t, err)
	assert.Nil(t, pb)
	assert.ErrorIs(t, err, iiif.ErrNotFound)
	assert.Equal(t, iiif.ReasonUnknownSlug, iiif.Reason(err))
}

func TestResolvePage_FetchFailureIsNotFound(t *testing.T) {
	b := NewBuilder(testStore(t), fetcherFailing("X"), testSettings())

	_, err := b.ResolvePage(t.Context(), "abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, iiif.ErrNotFound)
	assert.Equal(t, iiif.ReasonFetchFailed, iiif.Reason(err))
}

func TestResolvePage_FetcherPanicIsNotFound(t *testing.T) {
	fetcher := iiif.FetcherFunc(func(context.Context, string) (*iiif.Manifest, error) {
		panic("decoder exploded")
	})
	b := NewBuilder(testStore(t), fetcher, testSettings())

	_, err := b.ResolvePage(t.Context(), "abc")
	assert.ErrorIs(t, err, iiif.ErrNotFound)
}

func TestResolvePage_StripsProvider(t *testing.T) {
	m := manifestFor("X")
	fetcher := iiif.FetcherFunc(func(context.Context, string) (*iiif.Manifest, error) { return m, nil })
	b := NewBuilder(testStore(t), fetcher, testSettings())

	pb, err := b.ResolvePage(t.Context(), "abc")
	require.NoError(t, err)

	assert.False(t, pb.Manifest.Has(iiif.KeyProvider))
	assert.True(t, m.Has(iiif.KeyProvider))
	data, err := json.Marshal(pb)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "provider")
}

func TestResolvePage_SoftFailureIsolation(t *testing.T) {
	rec := newCountingRecorder()
	store, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	ledger := eventstore.NewLedgerWithID(store, "build-1")

	b := NewBuilder(testStore(t, typeFacet()), fetcherFailing(), testSettings()).
		WithFinder(failingFinder()).
		WithOverlayLoader(failingOverlay()).
		WithRecorder(rec).
		WithLedger(ledger)

	pb, err := b.ResolvePage(t.Context(), "abc")
	require.NoError(t, err)

	assert.Equal(t, []content.NavigationItem{}, pb.ReferencingContent)
	assert.Equal(t, map[string]any{}, pb.FrontMatter)
	assert.True(t, pb.Source.IsZero())
	assert.Len(t, pb.Related, 1)

	data, err := json.Marshal(pb)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"referencingContent":[]`)
	assert.Contains(t, string(data), `"frontMatter":{}`)
	assert.Contains(t, string(data), `"source":{}`)

	assert.Equal(t, map[string]int{ComponentReferencing: 1, ComponentOverlay: 1}, rec.soft)

	summary, err := ledger.Summary(t.Context())
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.ElementsMatch(t, []eventstore.SoftFailure{
		{Slug: "abc", Component: ComponentReferencing, Error: "content index unavailable"},
		{Slug: "abc", Component: ComponentOverlay, Error: "overlay missing"},
	}, summary.SoftFailures)
}

func TestResolvePage_CollaboratorPanicIsSoftFailure(t *testing.T) {
	rec := newCountingRecorder()
	finder := content.FinderFunc(func(context.Context, content.Query) ([]content.NavigationItem, error) {
		panic("walk exploded")
	})
	b := NewBuilder(testStore(t), fetcherFailing(), testSettings()).
		WithFinder(finder).
		WithRecorder(rec)

	pb, err := b.ResolvePage(t.Context(), "abc")
	require.NoError(t, err)
	assert.Empty(t, pb.ReferencingContent)
	assert.Equal(t, 1, rec.soft[ComponentReferencing])
}

func TestResolvePage_PassesQueriesToCollaborators(t *testing.T) {
	var (
		gotQuery   content.Query
		gotOverlay content.OverlayQuery
	)
	finder := content.FinderFunc(func(_ context.Context, q content.Query) ([]content.NavigationItem, error) {
		gotQuery = q
		return []content.NavigationItem{{Label: "Essay", Href: "/essays/one"}}, nil
	})
	overlays := content.OverlayLoaderFunc(func(_ context.Context, q content.OverlayQuery) (content.Overlay, error) {
		gotOverlay = q
		return content.Overlay{
			FrontMatter: map[string]any{"title": "Works"},
			Source:      content.Source{Markdown: "Hi", HTML: "<p>Hi</p>\n"},
		}, nil
	})
	b := NewBuilder(testStore(t), fetcherFailing(), testSettings()).
		WithFinder(finder).
		WithOverlayLoader(overlays)

	pb, err := b.ResolvePage(t.Context(), "abc")
	require.NoError(t, err)

	assert.Equal(t, content.Query{ManifestID: "X", SourceDirs: []string{"content"}}, gotQuery)
	assert.Equal(t, content.OverlayQuery{Slug: "_layout", Directory: "content/works"}, gotOverlay)
	assert.Equal(t, []content.NavigationItem{{Label: "Essay", Href: "/essays/one"}}, pb.ReferencingContent)
	assert.Equal(t, map[string]any{"title": "Works"}, pb.FrontMatter)
	assert.Equal(t, "<p>Hi</p>\n", pb.Source.HTML)
}

func TestResolvePage_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()
	fetcher := iiif.FetcherFunc(func(context.Context, string) (*iiif.Manifest, error) { return manifestFor("X"), nil })
	b := NewBuilder(testStore(t), fetcher, testSettings())

	_, err := b.ResolvePage(ctx, "abc")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPagePath(t *testing.T) {
	assert.Equal(t, "/works/abc", PagePath("/works", "abc"))
	assert.Equal(t, "/works/abc", PagePath("works/", "abc"))
	assert.Equal(t, "/abc", PagePath("", "abc"))
	assert.Equal(t, "/abc", PagePath("/", "abc"))
}

func TestResolvePage_ReferencingContentUsesCanonicalManifestID(t *testing.T) {
	store, err := index.New([]index.ManifestEntry{
		{Slug: "moved", ID: "http://example.org/m.json", Key: 1},
		{Slug: "anonymous", ID: "https://example.org/anon.json", Key: 2},
	}, nil)
	require.NoError(t, err)

	fetcher := iiif.FetcherFunc(func(_ context.Context, id string) (*iiif.Manifest, error) {
		if id == "http://example.org/m.json" {
			return manifestFor("https://example.org/m.json"), nil
		}
		return iiif.NewManifest(iiif.Field{Key: iiif.KeyType, Value: json.RawMessage(`"Manifest"`)}), nil
	})

	var mu sync.Mutex
	var queried []string
	finder := content.FinderFunc(func(_ context.Context, q content.Query) ([]content.NavigationItem, error) {
		mu.Lock()
		defer mu.Unlock()
		queried = append(queried, q.ManifestID)
		return []content.NavigationItem{{Label: "Essay", Href: "/essays/maps"}}, nil
	})
	b := NewBuilder(store, fetcher, testSettings()).WithFinder(finder)

	pb, err := b.ResolvePage(t.Context(), "moved")
	require.NoError(t, err)
	assert.Len(t, pb.ReferencingContent, 1)

	_, err = b.ResolvePage(t.Context(), "anonymous")
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.org/m.json", "https://example.org/anon.json"}, queried)
}

// countingOverlay returns a loader with a fixed overlay and the number of
// loads it served.
func countingOverlay(err error) (content.OverlayLoader, *atomic.Int32) {
	var n atomic.Int32
	return content.OverlayLoaderFunc(func(context.Context, content.OverlayQuery) (content.Overlay, error) {
		n.Add(1)
		if err != nil {
			return content.Overlay{}, err
		}
		return content.Overlay{
			FrontMatter: map[string]any{"title": "Works"},
			Source:      content.Source{Markdown: "# Works", HTML: "<h1>Works</h1>\n"},
		}, nil
	}), &n
}

func TestResolvePage_LoadsOverlayEachCallOutsideRun(t *testing.T) {
	loader, loads := countingOverlay(nil)
	b := NewBuilder(testStore(t), fetcherFailing(), testSettings()).WithOverlayLoader(loader)

	for range 2 {
		pb, err := b.ResolvePage(t.Context(), "abc")
		require.NoError(t, err)
		assert.Equal(t, "Works", pb.FrontMatter["title"])
	}
	assert.Equal(t, int32(2), loads.Load())
}

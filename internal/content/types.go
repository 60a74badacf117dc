package content

import "context"

// NavigationItem is a link to another content item of the site.
type NavigationItem struct {
	Label   string `json:"label"`
	Href    string `json:"href"`
	Summary string `json:"summary,omitempty"`
	Path    string `json:"path"`
}

// Query selects content referencing ManifestID below SourceDirs.
type Query struct {
	ManifestID string
	SourceDirs []string
}

// Finder returns the content items that reference a manifest.
type Finder interface {
	Find(ctx context.Context, q Query) ([]NavigationItem, error)
}

// FinderFunc adapts a function to the Finder interface.
type FinderFunc func(ctx context.Context, q Query) ([]NavigationItem, error)

func (f FinderFunc) Find(ctx context.Context, q Query) ([]NavigationItem, error) {
	return f(ctx, q)
}

// OverlayQuery names the overlay file {Directory}/{Slug}.md.
type OverlayQuery struct {
	Slug      string
	Directory string
}

// Source is the rendered body of an overlay.
type Source struct {
	Markdown    string `json:"markdown,omitempty"`
	HTML        string `json:"html,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// IsZero reports whether no overlay source was loaded.
func (s Source) IsZero() bool {
	return s == Source{}
}

// Overlay is a content fragment merged into every works page.
type Overlay struct {
	FrontMatter map[string]any
	Source      Source
}

// EmptyOverlay is the overlay used when none could be loaded.
func EmptyOverlay() Overlay {
	return Overlay{FrontMatter: map[string]any{}, Source: Source{}}
}

// OverlayLoader loads an overlay fragment.
type OverlayLoader interface {
	Load(ctx context.Context, q OverlayQuery) (Overlay, error)
}

// OverlayLoaderFunc adapts a function to the OverlayLoader interface.
type OverlayLoaderFunc func(ctx context.Context, q OverlayQuery) (Overlay, error)

func (f OverlayLoaderFunc) Load(ctx context.Context, q OverlayQuery) (Overlay, error) {
	return f(ctx, q)
}

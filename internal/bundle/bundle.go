// Package bundle assembles the data a works page is rendered from.
package bundle

import (
	"maps"

	"git.home.luguber.info/inful/iiifworks/internal/content"
	"git.home.luguber.info/inful/iiifworks/internal/foundation"
	"git.home.luguber.info/inful/iiifworks/internal/iiif"
)

// PageBundle is the render-ready data for one works page.
type PageBundle struct {
	Manifest           *iiif.Manifest              `json:"manifest"`
	Related            []foundation.Option[string] `json:"related"`
	ReferencingContent []content.NavigationItem    `json:"referencingContent"`
	Source             content.Source              `json:"source"`
	FrontMatter        map[string]any              `json:"frontMatter"`
	Slug               string                      `json:"slug,omitempty"`
	Path               string                      `json:"path,omitempty"`
}

// Assemble builds a bundle from failure-normalized inputs.
//
// The provider property is removed from a copy of the manifest; the
// caller's manifest is not modified. Nil slices and maps become empty ones.
func Assemble(
	manifest *iiif.Manifest,
	related []foundation.Option[string],
	refs []content.NavigationItem,
	source content.Source,
	frontMatter map[string]any,
) *PageBundle {
	b := &PageBundle{
		Related:            make([]foundation.Option[string], len(related)),
		ReferencingContent: make([]content.NavigationItem, len(refs)),
		Source:             source,
		FrontMatter:        make(map[string]any, len(frontMatter)),
	}
	if manifest != nil {
		b.Manifest = manifest.Without(iiif.KeyProvider)
	}
	copy(b.Related, related)
	copy(b.ReferencingContent, refs)
	maps.Copy(b.FrontMatter, frontMatter)
	return b
}

// RelatedURLs returns the defined related facet URLs in facet order.
func (b *PageBundle) RelatedURLs() []string {
	urls := make([]string, 0, len(b.Related))
	for _, r := range b.Related {
		if u, ok := r.Get(); ok {
			urls = append(urls, u)
		}
	}
	return urls
}

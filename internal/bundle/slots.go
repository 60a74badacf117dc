package bundle

import (
	"fmt"
	"sort"
	"sync"

	"git.home.luguber.info/inful/iiifworks/internal/iiif"
)

// SlotName identifies a render slot of the works page layout.
type SlotName string

const (
	SlotManifestID         SlotName = "ManifestId"
	SlotMetadata           SlotName = "Metadata"
	SlotLinkingProperty    SlotName = "LinkingProperty"
	SlotRequiredStatement  SlotName = "RequiredStatement"
	SlotRelated            SlotName = "Related"
	SlotReferencingContent SlotName = "ReferencingContent"
	SlotScroll             SlotName = "Scroll"
	SlotShare              SlotName = "Share"
	SlotSummary            SlotName = "Summary"
	SlotTitle              SlotName = "Title"
	SlotViewer             SlotName = "Viewer"
)

// SlotProps are the properties handed to a slot's component.
type SlotProps map[string]any

// SlotFunc computes a slot's props from a bundle.
type SlotFunc func(b *PageBundle) SlotProps

// Registry maps slot names to the functions computing their props.
type Registry struct {
	mu    sync.RWMutex
	slots map[SlotName]SlotFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{slots: make(map[SlotName]SlotFunc)}
}

// Register adds a slot. Registering a name twice is an error.
func (r *Registry) Register(name SlotName, fn SlotFunc) error {
	if fn == nil {
		return fmt.Errorf("slot %q: nil func", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.slots[name]; exists {
		return fmt.Errorf("slot %q already registered", name)
	}
	r.slots[name] = fn
	return nil
}

// Names returns the registered slot names, sorted.
func (r *Registry) Names() []SlotName {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]SlotName, 0, len(r.slots))
	for name := range r.slots {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Resolve computes the props of every registered slot for b.
func (r *Registry) Resolve(b *PageBundle) map[SlotName]SlotProps {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[SlotName]SlotProps, len(r.slots))
	for name, fn := range r.slots {
		out[name] = fn(b)
	}
	return out
}

// DefaultRegistry returns a registry with every works page slot.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for name, fn := range map[SlotName]SlotFunc{
		SlotManifestID:         manifestIDProps,
		SlotMetadata:           metadataProps,
		SlotLinkingProperty:    linkingProps,
		SlotRequiredStatement:  requiredStatementProps,
		SlotRelated:            relatedProps,
		SlotReferencingContent: referencingProps,
		SlotScroll:             viewerProps,
		SlotShare:              shareProps,
		SlotSummary:            summaryProps,
		SlotTitle:              titleProps,
		SlotViewer:             viewerProps,
	} {
		// Names are unique map keys.
		_ = r.Register(name, fn)
	}
	return r
}

func manifestID(b *PageBundle) string {
	if b.Manifest == nil {
		return ""
	}
	return b.Manifest.ID()
}

func manifestIDProps(b *PageBundle) SlotProps {
	return SlotProps{"manifestId": manifestID(b)}
}

func metadataProps(b *PageBundle) SlotProps {
	var md []iiif.MetadataItem
	if b.Manifest != nil {
		md = b.Manifest.Metadata()
	}
	if md == nil {
		md = []iiif.MetadataItem{}
	}
	return SlotProps{"metadata": md}
}

func linkingProps(b *PageBundle) SlotProps {
	props := SlotProps{}
	if b.Manifest == nil {
		return props
	}
	for key, refs := range map[string][]iiif.Reference{
		iiif.KeyHomepage:  b.Manifest.Homepage(),
		iiif.KeyPartOf:    b.Manifest.PartOf(),
		iiif.KeyRendering: b.Manifest.Rendering(),
		iiif.KeySeeAlso:   b.Manifest.SeeAlso(),
	} {
		if len(refs) > 0 {
			props[key] = refs
		}
	}
	return props
}

func requiredStatementProps(b *PageBundle) SlotProps {
	if b.Manifest == nil {
		return SlotProps{}
	}
	if rs := b.Manifest.RequiredStatement(); rs != nil {
		return SlotProps{"requiredStatement": *rs}
	}
	return SlotProps{}
}

func relatedProps(b *PageBundle) SlotProps {
	return SlotProps{"urls": b.RelatedURLs()}
}

func referencingProps(b *PageBundle) SlotProps {
	return SlotProps{"items": b.ReferencingContent}
}

func viewerProps(b *PageBundle) SlotProps {
	return SlotProps{"iiifContent": manifestID(b)}
}

func shareProps(b *PageBundle) SlotProps {
	return SlotProps{"path": b.Path, "label": label(b)}
}

func summaryProps(b *PageBundle) SlotProps {
	var summary iiif.LanguageMap
	if b.Manifest != nil {
		summary = b.Manifest.Summary()
	}
	return SlotProps{"summary": summary}
}

func titleProps(b *PageBundle) SlotProps {
	return SlotProps{"label": label(b)}
}

func label(b *PageBundle) iiif.LanguageMap {
	if b.Manifest == nil {
		return nil
	}
	return b.Manifest.Label()
}

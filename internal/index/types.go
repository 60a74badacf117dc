package index

import (
	"encoding/json"

	"github.com/RoaringBitmap/roaring/v2"
)

// ManifestEntry maps a page slug to its manifest id and numeric key.
// The upstream artifact names the key "index".
type ManifestEntry struct {
	Slug string `json:"slug"`
	ID   string `json:"id"`
	Key  uint32 `json:"index"`
}

// FacetValue is one value of a facet together with the keys of the items
// carrying it.
type FacetValue struct {
	Slug  string
	Label string
	keys  *roaring.Bitmap
}

// NewFacetValue builds a facet value owning the given keys.
func NewFacetValue(slug, label string, keys ...uint32) FacetValue {
	return FacetValue{Slug: slug, Label: label, keys: roaring.BitmapOf(keys...)}
}

// Contains reports whether the item with key carries this value.
func (v FacetValue) Contains(key uint32) bool {
	return v.keys != nil && v.keys.Contains(key)
}

// Len returns the number of items carrying this value.
func (v FacetValue) Len() int {
	if v.keys == nil {
		return 0
	}
	return int(v.keys.GetCardinality())
}

type facetValueJSON struct {
	Slug  string   `json:"slug"`
	Label string   `json:"value,omitempty"`
	Docs  []uint32 `json:"docs"`
}

// UnmarshalJSON decodes the artifact form {"value", "slug", "docs": [...]}.
func (v *FacetValue) UnmarshalJSON(data []byte) error {
	var raw facetValueJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = NewFacetValue(raw.Slug, raw.Label, raw.Docs...)
	return nil
}

// MarshalJSON encodes the value in artifact form.
func (v FacetValue) MarshalJSON() ([]byte, error) {
	docs := []uint32{}
	if v.keys != nil {
		docs = v.keys.ToArray()
	}
	return json.Marshal(facetValueJSON{Slug: v.Slug, Label: v.Label, Docs: docs})
}

// Facet is a named classification axis with its values in artifact order.
type Facet struct {
	Slug   string       `json:"slug"`
	Label  string       `json:"label,omitempty"`
	Values []FacetValue `json:"values"`
}

// Path is one page the static build must produce.
type Path struct {
	Slug string `json:"slug"`
}

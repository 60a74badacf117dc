package index

import (
	"slices"
	"strings"

	"git.home.luguber.info/inful/iiifworks/internal/foundation/errors"
)

// Store is the immutable index of manifests and facets for one build.
type Store struct {
	entries []ManifestEntry
	bySlug  map[string]int
	facets  []Facet
}

// New builds a Store from already decoded artifacts. A duplicate, empty or
// unsafe slug is an upstream error and fails the build.
func New(entries []ManifestEntry, facets []Facet) (*Store, error) {
	s := &Store{
		entries: slices.Clone(entries),
		bySlug:  make(map[string]int, len(entries)),
		facets:  cloneFacets(facets),
	}
	for i, e := range s.entries {
		if e.Slug == "" {
			return nil, errors.IndexError("manifest entry without slug").
				WithContext("position", i).
				WithContext("manifest_id", e.ID).
				Build()
		}
		if !validSlug(e.Slug) {
			return nil, errors.IndexError("manifest entry with unsafe slug").
				WithContext("position", i).
				WithContext("slug", e.Slug).
				Build()
		}
		if e.ID == "" {
			return nil, errors.IndexError("manifest entry without id").
				WithContext("slug", e.Slug).
				Build()
		}
		if prev, dup := s.bySlug[e.Slug]; dup {
			return nil, errors.IndexError("duplicate slug in manifest index").
				WithContext("slug", e.Slug).
				WithContext("first", prev).
				WithContext("second", i).
				Build()
		}
		s.bySlug[e.Slug] = i
	}
	return s, nil
}

// validSlug reports whether slug is a relative slash-separated path with no
// empty, "." or ".." segments. Slugs become output file names.
func validSlug(slug string) bool {
	if strings.ContainsAny(slug, "\\\x00") {
		return false
	}
	for seg := range strings.SplitSeq(slug, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}
	return true
}

// cloneFacets copies the facet and value slices. Key bitmaps are shared; the
// store never exposes them for mutation.
func cloneFacets(facets []Facet) []Facet {
	out := make([]Facet, len(facets))
	for i, f := range facets {
		out[i] = Facet{Slug: f.Slug, Label: f.Label, Values: slices.Clone(f.Values)}
	}
	return out
}

// Lookup returns the entry for slug.
func (s *Store) Lookup(slug string) (ManifestEntry, bool) {
	i, ok := s.bySlug[slug]
	if !ok {
		return ManifestEntry{}, false
	}
	return s.entries[i], true
}

// Len returns the number of manifest entries.
func (s *Store) Len() int { return len(s.entries) }

// Entries returns a copy of the manifest entries in index order.
func (s *Store) Entries() []ManifestEntry {
	return slices.Clone(s.entries)
}

// Facets returns the facet definitions in artifact order.
func (s *Store) Facets() []Facet {
	return cloneFacets(s.facets)
}

// Paths enumerates one path per manifest entry in index order.
func (s *Store) Paths() []Path {
	paths := make([]Path, len(s.entries))
	for i, e := range s.entries {
		paths[i] = Path{Slug: e.Slug}
	}
	return paths
}

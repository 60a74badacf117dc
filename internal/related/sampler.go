// Package related picks one "related" facet reference per facet for a work page.
package related

import (
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"
	"sync"

	"git.home.luguber.info/inful/iiifworks/internal/foundation"
	"git.home.luguber.info/inful/iiifworks/internal/index"
)

// Sampler chooses a uniformly random matching value per facet.
//
// Randomness comes from the injected source. Without one, every call draws
// from the runtime's entropy-seeded generator, so repeated builds may pick
// different values.
type Sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a sampler drawing from src. A nil src uses system entropy.
func New(src rand.Source) *Sampler {
	s := &Sampler{}
	if src != nil {
		s.rng = rand.New(src)
	}
	return s
}

// NewSeeded creates a sampler with a fixed PCG seed, for reproducible builds and tests.
func NewSeeded(seed uint64) *Sampler {
	return New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Sample returns one entry per facet, in facet order. An entry is None when
// no value of the facet contains key.
func (s *Sampler) Sample(key uint32, facets []index.Facet, baseURL string) []foundation.Option[string] {
	out := make([]foundation.Option[string], len(facets))
	for i, facet := range facets {
		candidates := make([]index.FacetValue, 0, len(facet.Values))
		for _, v := range facet.Values {
			if v.Contains(key) {
				candidates = append(candidates, v)
			}
		}
		if len(candidates) == 0 {
			out[i] = foundation.None[string]()
			continue
		}
		s.shuffle(candidates)
		out[i] = foundation.Some(FacetURL(baseURL, facet.Slug, candidates[0].Slug))
	}
	return out
}

// shuffle permutes values uniformly (Fisher-Yates).
func (s *Sampler) shuffle(values []index.FacetValue) {
	swap := func(i, j int) { values[i], values[j] = values[j], values[i] }
	if s.rng == nil {
		rand.Shuffle(len(values), swap)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng.Shuffle(len(values), swap)
}

// FacetURL builds the random-sort facet API URL for a facet value.
func FacetURL(baseURL, facet, value string) string {
	return fmt.Sprintf("%s/api/facet/%s/%s.json?sort=random",
		strings.TrimSuffix(baseURL, "/"), url.PathEscape(facet), url.PathEscape(value))
}

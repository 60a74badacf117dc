// Package index holds the build's read-only view of the precomputed manifest
// and facet artifacts.
//
// A Store is constructed once per build process and never mutated. Facet
// membership is kept in roaring bitmaps keyed by the numeric item key, so
// sampling tests membership without scanning value lists.
package index

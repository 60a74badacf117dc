// Package build drives the works page pipeline.
//
// A Builder enumerates page slugs from the index and resolves each one:
// manifest resolution, then related facet sampling, referencing content
// lookup and overlay loading in parallel, then bundle assembly. A slug whose
// manifest cannot be resolved is omitted from the build. Failures of the
// content collaborators are soft: they are logged, counted and replaced by
// empty values, and the page is still built.
//
// Run processes every slug with bounded concurrency and writes one JSON
// bundle per page. Only output I/O errors and cancellation abort a run.
package build

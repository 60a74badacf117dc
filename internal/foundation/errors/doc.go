// Package errors provides the classified error primitives used across the works builder.
//
// Errors carry a category (config, index, manifest, content, ...), a severity
// and structured context. The severity decides the Disposition the build
// pipeline applies:
//
//   - SeverityFatal: DispositionAbort (malformed index artifacts, bad config)
//   - SeverityError: DispositionOmit (unknown slug, unreachable manifest)
//   - SeverityWarning: DispositionDegrade (soft failure, default substituted)
//
// Example usage:
//
//	err := errors.ManifestError("manifest fetch failed").
//		WithContext("manifest_id", id).
//		WithCause(originalErr).
//		Build()
package errors

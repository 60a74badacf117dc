package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeySlug       = "slug"
	KeyManifestID = "manifest_id"
	KeyFacet      = "facet"
	KeyComponent  = "component"
	KeyReason     = "reason"
	KeyStage      = "stage"
	KeyPath       = "path"
	KeyURL        = "url"
	KeyStatus     = "status"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr       { return slog.String(KeyBuildID, id) }
func Slug(s string) slog.Attr           { return slog.String(KeySlug, s) }
func ManifestID(id string) slog.Attr    { return slog.String(KeyManifestID, id) }
func Facet(f string) slog.Attr          { return slog.String(KeyFacet, f) }
func Component(c string) slog.Attr      { return slog.String(KeyComponent, c) }
func Reason(r string) slog.Attr         { return slog.String(KeyReason, r) }
func Stage(name string) slog.Attr       { return slog.String(KeyStage, name) }
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr            { return slog.String(KeyURL, u) }
func Status(code int) slog.Attr         { return slog.Int(KeyStatus, code) }
func Count(n int) slog.Attr             { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr   { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"BuildID", KeyBuildID, "b1", BuildID("b1")},
		{"Slug", KeySlug, "abc", Slug("abc")},
		{"ManifestID", KeyManifestID, "https://example.org/m.json", ManifestID("https://example.org/m.json")},
		{"Facet", KeyFacet, "type", Facet("type")},
		{"Component", KeyComponent, "overlay", Component("overlay")},
		{"Reason", KeyReason, "unknown slug", Reason("unknown slug")},
		{"Stage", KeyStage, "resolve", Stage("resolve")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"URL", KeyURL, "https://example.org", URL("https://example.org")},
	}
	for _, c := range cases {
		if c.attr.Key != c.attrKey {
			t.Fatalf("%s key mismatch: got %s want %s", c.name, c.attr.Key, c.attrKey)
		}
		if c.attr.Value.String() != c.attrVal {
			t.Fatalf("%s value mismatch: got %s want %s", c.name, c.attr.Value.String(), c.attrVal)
		}
	}
}

func TestNumericHelpers(t *testing.T) {
	if got := Status(404); got.Key != KeyStatus || got.Value.Int64() != 404 {
		t.Fatalf("unexpected status attr %v", got)
	}
	if got := Count(3); got.Key != KeyCount || got.Value.Int64() != 3 {
		t.Fatalf("unexpected count attr %v", got)
	}
	if got := DurationMS(1.5); got.Value.Float64() != 1.5 {
		t.Fatalf("unexpected duration attr %v", got)
	}
}

func TestErrorHelper(t *testing.T) {
	if got := Error(nil); got.Value.String() != "" {
		t.Fatalf("expected empty error value, got %q", got.Value.String())
	}
	if got := Error(errors.New("boom")); got.Value.String() != "boom" {
		t.Fatalf("expected boom, got %q", got.Value.String())
	}
}

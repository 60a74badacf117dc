package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const manifestURL = "https://example.org/iiif/abc/manifest.json"

func TestExtractLinks(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		opts  Options
		kinds []LinkKind
		dests []string
	}{
		{
			name:  "inline manifest link",
			src:   "Viewed in [the viewer](" + manifestURL + ").",
			kinds: []LinkKind{LinkKindInline},
			dests: []string{manifestURL},
		},
		{
			name:  "image thumbnail",
			src:   "![Cover](https://example.org/iiif/abc/full/200,/0/default.jpg)",
			kinds: []LinkKind{LinkKindImage},
			dests: []string{"https://example.org/iiif/abc/full/200,/0/default.jpg"},
		},
		{
			name:  "angle bracket autolink",
			src:   "<" + manifestURL + ">",
			kinds: []LinkKind{LinkKindAuto},
			dests: []string{manifestURL},
		},
		{
			name:  "reference usage and definition",
			src:   "See [the work][w].\n\n[w]: " + manifestURL + "\n",
			kinds: []LinkKind{LinkKindInline, LinkKindReferenceDefinition},
			dests: []string{manifestURL, manifestURL},
		},
		{
			name:  "bare URL needs GFM",
			src:   "Source: " + manifestURL + " (public domain)",
			opts:  Options{GFM: true},
			kinds: []LinkKind{LinkKindAuto},
			dests: []string{manifestURL},
		},
		{
			name: "bare URL ignored without GFM",
			src:  "Source: " + manifestURL,
		},
		{
			name: "code is not a reference",
			src: "`[inline](" + manifestURL + ")`\n\n" +
				"```\n[fenced](" + manifestURL + ")\n```\n\n" +
				"[real](/works/abc)\n",
			kinds: []LinkKind{LinkKindInline},
			dests: []string{"/works/abc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links, err := ExtractLinks([]byte(tt.src), tt.opts)
			require.NoError(t, err)
			require.Len(t, links, len(tt.dests))
			for i, l := range links {
				require.Equal(t, tt.kinds[i], l.Kind)
				require.Equal(t, tt.dests[i], l.Destination)
			}
		})
	}
}

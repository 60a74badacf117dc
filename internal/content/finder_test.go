package content

import (
	"bytes"
	"context"
	"io/fs"
	"log/slog"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/iiifworks/internal/foundation/errors"
)

const manifestID = "https://example.org/iiif/map-1.json"

func contentFS() fstest.MapFS {
	return fstest.MapFS{
		"content/essays/by-front-matter.md": {Data: []byte("---\ntitle: Maps\nsummary: Regional maps\nmanifest: " + manifestID + "\n---\nBody\n")},
		"content/essays/by-list.mdx":        {Data: []byte("---\ntitle: Lists\nmanifests:\n  - https://example.org/other.json\n  - " + manifestID + "\n---\n")},
		"content/essays/by-link.md":         {Data: []byte("See [the map](" + manifestID + ").\n")},
		"content/essays/by-component.mdx":   {Data: []byte("---\ntitle: Viewer\ndescription: Embedded\n---\n\n<Viewer iiifContent=\"" + manifestID + "\" />\n")},
		"content/essays/index.md":           {Data: []byte("---\ntitle: Essays\n---\n<Viewer manifestId=\"" + manifestID + "\" />\n")},
		"content/essays/unrelated.md":       {Data: []byte("---\ntitle: Other\nmanifest: https://example.org/other.json\n---\n[x](https://example.org/other.json)\n")},
		"content/essays/code.md":            {Data: []byte("```\n[the map](" + manifestID + ")\n```\n")},
		"content/notes.txt":                 {Data: []byte(manifestID)},
	}
}

func TestFSFinder_FindsAllReferenceKinds(t *testing.T) {
	f := NewFinderFS(contentFS(), nil)

	items, err := f.Find(context.Background(), Query{ManifestID: manifestID, SourceDirs: []string{"content"}})
	require.NoError(t, err)

	hrefs := make([]string, 0, len(items))
	for _, it := range items {
		hrefs = append(hrefs, it.Href)
	}
	assert.Equal(t, []string{
		"/content/essays",
		"/content/essays/by-component",
		"/content/essays/by-front-matter",
		"/content/essays/by-link",
		"/content/essays/by-list",
	}, hrefs)
}

func TestFSFinder_NavigationItemFields(t *testing.T) {
	f := NewFinderFS(contentFS(), nil)

	items, err := f.Find(context.Background(), Query{ManifestID: manifestID, SourceDirs: []string{"content"}})
	require.NoError(t, err)
	require.Len(t, items, 5)

	assert.Equal(t, NavigationItem{
		Label:   "Viewer",
		Href:    "/content/essays/by-component",
		Summary: "Embedded",
		Path:    "content/essays/by-component.mdx",
	}, items[1])
	assert.Equal(t, NavigationItem{
		Label:   "Maps",
		Href:    "/content/essays/by-front-matter",
		Summary: "Regional maps",
		Path:    "content/essays/by-front-matter.md",
	}, items[2])
	// Without a title the file name is the label.
	assert.Equal(t, "by-link", items[3].Label)
}

func TestFSFinder_MissingSourceDirIsSkipped(t *testing.T) {
	f := NewFinderFS(contentFS(), nil)

	items, err := f.Find(context.Background(), Query{ManifestID: manifestID, SourceDirs: []string{"missing", "/content/essays/"}})
	require.NoError(t, err)
	assert.Len(t, items, 5)
}

func TestFSFinder_OverlappingDirsDoNotDuplicate(t *testing.T) {
	f := NewFinderFS(contentFS(), nil)

	items, err := f.Find(context.Background(), Query{ManifestID: manifestID, SourceDirs: []string{"content", "content/essays"}})
	require.NoError(t, err)
	assert.Len(t, items, 5)
}

func TestFSFinder_EmptyManifestID(t *testing.T) {
	f := NewFinderFS(contentFS(), nil)

	items, err := f.Find(context.Background(), Query{SourceDirs: []string{"content"}})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)
}

func TestFSFinder_BrokenFrontMatterIsSkipped(t *testing.T) {
	fsys := contentFS()
	fsys["content/broken.md"] = &fstest.MapFile{Data: []byte("---\ntitle: never closed\nmanifest: " + manifestID + "\n")}
	fsys["content/bad-yaml.md"] = &fstest.MapFile{Data: []byte("---\ntitle: [unterminated\n---\n[map](" + manifestID + ")\n")}

	var logs bytes.Buffer
	f := NewFinderFS(fsys, slog.New(slog.NewTextHandler(&logs, nil)))

	items, err := f.Find(context.Background(), Query{ManifestID: manifestID, SourceDirs: []string{"content"}})
	require.NoError(t, err)
	assert.Len(t, items, 5)
	for _, it := range items {
		assert.NotContains(t, it.Path, "broken")
		assert.NotContains(t, it.Path, "bad-yaml")
	}
	assert.Contains(t, logs.String(), "path=content/broken.md")
	assert.Contains(t, logs.String(), "path=content/bad-yaml.md")
}

func TestFSFinder_WalkErrorIsContentError(t *testing.T) {
	fsys := fstest.MapFS{
		"content/a.md": {Data: []byte("[map](" + manifestID + ")\n")},
	}
	f := NewFinderFS(walkFailFS{fsys}, nil)

	_, err := f.Find(context.Background(), Query{ManifestID: manifestID, SourceDirs: []string{"content"}})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryContent))
}

// walkFailFS lists directories but refuses to read markdown files.
type walkFailFS struct{ fstest.MapFS }

func (w walkFailFS) Open(name string) (fs.File, error) {
	if strings.HasSuffix(name, ".md") {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
	}
	return w.MapFS.Open(name)
}

func (w walkFailFS) ReadFile(name string) ([]byte, error) {
	if strings.HasSuffix(name, ".md") {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrPermission}
	}
	return w.MapFS.ReadFile(name)
}

func TestFSFinder_CanceledContext(t *testing.T) {
	f := NewFinderFS(contentFS(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Find(ctx, Query{ManifestID: manifestID, SourceDirs: []string{"content"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

package content

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/iiifworks/internal/foundation/errors"
	"git.home.luguber.info/inful/iiifworks/internal/frontmatter"
	"git.home.luguber.info/inful/iiifworks/internal/logfields"
	"git.home.luguber.info/inful/iiifworks/internal/markdown"
)

// Front matter keys naming the manifests a content file is about.
var manifestKeys = []string{"manifest", "manifests", "iiifContent"}

// Attributes on embedded components naming a manifest (lowercased).
var manifestAttributes = map[string]bool{
	"iiifcontent": true,
	"manifestid":  true,
}

// FSFinder scans markdown files below a content root.
type FSFinder struct {
	fsys   fs.FS
	logger *slog.Logger
	opts   markdown.Options
}

// NewFSFinder returns a finder rooted at the directory root.
func NewFSFinder(root string, logger *slog.Logger) *FSFinder {
	return NewFinderFS(os.DirFS(root), logger)
}

// NewFinderFS returns a finder over an arbitrary file system.
func NewFinderFS(fsys fs.FS, logger *slog.Logger) *FSFinder {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSFinder{
		fsys:   fsys,
		logger: logger.With(logfields.Component("content_finder")),
		opts:   markdown.Options{GFM: true},
	}
}

// Find walks every source directory and returns the items referencing
// q.ManifestID, sorted by href. A missing source directory and files with
// invalid front matter are skipped.
func (f *FSFinder) Find(ctx context.Context, q Query) ([]NavigationItem, error) {
	if q.ManifestID == "" {
		return []NavigationItem{}, nil
	}

	seen := make(map[string]bool)
	items := make([]NavigationItem, 0)
	for _, dir := range q.SourceDirs {
		dir = cleanDir(dir)
		if _, err := fs.Stat(f.fsys, dir); err != nil {
			f.logger.Debug("Skipping missing source directory", logfields.Path(dir))
			continue
		}

		err := fs.WalkDir(f.fsys, dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if d.IsDir() || !isMarkdown(p) || seen[p] {
				return nil
			}
			seen[p] = true

			item, ok, err := f.match(p, q.ManifestID)
			if err != nil {
				return err
			}
			if ok {
				items = append(items, item)
			}
			return nil
		})
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryContent, "referencing content lookup failed").
				WithContext("dir", dir).
				WithContext("manifest_id", q.ManifestID).
				Build()
		}
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Href == items[j].Href {
			return items[i].Path < items[j].Path
		}
		return items[i].Href < items[j].Href
	})
	return items, nil
}

func (f *FSFinder) match(p, manifestID string) (NavigationItem, bool, error) {
	data, err := fs.ReadFile(f.fsys, p)
	if err != nil {
		return NavigationItem{}, false, err
	}
	doc, err := frontmatter.Parse(data)
	if err != nil {
		f.logger.Warn("Skipping content file with invalid front matter",
			logfields.Path(p), logfields.Error(err))
		return NavigationItem{}, false, nil
	}

	if !f.references(doc, manifestID) {
		return NavigationItem{}, false, nil
	}
	return navigationItem(p, doc), true, nil
}

func (f *FSFinder) references(doc frontmatter.Document, manifestID string) bool {
	for _, key := range manifestKeys {
		for _, v := range doc.Strings(key) {
			if v == manifestID {
				return true
			}
		}
	}

	links, err := markdown.ExtractLinks(doc.Body, f.opts)
	if err == nil {
		for _, l := range links {
			if l.Destination == manifestID {
				return true
			}
		}
	}

	attrs, err := markdown.ExtractAttributes(doc.Body, f.opts)
	if err == nil {
		for _, a := range attrs {
			if manifestAttributes[a.Name] && a.Value == manifestID {
				return true
			}
		}
	}
	return false
}

func navigationItem(p string, doc frontmatter.Document) NavigationItem {
	href := "/" + strings.TrimSuffix(p, path.Ext(p))
	if path.Base(href) == "index" {
		href = path.Dir(href)
	}

	label := doc.String("title")
	if label == "" {
		label = strings.TrimSuffix(path.Base(p), path.Ext(p))
	}

	summary := doc.String("summary")
	if summary == "" {
		summary = doc.String("description")
	}

	return NavigationItem{Label: label, Href: href, Summary: summary, Path: p}
}

func isMarkdown(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".md", ".mdx":
		return true
	default:
		return false
	}
}

// cleanDir converts a configured directory to an fs.FS path.
func cleanDir(dir string) string {
	dir = path.Clean(filepath.ToSlash(dir))
	dir = strings.TrimPrefix(dir, "/")
	if dir == "" {
		return "."
	}
	return dir
}

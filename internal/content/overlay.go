package content

import (
	"context"
	stderrors "errors"
	"io/fs"
	"log/slog"
	"os"
	"path"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/iiifworks/internal/foundation/errors"
	"git.home.luguber.info/inful/iiifworks/internal/frontmatter"
	"git.home.luguber.info/inful/iiifworks/internal/logfields"
	"git.home.luguber.info/inful/iiifworks/internal/markdown"
)

// FSOverlayLoader reads overlays from {root}/{directory}/{slug}.md or .mdx.
type FSOverlayLoader struct {
	fsys   fs.FS
	logger *slog.Logger
	opts   markdown.Options
}

// NewFSOverlayLoader returns a loader rooted at the directory root.
func NewFSOverlayLoader(root string, logger *slog.Logger) *FSOverlayLoader {
	return NewOverlayLoaderFS(os.DirFS(root), logger)
}

// NewOverlayLoaderFS returns a loader over an arbitrary file system.
func NewOverlayLoaderFS(fsys fs.FS, logger *slog.Logger) *FSOverlayLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSOverlayLoader{
		fsys:   fsys,
		logger: logger.With(logfields.Component("overlay_loader")),
		opts:   markdown.Options{GFM: true},
	}
}

// Load returns the overlay for q. A missing file is a not-found error; the
// caller decides whether that degrades to EmptyOverlay.
func (l *FSOverlayLoader) Load(ctx context.Context, q OverlayQuery) (Overlay, error) {
	if err := ctx.Err(); err != nil {
		return Overlay{}, err
	}

	dir := cleanDir(q.Directory)
	var (
		data []byte
		file string
	)
	for _, ext := range []string{".md", ".mdx"} {
		candidate := path.Join(dir, q.Slug+ext)
		b, err := fs.ReadFile(l.fsys, candidate)
		if err == nil {
			data, file = b, candidate
			break
		}
		if !stderrors.Is(err, fs.ErrNotExist) {
			return Overlay{}, errors.WrapError(err, errors.CategoryContent, "read overlay").
				WithContext("path", candidate).
				Build()
		}
	}
	if file == "" {
		return Overlay{}, errors.NotFoundError("overlay not found").
			WithContext("slug", q.Slug).
			WithContext("dir", dir).
			Build()
	}

	doc, err := frontmatter.Parse(data)
	if err != nil {
		return Overlay{}, errors.ContentError("invalid overlay front matter").
			WithCause(err).
			WithContext("path", file).
			Build()
	}

	html, err := markdown.Render(doc.Body, l.opts)
	if err != nil {
		return Overlay{}, errors.ContentError("render overlay").
			WithCause(err).
			WithContext("path", file).
			Build()
	}

	l.logger.Debug("Loaded overlay", logfields.Path(file))
	return Overlay{
		FrontMatter: doc.Fields,
		Source: Source{
			Markdown:    string(doc.Body),
			HTML:        html,
			Fingerprint: mdfp.CalculateFingerprintFromParts(string(doc.Raw), string(doc.Body)),
		},
	}, nil
}

package build

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/iiifworks/internal/bundle"
	"git.home.luguber.info/inful/iiifworks/internal/eventstore"
	"git.home.luguber.info/inful/iiifworks/internal/foundation/errors"
	"git.home.luguber.info/inful/iiifworks/internal/iiif"
	"git.home.luguber.info/inful/iiifworks/internal/logfields"
	"git.home.luguber.info/inful/iiifworks/internal/metrics"
	"git.home.luguber.info/inful/iiifworks/internal/observability"
)

// DefaultConcurrency is used when RunOptions.Concurrency is not positive.
const DefaultConcurrency = 8

// RunOptions control where and how bundles are written.
type RunOptions struct {
	OutputDir   string
	Concurrency int
	// Compress writes gzip bundles ({slug}.json.gz).
	Compress bool
}

// BuildStatus represents the outcome of a build run.
type BuildStatus string

const (
	BuildStatusSuccess  BuildStatus = "success"
	// BuildStatusWarning means the run finished with omitted or degraded pages.
	BuildStatusWarning  BuildStatus = "warning"
	BuildStatusFailed   BuildStatus = "failed"
	BuildStatusCanceled BuildStatus = "canceled"
)

// Report summarizes a build run.
type Report struct {
	BuildID      string
	Status       BuildStatus
	Built        int
	NotFound     int
	SoftFailures int
	// Omitted lists the slugs without a page, in completion order.
	Omitted  []string
	Duration time.Duration
}

// Run resolves every enumerated slug and writes its bundle below
// opts.OutputDir. Not-found pages are skipped; the run fails only on output
// errors or cancellation.
func (b *Builder) Run(ctx context.Context, opts RunOptions) (*Report, error) {
	start := time.Now()
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	report := &Report{BuildID: b.ledger.BuildID(), Omitted: []string{}}
	if report.BuildID != "" {
		ctx = observability.WithBuildID(ctx, report.BuildID)
	}

	dir := filepath.Join(opts.OutputDir, filepath.FromSlash(trimSlashes(b.settings.PagePrefix)))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return b.finish(ctx, report, start, errors.WrapError(err, errors.CategoryFileSystem, "create output directory").
			WithContext("path", dir).
			Build())
	}

	b.shareOverlay(true)
	defer b.shareOverlay(false)

	slugs := b.EnumeratePaths()
	b.recorder.SetConcurrency(concurrency)
	b.ledgerWrite(ctx, b.ledger.BuildStarted(ctx, eventstore.BuildStarted{
		BaseURL:     b.settings.BaseURL,
		Pages:       len(slugs),
		Concurrency: concurrency,
	}))
	observability.InfoContext(ctx, b.logger, "Build started",
		logfields.Count(len(slugs)), logfields.Path(dir))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, slug := range slugs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pageStart := time.Now()
			pb, soft, err := b.resolvePage(gctx, slug)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				if errors.DispositionOf(err) != errors.DispositionOmit {
					return err
				}
				mu.Lock()
				report.NotFound++
				report.Omitted = append(report.Omitted, slug)
				mu.Unlock()
				b.recorder.IncPageOutcome(metrics.PageNotFound)
				b.ledgerWrite(gctx, b.ledger.PageNotFound(gctx, eventstore.PageNotFound{
					Slug:   slug,
					Reason: iiif.Reason(err),
					Error:  errorMessage(err),
				}))
				return nil
			}

			out, err := writeBundle(dir, pb, opts.Compress)
			if err != nil {
				b.recorder.IncPageOutcome(metrics.PageFailed)
				return err
			}
			b.recorder.ObserveStageDuration("write", time.Since(pageStart))

			mu.Lock()
			report.Built++
			report.SoftFailures += soft
			mu.Unlock()
			b.recorder.IncPageOutcome(metrics.PageBuilt)
			b.ledgerWrite(gctx, b.ledger.PageBuilt(gctx, eventstore.PageBuilt{
				Slug:       slug,
				ManifestID: manifestID(pb),
				Output:     out,
				DurationMS: time.Since(pageStart).Milliseconds(),
			}))
			return nil
		})
	}

	return b.finish(ctx, report, start, g.Wait())
}

func (b *Builder) finish(ctx context.Context, report *Report, start time.Time, err error) (*Report, error) {
	report.Duration = time.Since(start)
	switch {
	case err != nil && (stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)):
		report.Status = BuildStatusCanceled
	case err != nil:
		report.Status = BuildStatusFailed
	case report.NotFound > 0 || report.SoftFailures > 0:
		report.Status = BuildStatusWarning
	default:
		report.Status = BuildStatusSuccess
	}

	b.recorder.ObserveBuildDuration(report.Duration)
	b.recorder.IncBuildOutcome(metrics.BuildOutcome(report.Status))
	// The ledger outlives a canceled run context.
	lctx := context.WithoutCancel(ctx)
	b.ledgerWrite(lctx, b.ledger.BuildCompleted(lctx, eventstore.BuildCompleted{
		Status:       string(report.Status),
		Built:        report.Built,
		NotFound:     report.NotFound,
		SoftFailures: report.SoftFailures,
		DurationMS:   report.Duration.Milliseconds(),
	}))

	attrs := []any{
		"status", string(report.Status),
		"built", report.Built,
		"not_found", report.NotFound,
		"soft_failures", report.SoftFailures,
		logfields.DurationMS(float64(report.Duration.Milliseconds())),
	}
	if err != nil {
		b.logger.ErrorContext(ctx, "Build failed", append(attrs, logfields.Error(err))...)
		return report, err
	}
	b.logger.InfoContext(ctx, "Build completed", attrs...)
	return report, nil
}

func (b *Builder) ledgerWrite(ctx context.Context, err error) {
	if err != nil {
		observability.WarnContext(ctx, b.logger, "Ledger write failed", logfields.Error(err))
	}
}

// writeBundle writes pb to {dir}/{slug}.json[.gz] through a temp file and
// returns the file name relative to dir.
func writeBundle(dir string, pb *bundle.PageBundle, compress bool) (string, error) {
	name := pb.Slug + ".json"
	if compress {
		name += ".gz"
	}
	if !filepath.IsLocal(filepath.FromSlash(name)) {
		return "", errors.BuildError("bundle path leaves the output directory").
			WithContext("slug", pb.Slug).
			WithContext("dir", dir).
			Build()
	}
	target := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return "", fsError(err, "create bundle directory", target)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".bundle-*")
	if err != nil {
		return "", fsError(err, "create bundle file", target)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := encodeBundle(tmp, pb, compress); err != nil {
		_ = tmp.Close()
		return "", fsError(err, "write bundle", target)
	}
	if err := tmp.Close(); err != nil {
		return "", fsError(err, "close bundle", target)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fsError(err, "rename bundle", target)
	}
	return name, nil
}

func encodeBundle(f *os.File, pb *bundle.PageBundle, compress bool) error {
	if !compress {
		return json.NewEncoder(f).Encode(pb)
	}
	zw := gzip.NewWriter(f)
	if err := json.NewEncoder(zw).Encode(pb); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}

func fsError(err error, msg, path string) error {
	return errors.WrapError(err, errors.CategoryFileSystem, msg).WithContext("path", path).Build()
}

func manifestID(pb *bundle.PageBundle) string {
	if pb.Manifest == nil {
		return ""
	}
	return pb.Manifest.ID()
}

func errorMessage(err error) string {
	if c, ok := errors.AsClassified(err); ok && c.Cause() != nil {
		return c.Cause().Error()
	}
	return err.Error()
}

func trimSlashes(s string) string {
	return strings.Trim(s, "/")
}

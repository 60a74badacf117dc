package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/iiifworks/internal/build"
	"git.home.luguber.info/inful/iiifworks/internal/config"
	"git.home.luguber.info/inful/iiifworks/internal/content"
	"git.home.luguber.info/inful/iiifworks/internal/iiif"
	"git.home.luguber.info/inful/iiifworks/internal/index"
	"git.home.luguber.info/inful/iiifworks/internal/related"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"iiifworks.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Resolve every works page and write its bundle"`
	Paths   PathsCmd   `cmd:"" help:"List the slugs of all works pages"`
	Resolve ResolveCmd `cmd:"" help:"Resolve a single works page and print its bundle"`
	History HistoryCmd `cmd:"" help:"Show recent builds recorded in the ledger"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	if g != nil {
		g.Logger = logger
	}
	return nil
}

// newBuilder wires the pipeline from configuration. seed overrides
// build.seed when non-zero.
func newBuilder(cfg *config.Config, logger *slog.Logger, seed uint64) (*build.Builder, error) {
	store, err := index.LoadFiles(cfg.Index.Manifests, cfg.Index.Facets)
	if err != nil {
		return nil, err
	}

	fetcher := iiif.NewHTTPFetcher(
		iiif.WithTimeout(cfg.FetchTimeout()),
		iiif.WithUserAgent(cfg.Fetch.UserAgent),
		iiif.WithRateLimit(cfg.Fetch.RatePerSecond, cfg.Fetch.Burst),
	)

	if seed == 0 {
		seed = cfg.Build.Seed
	}
	sampler := related.New(nil)
	if seed != 0 {
		sampler = related.NewSeeded(seed)
	}

	settings := build.Settings{
		BaseURL:     cfg.BaseURL(),
		SourceDirs:  cfg.Content.SourceDirs,
		OverlaySlug: cfg.Content.OverlaySlug,
		OverlayDir:  cfg.Content.OverlayDir,
		PagePrefix:  cfg.Build.PagePrefix,
	}

	// Source dirs are project relative; the overlay dir is relative to the content root.
	b := build.NewBuilder(store, fetcher, settings).
		WithLogger(logger).
		WithSampler(sampler).
		WithFinder(content.NewFSFinder(".", logger)).
		WithOverlayLoader(content.NewFSOverlayLoader(cfg.Content.Root, logger))

	logger.Debug("Pipeline configured",
		slog.String("base_url", settings.BaseURL),
		slog.Int("pages", store.Len()),
		slog.Int("facets", len(store.Facets())))
	return b, nil
}

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/iiifworks/internal/build"
	"git.home.luguber.info/inful/iiifworks/internal/config"
	"git.home.luguber.info/inful/iiifworks/internal/eventstore"
	"git.home.luguber.info/inful/iiifworks/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output      string `short:"o" help:"Output directory (overrides build.output)"`
	Concurrency int    `short:"j" help:"Pages resolved in parallel (overrides build.concurrency)"`
	Compress    bool   `help:"Write gzip compressed bundles"`
	Seed        uint64 `help:"Seed for related facet sampling; 0 uses build.seed or system entropy"`
	Ledger      string `help:"SQLite build ledger path (overrides build.ledger)"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	b.applyOverrides(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	report, err := RunBuild(ctx, cfg, g.Logger, b.Seed)
	if report != nil {
		fmt.Printf("Build %s: %d built, %d not found, %d soft failures in %s\n",
			report.Status, report.Built, report.NotFound, report.SoftFailures, report.Duration.Round(1e6))
	}
	return err
}

func (b *BuildCmd) applyOverrides(cfg *config.Config) {
	if b.Output != "" {
		cfg.Build.Output = b.Output
	}
	if b.Concurrency > 0 {
		cfg.Build.Concurrency = b.Concurrency
	}
	if b.Compress {
		cfg.Build.Compress = true
	}
	if b.Ledger != "" {
		cfg.Build.Ledger = b.Ledger
	}
}

// RunBuild wires the pipeline from cfg and runs a full build.
func RunBuild(ctx context.Context, cfg *config.Config, logger *slog.Logger, seed uint64) (*build.Report, error) {
	if logger == nil {
		logger = slog.Default()
	}
	builder, err := newBuilder(cfg, logger, seed)
	if err != nil {
		return nil, err
	}

	var reg *prom.Registry
	if cfg.Metrics.Textfile != "" {
		reg = prom.NewRegistry()
		builder.WithRecorder(metrics.NewPrometheusRecorder(reg))
	}

	if cfg.Build.Ledger != "" {
		store, err := eventstore.NewSQLiteStore(cfg.Build.Ledger)
		if err != nil {
			return nil, err
		}
		defer func() {
			if cerr := store.Close(); cerr != nil {
				logger.Warn("Failed to close build ledger", slog.Any("error", cerr))
			}
		}()
		builder.WithLedger(eventstore.NewLedger(store))
	}

	report, runErr := builder.Run(ctx, build.RunOptions{
		OutputDir:   cfg.Build.Output,
		Concurrency: cfg.Build.Concurrency,
		Compress:    cfg.Build.Compress,
	})

	if reg != nil {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile, reg); err != nil {
			logger.Warn("Failed to write metrics textfile", slog.Any("error", err))
		}
	}
	return report, runErr
}

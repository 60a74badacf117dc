package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/iiifworks/internal/config"
	"git.home.luguber.info/inful/iiifworks/internal/eventstore"
	"git.home.luguber.info/inful/iiifworks/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Since  time.Duration `help:"Show builds started within this window" default:"168h"`
	Ledger string        `help:"SQLite build ledger path (overrides build.ledger)"`
	Slug   string        `help:"Show the recorded outcomes of one work instead of build summaries"`
	Limit  int           `help:"Maximum number of page outcomes with --slug" default:"20"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	path := cfg.Build.Ledger
	if h.Ledger != "" {
		path = h.Ledger
	}
	if path == "" {
		return errors.ValidationError("no build ledger configured (set build.ledger or --ledger)").Build()
	}

	store, err := eventstore.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	if h.Slug != "" {
		records, err := eventstore.PageHistory(ctx, store, h.Slug, h.Limit)
		if err != nil {
			return err
		}
		return writePageHistory(os.Stdout, records)
	}

	summaries, err := eventstore.History(ctx, store, time.Now().Add(-h.Since))
	if err != nil {
		return err
	}
	return writeHistory(os.Stdout, summaries)
}

func writeHistory(w io.Writer, summaries []*eventstore.BuildSummary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "BUILD\tSTARTED\tSTATUS\tPAGES\tBUILT\tNOT FOUND\tSOFT FAILURES\tDURATION")
	for _, s := range summaries {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			s.BuildID,
			s.StartedAt.Format(time.RFC3339),
			s.Status,
			s.Pages,
			len(s.Built),
			len(s.NotFound),
			len(s.SoftFailures),
			s.Duration,
		)
	}
	return tw.Flush()
}

func writePageHistory(w io.Writer, records []eventstore.PageRecord) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "BUILD\tAT\tOUTCOME\tDETAIL")
	for _, r := range records {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.BuildID, r.At.Format(time.RFC3339), r.Outcome, r.Detail)
	}
	return tw.Flush()
}

package commands

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"git.home.luguber.info/inful/iiifworks/internal/bundle"
	"git.home.luguber.info/inful/iiifworks/internal/config"
)

// ResolveCmd implements the 'resolve' command.
type ResolveCmd struct {
	Slug  string `arg:"" help:"Slug of the works page"`
	Slots bool   `help:"Include the resolved render slot props"`
	Seed  uint64 `help:"Seed for related facet sampling"`
}

func (r *ResolveCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	builder, err := newBuilder(cfg, g.Logger, r.Seed)
	if err != nil {
		return err
	}
	pb, err := builder.ResolvePage(context.Background(), r.Slug)
	if err != nil {
		return err
	}
	return writeResolved(os.Stdout, pb, r.Slots)
}

type resolvedPage struct {
	*bundle.PageBundle
	Slots map[bundle.SlotName]bundle.SlotProps `json:"slots,omitempty"`
}

func writeResolved(w io.Writer, pb *bundle.PageBundle, withSlots bool) error {
	out := resolvedPage{PageBundle: pb}
	if withSlots {
		out.Slots = bundle.DefaultRegistry().Resolve(pb)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

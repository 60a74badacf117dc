package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"git.home.luguber.info/inful/iiifworks/internal/config"
	"git.home.luguber.info/inful/iiifworks/internal/index"
)

// PathsCmd implements the 'paths' command.
type PathsCmd struct {
	JSON bool `help:"Print the paths as a JSON array of {slug} objects"`
}

func (p *PathsCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	store, err := index.LoadFiles(cfg.Index.Manifests, cfg.Index.Facets)
	if err != nil {
		return err
	}
	return writePaths(os.Stdout, store.Paths(), p.JSON)
}

func writePaths(w io.Writer, paths []index.Path, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(paths)
	}
	for _, p := range paths {
		if _, err := fmt.Fprintln(w, p.Slug); err != nil {
			return err
		}
	}
	return nil
}

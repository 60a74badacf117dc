package index

import (
	"encoding/json"
	"os"

	"git.home.luguber.info/inful/iiifworks/internal/foundation/errors"
)

// LoadFiles reads the manifest and facet artifacts and builds a Store.
func LoadFiles(manifestsPath, facetsPath string) (*Store, error) {
	var entries []ManifestEntry
	if err := readJSON(manifestsPath, &entries); err != nil {
		return nil, err
	}
	var facets []Facet
	if err := readJSON(facetsPath, &facets); err != nil {
		return nil, err
	}
	return New(entries, facets)
}

func readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WrapError(err, errors.CategoryIndex, "failed to read index artifact").
			Fatal().
			WithContext("path", path).
			Build()
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.WrapError(err, errors.CategoryIndex, "malformed index artifact").
			Fatal().
			WithContext("path", path).
			Build()
	}
	return nil
}

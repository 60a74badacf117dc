package config

import "time"

const (
	DefaultManifestsPath = ".canopy/manifests.json"
	DefaultFacetsPath    = ".canopy/facets.json"
	DefaultContentRoot   = "content"
	DefaultOverlayDir    = "works"
	DefaultOverlaySlug   = "_layout"
	DefaultUserAgent     = "iiifworks/1.0"
	DefaultOutputDir     = "out"
	DefaultConcurrency   = 8
	DefaultPagePrefix    = "/works"
	DefaultFetchTimeout  = 30 * time.Second
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

type indexDefaults struct{}

func (indexDefaults) Domain() string { return "index" }

func (indexDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Index.Manifests == "" {
		cfg.Index.Manifests = DefaultManifestsPath
	}
	if cfg.Index.Facets == "" {
		cfg.Index.Facets = DefaultFacetsPath
	}
	return nil
}

type contentDefaults struct{}

func (contentDefaults) Domain() string { return "content" }

func (contentDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Content.Root == "" {
		cfg.Content.Root = DefaultContentRoot
	}
	if len(cfg.Content.SourceDirs) == 0 {
		cfg.Content.SourceDirs = []string{cfg.Content.Root}
	}
	if cfg.Content.OverlayDir == "" {
		cfg.Content.OverlayDir = DefaultOverlayDir
	}
	if cfg.Content.OverlaySlug == "" {
		cfg.Content.OverlaySlug = DefaultOverlaySlug
	}
	return nil
}

type fetchDefaults struct{}

func (fetchDefaults) Domain() string { return "fetch" }

func (fetchDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Fetch.Timeout == "" {
		cfg.Fetch.Timeout = DefaultFetchTimeout.String()
	}
	if cfg.Fetch.UserAgent == "" {
		cfg.Fetch.UserAgent = DefaultUserAgent
	}
	if cfg.Fetch.RatePerSecond > 0 && cfg.Fetch.Burst <= 0 {
		cfg.Fetch.Burst = 1
	}
	return nil
}

type buildDefaults struct{}

func (buildDefaults) Domain() string { return "build" }

func (buildDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Build.Output == "" {
		cfg.Build.Output = DefaultOutputDir
	}
	if cfg.Build.Concurrency <= 0 {
		cfg.Build.Concurrency = DefaultConcurrency
	}
	if cfg.Build.PagePrefix == "" {
		cfg.Build.PagePrefix = DefaultPagePrefix
	}
	return nil
}

// ApplyDefaults fills in unset fields domain by domain.
func ApplyDefaults(cfg *Config) error {
	appliers := []DefaultApplier{indexDefaults{}, contentDefaults{}, fetchDefaults{}, buildDefaults{}}
	for _, a := range appliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}

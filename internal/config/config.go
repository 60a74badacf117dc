package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/iiifworks/internal/foundation/errors"
)

// Config represents the works builder configuration.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Index   IndexConfig   `yaml:"index"`
	Content ContentConfig `yaml:"content"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Build   BuildConfig   `yaml:"build"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// SiteConfig holds the public location of the generated site.
type SiteConfig struct {
	URL      string `yaml:"url"`
	BasePath string `yaml:"base_path,omitempty"`
}

// IndexConfig points at the precomputed manifest and facet artifacts.
type IndexConfig struct {
	Manifests string `yaml:"manifests"`
	Facets    string `yaml:"facets"`
}

// ContentConfig locates the markdown content tree.
type ContentConfig struct {
	Root        string   `yaml:"root"`
	SourceDirs  []string `yaml:"source_dirs,omitempty"`
	OverlayDir  string   `yaml:"overlay_dir"`
	OverlaySlug string   `yaml:"overlay_slug"`
}

// FetchConfig controls the manifest HTTP client.
type FetchConfig struct {
	Timeout       string  `yaml:"timeout"`
	RatePerSecond float64 `yaml:"rate_per_second,omitempty"`
	Burst         int     `yaml:"burst,omitempty"`
	UserAgent     string  `yaml:"user_agent"`
}

// BuildConfig controls the batch build.
type BuildConfig struct {
	Output      string `yaml:"output"`
	Concurrency int    `yaml:"concurrency"`
	Compress    bool   `yaml:"compress,omitempty"`
	Ledger      string `yaml:"ledger,omitempty"`
	PagePrefix  string `yaml:"page_prefix"`
	// Seed makes related facet sampling reproducible when non-zero.
	Seed uint64 `yaml:"seed,omitempty"`
}

// MetricsConfig controls Prometheus textfile output.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// BaseURL combines the site URL and optional base path into the prefix used
// for related-content URLs.
func (c *Config) BaseURL() string {
	url := strings.TrimSuffix(c.Site.URL, "/")
	if c.Site.BasePath == "" {
		return url
	}
	return url + "/" + strings.Trim(c.Site.BasePath, "/")
}

// FetchTimeout returns the parsed manifest fetch timeout.
func (c *Config) FetchTimeout() time.Duration {
	d, err := time.ParseDuration(c.Fetch.Timeout)
	if err != nil {
		return DefaultFetchTimeout
	}
	return d
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		// Don't fail if .env doesn't exist, just note it
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			Fatal().
			WithContext("path", configPath).
			Build()
	}

	return Parse(data)
}

// Parse decodes YAML configuration, expanding ${VAR} references, then applies
// defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Fatal().Build()
	}

	if err := ApplyDefaults(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	example := Config{
		Site:  SiteConfig{URL: "https://collections.example.org"},
		Index: IndexConfig{Manifests: DefaultManifestsPath, Facets: DefaultFacetsPath},
		Content: ContentConfig{
			Root:        DefaultContentRoot,
			SourceDirs:  []string{DefaultContentRoot},
			OverlayDir:  DefaultOverlayDir,
			OverlaySlug: DefaultOverlaySlug,
		},
		Fetch: FetchConfig{Timeout: "30s", RatePerSecond: 10, Burst: 5, UserAgent: DefaultUserAgent},
		Build: BuildConfig{Output: DefaultOutputDir, Concurrency: DefaultConcurrency, PagePrefix: DefaultPagePrefix},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			Fatal().
			WithContext("path", configPath).
			Build()
	}
	return nil
}

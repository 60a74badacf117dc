package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/iiifworks/internal/foundation/errors"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("site:\n  url: https://example.org\n"))
	require.NoError(t, err)

	assert.Equal(t, DefaultManifestsPath, cfg.Index.Manifests)
	assert.Equal(t, DefaultFacetsPath, cfg.Index.Facets)
	assert.Equal(t, DefaultContentRoot, cfg.Content.Root)
	assert.Equal(t, []string{DefaultContentRoot}, cfg.Content.SourceDirs)
	assert.Equal(t, DefaultOverlayDir, cfg.Content.OverlayDir)
	assert.Equal(t, DefaultOverlaySlug, cfg.Content.OverlaySlug)
	assert.Equal(t, DefaultOutputDir, cfg.Build.Output)
	assert.Equal(t, DefaultConcurrency, cfg.Build.Concurrency)
	assert.Equal(t, DefaultPagePrefix, cfg.Build.PagePrefix)
	assert.Equal(t, DefaultFetchTimeout, cfg.FetchTimeout())
	assert.Equal(t, DefaultUserAgent, cfg.Fetch.UserAgent)
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		site     SiteConfig
		expected string
	}{
		{"url only", SiteConfig{URL: "https://example.org"}, "https://example.org"},
		{"trailing slash", SiteConfig{URL: "https://example.org/"}, "https://example.org"},
		{"with base path", SiteConfig{URL: "https://example.org", BasePath: "/canopy"}, "https://example.org/canopy"},
		{"base path trailing slash", SiteConfig{URL: "https://example.org", BasePath: "/canopy/"}, "https://example.org/canopy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Site: tt.site}
			assert.Equal(t, tt.expected, cfg.BaseURL())
		})
	}
}

func TestParseExpandsEnvironment(t *testing.T) {
	t.Setenv("IIIFWORKS_TEST_URL", "https://env.example.org")

	cfg, err := Parse([]byte("site:\n  url: ${IIIFWORKS_TEST_URL}\nfetch:\n  timeout: 5s\n  rate_per_second: 2\n"))
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.org", cfg.Site.URL)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout())
	assert.Equal(t, 1, cfg.Fetch.Burst)
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing url", "site: {}\n"},
		{"relative url", "site:\n  url: example.org\n"},
		{"bad base path", "site:\n  url: https://example.org\n  base_path: canopy\n"},
		{"bad timeout", "site:\n  url: https://example.org\nfetch:\n  timeout: soon\n"},
		{"negative rate", "site:\n  url: https://example.org\nfetch:\n  rate_per_second: -1\n"},
		{"bad page prefix", "site:\n  url: https://example.org\nbuild:\n  page_prefix: works\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, errors.CategoryValidation), "got %v", err)
		})
	}
}

func TestParseMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("site: [unclosed"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestInitRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, Init(path, false))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://collections.example.org", cfg.Site.URL)
	assert.Equal(t, 10.0, cfg.Fetch.RatePerSecond)

	err = Init(path, false)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))

	require.NoError(t, Init(path, true))
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	assert.Error(t, loadEnvFile())

	require.NoError(t, os.WriteFile(".env", []byte("IIIFWORKS_DOTENV_PROBE=from-dotenv\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("IIIFWORKS_DOTENV_PROBE") })
	require.NoError(t, loadEnvFile())
	assert.Equal(t, "from-dotenv", os.Getenv("IIIFWORKS_DOTENV_PROBE"))
}

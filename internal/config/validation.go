package config

import (
	"net/url"
	"strings"
	"time"

	"git.home.luguber.info/inful/iiifworks/internal/foundation/errors"
)

// ValidateConfig validates the configuration after defaults were applied.
func ValidateConfig(cfg *Config) error {
	cv := &configurationValidator{config: cfg}
	return cv.validate()
}

type configurationValidator struct {
	config *Config
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateSite(); err != nil {
		return err
	}
	if err := cv.validateFetch(); err != nil {
		return err
	}
	return cv.validateBuild()
}

func (cv *configurationValidator) validateSite() error {
	site := cv.config.Site
	if site.URL == "" {
		return errors.ValidationError("site.url is required").Build()
	}
	u, err := url.Parse(site.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.ValidationError("site.url must be an absolute URL").
			WithContext("url", site.URL).
			Build()
	}
	if site.BasePath != "" && !strings.HasPrefix(site.BasePath, "/") {
		return errors.ValidationError("site.base_path must start with /").
			WithContext("base_path", site.BasePath).
			Build()
	}
	return nil
}

func (cv *configurationValidator) validateFetch() error {
	d, err := time.ParseDuration(cv.config.Fetch.Timeout)
	if err != nil {
		return errors.ValidationError("fetch.timeout is not a duration").
			WithCause(err).
			WithContext("timeout", cv.config.Fetch.Timeout).
			Build()
	}
	if d <= 0 {
		return errors.ValidationError("fetch.timeout must be positive").Build()
	}
	if cv.config.Fetch.RatePerSecond < 0 {
		return errors.ValidationError("fetch.rate_per_second cannot be negative").Build()
	}
	return nil
}

func (cv *configurationValidator) validateBuild() error {
	if !strings.HasPrefix(cv.config.Build.PagePrefix, "/") {
		return errors.ValidationError("build.page_prefix must start with /").
			WithContext("page_prefix", cv.config.Build.PagePrefix).
			Build()
	}
	return nil
}

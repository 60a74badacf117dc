package iiif

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"git.home.luguber.info/inful/iiifworks/internal/foundation/errors"
)

// Fetcher retrieves a manifest document by id.
type Fetcher interface {
	Fetch(ctx context.Context, id string) (*Manifest, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, id string) (*Manifest, error)

func (f FetcherFunc) Fetch(ctx context.Context, id string) (*Manifest, error) { return f(ctx, id) }

const (
	acceptHeader = `application/ld+json;profile="http://iiif.io/api/presentation/3/context.json", application/json;q=0.9`
	maxBodyBytes = 32 << 20
)

// HTTPFetcher fetches manifests over HTTP. It makes a single attempt per
// call; retry policy belongs to the caller.
type HTTPFetcher struct {
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(f *HTTPFetcher) { f.httpClient = c }
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) HTTPOption {
	return func(f *HTTPFetcher) { f.httpClient.Timeout = d }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) HTTPOption {
	return func(f *HTTPFetcher) { f.userAgent = ua }
}

// WithRateLimit caps requests per second across all callers. perSecond <= 0
// disables limiting.
func WithRateLimit(perSecond float64, burst int) HTTPOption {
	return func(f *HTTPFetcher) {
		if perSecond <= 0 {
			f.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewHTTPFetcher creates a manifest fetcher.
func NewHTTPFetcher(opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  "iiifworks/1.0",
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, id string) (*Manifest, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, errors.WrapError(err, errors.CategoryNetwork, "rate limiter wait aborted").
				WithContext("manifest_id", id).
				Build()
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, id, http.NoBody)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryManifest, "invalid manifest id").
			WithContext("manifest_id", id).
			Build()
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, errors.NetworkError("failed to execute manifest request").
			WithCause(err).
			WithContext("manifest_id", id).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		limitedBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		bodyStr := strings.ReplaceAll(string(limitedBody), "\n", " ")

		category := errors.CategoryNetwork
		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
			category = errors.CategoryNotFound
		}
		b := errors.NewError(category, fmt.Sprintf("manifest request failed: %s", resp.Status)).
			WithContext("manifest_id", id).
			WithContext("code", resp.StatusCode).
			WithContext("response", bodyStr)
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			b = b.WithContext("retry_after", ra)
		}
		return nil, b.Build()
	}

	var m Manifest
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&m); err != nil {
		return nil, errors.WrapError(err, errors.CategoryManifest, "failed to decode manifest").
			WithContext("manifest_id", id).
			Build()
	}
	if m.ID() == "" {
		return nil, errors.ManifestError("manifest has no id").
			WithContext("manifest_id", id).
			Build()
	}
	return &m, nil
}

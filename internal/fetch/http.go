// Package fetch retrieves source pages and documents for the calendar
// providers.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	appLog "hijrical/internal/log"
	"hijrical/internal/metrics"
	"hijrical/internal/model"
)

const (
	DefaultTimeout   = 15 * time.Second
	DefaultUserAgent = "hijrical/1.0 (+https://github.com/hijrical)"
	maxBodyBytes     = 32 << 20
)

// Getter fetches the body at a URL.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Result contains the outcome of fetching a single URL.
type Result struct {
	URL       string
	Body      []byte // payload (either freshly fetched or from cache)
	FromCache bool   // true if the cached body was used
}

// cacheEntry holds HTTP cache metadata for a single URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Options configures an HTTP fetcher.
type Options struct {
	// CacheDir holds per-URL cache subdirectories. Empty disables caching.
	CacheDir string
	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration
	// RequestsPerSecond limits the request rate across all URLs.
	// Zero or less means unlimited.
	RequestsPerSecond float64
	// UserAgent defaults to DefaultUserAgent.
	UserAgent string
	Metrics   *metrics.Metrics
}

// HTTP fetches URLs with conditional requests (ETag / Last-Modified)
// against a disk-backed cache, and falls back to the cached body when the
// network or the server fails.
type HTTP struct {
	client    *http.Client
	cacheDir  string
	limiter   *rate.Limiter
	userAgent string
	metrics   *metrics.Metrics
}

// NewHTTP creates an HTTP fetcher.
func NewHTTP(opts Options) *HTTP {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return &HTTP{
		client:    &http.Client{Timeout: opts.Timeout},
		cacheDir:  opts.CacheDir,
		limiter:   limiter,
		userAgent: opts.UserAgent,
		metrics:   opts.Metrics,
	}
}

// Get implements Getter.
func (f *HTTP) Get(ctx context.Context, rawURL string) ([]byte, error) {
	res, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return res.Body, nil
}

// Fetch fetches a single URL, honoring ETag and Last-Modified. Any 2xx
// status is fresh content; other statuses fail with a
// *model.ResponseError unless a cached body exists.
func (f *HTTP) Fetch(ctx context.Context, rawURL string) (Result, error) {
	if rawURL == "" {
		return Result{}, errors.New("fetch: URL is empty")
	}
	host := hostOf(rawURL)

	var (
		cachePath  string
		meta       cacheEntry
		cachedBody []byte
	)
	if f.cacheDir != "" {
		cachePath = f.cachePathForURL(rawURL)
		if err := os.MkdirAll(cachePath, 0o700); err != nil {
			return Result{}, fmt.Errorf("fetch: create cache dir: %w", err)
		}
		meta, _ = f.loadCacheMeta(cachePath)
		cachedBody, _ = f.loadCacheBody(cachePath)
	}

	fallback := func(cause error, msg string) (Result, error) {
		if len(cachedBody) > 0 {
			appLog.Error(msg+", using cached body", cause, "url", redactURL(rawURL))
			f.metrics.ObserveFetch(host, metrics.FetchCacheFallback)
			return Result{URL: rawURL, Body: cachedBody, FromCache: true}, nil
		}
		f.metrics.ObserveFetch(host, metrics.FetchError)
		return Result{}, cause
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return Result{}, fmt.Errorf("fetch: rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("fetch: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	if len(cachedBody) > 0 {
		// Conditional headers only make sense when a body can be reused.
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	appLog.Debug("fetch start", "url", redactURL(rawURL))

	resp, err := f.client.Do(req)
	if err != nil {
		return fallback(fmt.Errorf("fetch %s: %w", redactURL(rawURL), err), "fetch network error")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if readErr != nil {
			return fallback(fmt.Errorf("fetch %s: read body: %w", redactURL(rawURL), readErr), "fetch read error")
		}

		if cachePath != "" {
			newMeta := cacheEntry{
				URL:          rawURL,
				ETag:         resp.Header.Get("ETag"),
				LastModified: resp.Header.Get("Last-Modified"),
			}
			if err := f.saveCache(cachePath, newMeta, body); err != nil {
				// Log but still return the freshly fetched body.
				appLog.Error("fetch cache save failed", err, "url", redactURL(rawURL))
			}
		}

		appLog.Info("fetch success", "url", redactURL(rawURL), "status", resp.StatusCode, "bytes", len(body))
		f.metrics.ObserveFetch(host, metrics.FetchFresh)
		return Result{URL: rawURL, Body: body}, nil

	case resp.StatusCode == http.StatusNotModified && len(cachedBody) > 0:
		appLog.Info("fetch not modified; using cache", "url", redactURL(rawURL))
		f.metrics.ObserveFetch(host, metrics.FetchNotModified)
		return Result{URL: rawURL, Body: cachedBody, FromCache: true}, nil

	default:
		return fallback(&model.ResponseError{
			URL:        redactURL(rawURL),
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}, "fetch non-OK")
	}
}

func (f *HTTP) cachePathForURL(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	// Use first 16 hex chars as directory name.
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func (f *HTTP) loadCacheMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

func (f *HTTP) loadCacheBody(cachePath string) ([]byte, error) {
	return os.ReadFile(filepath.Join(cachePath, "body"))
}

func (f *HTTP) saveCache(cachePath string, meta cacheEntry, body []byte) error {
	// Write body first so meta never points at missing body.
	if err := os.WriteFile(filepath.Join(cachePath, "body"), body, 0o600); err != nil {
		return err
	}

	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}

// redactURL keeps only scheme and host of a URL for logging, e.g.
// https://example.com/feed.json?token=abcd -> https://example.com/...(redacted)
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "url://...(redacted)"
	}
	if u.Path == "" && u.RawQuery == "" {
		return u.Scheme + "://" + u.Host
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}

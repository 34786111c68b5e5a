package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hijrical/internal/metrics"
	"hijrical/internal/model"
)

func TestFetchCachesAndRevalidates(t *testing.T) {
	var hits, conditional atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			conditional.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte("Ramadan 1 1447 = February 18, 2026"))
	}))
	defer srv.Close()

	m := metrics.New()
	f := NewHTTP(Options{CacheDir: t.TempDir(), Metrics: m})

	res, err := f.Fetch(context.Background(), srv.URL+"/calendar")
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, "Ramadan 1 1447 = February 18, 2026", string(res.Body))

	res, err = f.Fetch(context.Background(), srv.URL+"/calendar")
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, "Ramadan 1 1447 = February 18, 2026", string(res.Body))

	assert.EqualValues(t, 2, hits.Load())
	assert.EqualValues(t, 1, conditional.Load())

	// one fresh and one not_modified series
	n, err := testutil.GatherAndCount(m.Registry(), "hijrical_fetch_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestFetchFallsBackToCache(t *testing.T) {
	fail := atomic.Bool{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("cached page"))
	}))
	defer srv.Close()

	f := NewHTTP(Options{CacheDir: t.TempDir()})
	_, err := f.Get(context.Background(), srv.URL)
	require.NoError(t, err)

	fail.Store(true)
	body, err := f.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "cached page", string(body))
}

func TestFetchNonOKWithoutCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewHTTP(Options{})
	_, err := f.Get(context.Background(), srv.URL+"/feed.json?token=secret")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidResponse))

	var re *model.ResponseError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusNotFound, re.StatusCode)
	assert.NotContains(t, re.URL, "secret")
}

func TestFetchAcceptsAny2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	body, err := NewHTTP(Options{}).Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
}

func TestFetchSendsUserAgent(t *testing.T) {
	var ua atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua.Store(r.UserAgent())
	}))
	defer srv.Close()

	_, err := NewHTTP(Options{UserAgent: "test-agent"}).Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "test-agent", ua.Load())
}

func TestFetchEmptyURL(t *testing.T) {
	_, err := NewHTTP(Options{}).Get(context.Background(), "")
	assert.Error(t, err)
}

func TestRedactURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://example.com/feed.json?token=abcd", "https://example.com/...(redacted)"},
		{"https://example.com", "https://example.com"},
		{"not a url", "url://...(redacted)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, redactURL(tt.in), tt.in)
	}
}

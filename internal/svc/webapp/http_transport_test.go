package webapp_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/underwritepro/internal/infra/metrics"
	"github.com/mkrupp/underwritepro/internal/svc/webapp"
)

const indexHTML = `<!doctype html><div id="root"></div>`

func newTransport(t *testing.T) *webapp.HTTPTransport {
	t.Helper()

	modTime := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	dist := fstest.MapFS{
		"index.html":         {Data: []byte(indexHTML), ModTime: modTime},
		"favicon.ico":        {Data: []byte("ico"), ModTime: modTime},
		"assets/index-a1.js": {Data: []byte("console.log(1)"), ModTime: modTime},
		"assets/style.css":   {Data: []byte("body{}"), ModTime: modTime},
		"robots.txt":         {Data: []byte("User-agent: *"), ModTime: modTime},
	}

	reg := prometheus.NewRegistry()

	return webapp.NewHTTPTransport(dist, reg, metrics.NewWebMetrics(reg), webapp.HTTPTransportConfig{
		IndexFile:   "index.html",
		CacheMaxAge: 24 * time.Hour,
	})
}

func get(t *testing.T, handler http.Handler, target string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func TestServesAssetsWithCaching(t *testing.T) {
	t.Parallel()

	ht := newTransport(t)

	rec := get(t, ht, "/assets/index-a1.js", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "console.log(1)", rec.Body.String())
	assert.Equal(t, "public, max-age=86400", rec.Header().Get("Cache-Control"))

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	rec = get(t, ht, "/assets/index-a1.js", map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, rec.Code)
}

func TestClientRoutesGetIndex(t *testing.T) {
	t.Parallel()

	ht := newTransport(t)

	for _, target := range []string{"/", "/login", "/loans/new", "/dashboard?tab=1", "/assets"} {
		rec := get(t, ht, target, nil)
		assert.Equal(t, http.StatusOK, rec.Code, target)
		assert.Equal(t, indexHTML, rec.Body.String(), target)
		assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"), target)
	}
}

func TestMissingAssetsAre404(t *testing.T) {
	t.Parallel()

	ht := newTransport(t)

	for _, target := range []string{"/assets/missing.png", "/main.js", "/theme.css", "/apple-touch.ico"} {
		rec := get(t, ht, target, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
	}
}

func TestOtherExistingFilesAreServed(t *testing.T) {
	t.Parallel()

	rec := get(t, newTransport(t), "/robots.txt", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User-agent: *", rec.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	ht := newTransport(t)

	rec := get(t, ht, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())

	get(t, ht, "/login", nil)

	rec = get(t, ht, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `underwritepro_webapp_responses_total{kind="index"} 1`)
}

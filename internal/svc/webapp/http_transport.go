// Package webapp serves the built single-page application: static assets with
// caching headers and index.html for every client-side route.
package webapp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mkrupp/underwritepro/internal/infra/logging"
	"github.com/mkrupp/underwritepro/internal/infra/metrics"
	http_ "github.com/mkrupp/underwritepro/internal/infra/transport/http"
)

// Response kinds recorded in the metrics.
const (
	KindAsset    = "asset"
	KindIndex    = "index"
	KindNotFound = "not_found"
)

// HTTPTransportConfig contains configuration parameters of the web server.
type HTTPTransportConfig struct {
	http_.HTTPTransportConfig

	// DistDir is the directory holding the built application
	DistDir string `env:"DIST_DIR" default:"dist"`

	// IndexFile is served for every path that is not a file
	IndexFile string `env:"INDEX_FILE" default:"index.html"`

	// CacheMaxAge is the max-age of static assets
	CacheMaxAge time.Duration `env:"CACHE_MAX_AGE" default:"24h"`
}

// HTTPTransport serves the application bundle.
type HTTPTransport struct {
	dist     fs.FS
	gatherer prometheus.Gatherer
	metrics  *metrics.WebMetrics
	log      logging.Logger
	cfg      HTTPTransportConfig
	mux      *http.ServeMux
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates an HTTPTransport over dist. gatherer backs /metrics and
// may be nil to disable the endpoint; m may be nil.
func NewHTTPTransport(
	dist fs.FS,
	gatherer prometheus.Gatherer,
	m *metrics.WebMetrics,
	cfg HTTPTransportConfig,
) *HTTPTransport {
	if cfg.IndexFile == "" {
		cfg.IndexFile = "index.html"
	}

	ht := &HTTPTransport{
		dist:     dist,
		gatherer: gatherer,
		metrics:  m,
		log:      logging.GetLogger("svc.webapp.http_transport"),
		cfg:      cfg,
		mux:      http.NewServeMux(),
	}

	ht.mux.HandleFunc("GET /healthz", ht.HandleHealth)

	if gatherer != nil {
		ht.mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	ht.mux.HandleFunc("GET /", ht.HandleStatic)

	return ht
}

// ServeHTTP implements http.Handler:
// - GET /healthz: liveness probe
// - GET /metrics: Prometheus metrics
// - GET /*: static file or the application index.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.mux.ServeHTTP(w, r)
}

// HandleHealth answers the liveness probe.
func (ht *HTTPTransport) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

// HandleStatic serves an existing file with caching headers. Missing asset paths
// answer 404; any other path gets the index so the client-side router can handle it.
func (ht *HTTPTransport) HandleStatic(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")

	if name != "" && name != ht.cfg.IndexFile {
		err := ht.serveFile(w, r, name, true)
		if err == nil {
			ht.metrics.ObserveResponse(KindAsset)

			return
		}

		if !errors.Is(err, fs.ErrNotExist) {
			ht.log.ErrorContext(r.Context(), "serve file failed", "name", name, logging.Err(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

			return
		}

		if isAssetPath(name) {
			ht.metrics.ObserveResponse(KindNotFound)
			http.NotFound(w, r)

			return
		}
	}

	if err := ht.serveFile(w, r, ht.cfg.IndexFile, false); err != nil {
		ht.log.ErrorContext(r.Context(), "serve index failed", logging.Err(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return
	}

	ht.metrics.ObserveResponse(KindIndex)
}

func (ht *HTTPTransport) serveFile(w http.ResponseWriter, r *http.Request, name string, cacheable bool) error {
	if !fs.ValidPath(name) {
		return fs.ErrNotExist
	}

	info, err := fs.Stat(ht.dist, name)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}

	if info.IsDir() {
		return fs.ErrNotExist
	}

	file, err := ht.dist.Open(name)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer file.Close()

	content, ok := file.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(file)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		content = bytes.NewReader(data)
	}

	if cacheable {
		w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(int(ht.cfg.CacheMaxAge.Seconds())))
		w.Header().Set("ETag", etag(info))
	} else {
		w.Header().Set("Cache-Control", "no-cache")
	}

	http.ServeContent(w, r, name, info.ModTime(), content)

	return nil
}

// isAssetPath reports whether name looks like a bundle file rather than a route.
func isAssetPath(name string) bool {
	if strings.HasPrefix(name, "assets/") {
		return true
	}

	switch path.Ext(name) {
	case ".js", ".css", ".ico":
		return true
	}

	return false
}

func etag(info fs.FileInfo) string {
	return fmt.Sprintf(`W/"%x-%x"`, info.Size(), info.ModTime().UnixNano())
}

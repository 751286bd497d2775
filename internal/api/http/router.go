package apihttp

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hostledger/internal/auth"
)

// Routes is a group of /api/v1 endpoints.
type Routes interface {
	Register(r chi.Router)
}

// Options configures the router.
type Options struct {
	JWTSecret     []byte
	IngestSecret  []byte
	IngestMaxSkew time.Duration
	Logger        *log.Logger
	// Ready reports readiness on /healthz; nil means always ready.
	Ready func() error
}

// NewRouter assembles the public HTTP surface.
// ingest serves meter readings and is guarded by HMAC signatures, everything
// under /api/v1 requires a bearer token.
func NewRouter(opts Options, ingest http.Handler, api ...Routes) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, []string{"/ingest/"})
	authMiddleware := auth.NewMiddleware(opts.JWTSecret, policy)
	ingestAuth := auth.NewIngestAuthMiddleware(opts.IngestSecret, opts.IngestMaxSkew)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return loggingMiddleware(next, logger)
	})
	r.Use(authMiddleware.Wrap)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if opts.Ready != nil {
			if err := opts.Ready(); err != nil {
				logger.Printf("healthz: not ready err=%v", err)
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	if ingest != nil {
		r.Handle("/ingest/meter-readings", ingestAuth.Wrap(ingest))
	}
	r.Route("/api/v1", func(v1 chi.Router) {
		for _, routes := range api {
			if routes != nil {
				routes.Register(v1)
			}
		}
	})
	return r
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

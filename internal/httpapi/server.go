// Package httpapi mounts the engine behind the HTTP surface spec.md §6
// sketches: a client-facing job API and a worker-facing claim/submit/
// heartbeat API. It owns no state of its own beyond the *engine.Engine it
// was handed — every handler translates one HTTP request into one engine
// call and maps the typed result back to a status code and a JSON body.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Kumaragurubaran2005/Leaf-cloud/internal/engine"
)

// Server wires an *engine.Engine into net/http's pattern-matching
// ServeMux. It keeps the teacher's NewServer/Start shape (a thin struct
// plus a logging middleware wrapping the mux) generalized from a single
// scheduler dependency to the full client/worker route table.
type Server struct {
	engine *engine.Engine
	logger *slog.Logger

	maxUploadBytes int64
}

// defaultMaxUploadBytes bounds a multipart submission's in-memory part
// buffer; anything past it spills to temp files via the stdlib multipart
// reader, matching the teacher's preference for fixed, unsurprising
// resource ceilings.
const defaultMaxUploadBytes = 64 << 20

// NewServer constructs a Server. logger may be nil, in which case
// slog.Default() is used.
func NewServer(eng *engine.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine:         eng,
		logger:         logger.With("component", "httpapi"),
		maxUploadBytes: defaultMaxUploadBytes,
	}
}

// Routes builds the mux described in spec.md §6: client-facing job
// operations under /jobs, worker-facing claim/submit/heartbeat/poll
// operations under /workers.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /jobs", s.handleSubmitJob)
	mux.HandleFunc("GET /jobs/{customerId}/updates", s.handleUpdates)
	mux.HandleFunc("GET /jobs/{customerId}/status", s.handleStatus)
	mux.HandleFunc("POST /jobs/{customerId}/cancel", s.handleCancel)
	mux.HandleFunc("GET /jobs/{customerId}/download", s.handleDownload)

	mux.HandleFunc("POST /workers/claim", s.handleClaim)
	mux.HandleFunc("POST /workers/submit", s.handleSubmitResult)
	mux.HandleFunc("POST /workers/heartbeat", s.handleHeartbeat)
	mux.HandleFunc("GET /workers/cancelled/{customerId}", s.handleCancellationPoll)

	mux.HandleFunc("GET /health", s.handleHealth)

	return s.loggingMiddleware(mux)
}

// Start listens and serves on addr. Kept as a thin wrapper so cmd/gateway
// mirrors the teacher's server.Start() call site.
func (s *Server) Start(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	return http.ListenAndServe(addr, s.Routes())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// loggingMiddleware logs every request's method, path, and duration, in
// the teacher's [Gateway]-prefixed style generalized to structured slog
// fields.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr, "took", time.Since(start))
	})
}

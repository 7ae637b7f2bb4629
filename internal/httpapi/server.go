package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"servd/pkg/types"
)

// Service defines the supervisor methods required by the control API.
type Service interface {
	Ready() bool
	Snapshot() types.StatusResponse
}

// NewMux builds the control API router: /healthz, /status, /metrics.
// This surface observes the supervisor; it never proxies inference traffic,
// which goes straight to the worker's own API.
func NewMux(svc Service, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))
	r.Use(MetricsMiddleware)
	r.Use(requestLogger(log))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if !svc.Ready() {
			writeError(w, http.StatusServiceUnavailable, "supervisor not ready")
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, svc.Snapshot())
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, types.ErrorResponse{Error: msg, Code: code})
}

// requestLogger emits one structured line per request at debug level.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sr, r)
			log.Debug().Str("method", r.Method).Str("path", r.URL.Path).
				Int("status", sr.status).Msg("control request")
		})
	}
}

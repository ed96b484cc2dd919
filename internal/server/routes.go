package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/urfave/negroni"

	"github.com/joseph-ayodele/affidavit-tracker/internal/common"
)

// SetupRoutes registers the HTTP API on a fresh router.
func SetupRoutes(h *Handlers) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/extract", h.Extract).Methods(http.MethodPost)
	r.HandleFunc("/records", h.ListRecords).Methods(http.MethodGet)
	r.HandleFunc("/records/export", h.ExportRecords).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	return r
}

// SetupNegroni wraps the router with recovery, request IDs, CORS and access logging.
func SetupNegroni(r http.Handler, logger *slog.Logger) *negroni.Negroni {
	if logger == nil {
		logger = slog.Default()
	}
	n := negroni.New()
	n.Use(negroni.NewRecovery())
	n.Use(requestID())
	n.Use(cors())
	n.Use(accessLog(logger))
	n.UseHandler(r)
	return n
}

// requestID propagates X-Request-ID into the request context, minting one if absent.
func requestID() negroni.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		ctx := r.Context()
		if id := r.Header.Get("X-Request-ID"); id != "" {
			ctx = common.WithRequestID(ctx, id)
		}
		ctx, id := common.EnsureRequestID(ctx)
		w.Header().Set("X-Request-ID", id)
		next(w, r.WithContext(ctx))
	}
}

// cors allows any origin; preflight requests are answered directly.
func cors() negroni.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		hdr := w.Header()
		hdr.Set("Access-Control-Allow-Origin", "*")
		hdr.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		hdr.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		hdr.Set("Access-Control-Expose-Headers", "X-Request-ID, Content-Disposition")
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}

func accessLog(logger *slog.Logger) negroni.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		start := time.Now()
		next(w, r)
		status := http.StatusOK
		if rw, ok := w.(negroni.ResponseWriter); ok && rw.Status() != 0 {
			status = rw.Status()
		}
		logger.Info("http.request",
			"req_id", common.RequestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}

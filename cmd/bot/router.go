package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/scry-remind/internal/redact"
)

// readyTimeout bounds the database ping behind /readyz.
const readyTimeout = 2 * time.Second

// pinger is satisfied by *sql.DB.
type pinger interface {
	PingContext(ctx context.Context) error
}

// setupRouter creates the health router. /healthz reports that the process
// is up; /readyz also requires the database to answer.
func setupRouter(db pinger, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, logger, http.StatusOK, "OK")
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			logger.Warn("readiness check failed",
				slog.String("error", redact.Error(err)),
				slog.String("request_id", middleware.GetReqID(r.Context())))
			writeStatus(w, logger, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		writeStatus(w, logger, http.StatusOK, "OK")
	})

	return r
}

func writeStatus(w http.ResponseWriter, logger *slog.Logger, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		logger.Error("failed to write health response", slog.String("error", err.Error()))
	}
}

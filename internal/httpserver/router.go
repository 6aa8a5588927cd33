package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"metricsdash/internal/dashboard"
)

// NewRouter wires the dashboard routes. sessions attaches the browser's
// dashboard view to each request.
func NewRouter(
	logger *slog.Logger,
	h *dashboard.Handler,
	sessions func(http.Handler) http.Handler,
	loginRatePerMinute int,
) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger(logger))
	r.Use(Recoverer(logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(sessions)
		r.Get("/", h.Index)
		r.With(httprate.LimitByIP(loginRatePerMinute, time.Minute)).Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Get("/metrics", h.Metrics)
		r.Get("/metrics/table.json", h.TableJSON)
	})
	return r
}

package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/about-last-night/aln-backend/app/shared/attr"
	"github.com/about-last-night/aln-backend/app/shared/httpapi"
)

// Router builds the HTTP surface: the module routes under /api, the health
// probe, and the Prometheus scrape endpoint.
func (a *App) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httpapi.CORSMiddleware(a.Config.HTTP.AllowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := a.EventModule.HealthCheck(req.Context()); err != nil {
			a.logger.ErrorContext(req.Context(), "Health check failed", attr.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", a.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		a.EventModule.Routes(r)
		a.PhotoModule.Routes(r)
		a.VotingModule.Routes(r)
	})

	return r
}

package app

import (
	"net/http"
	"time"
	middle "uptimeline/internals/middleware"
	"uptimeline/internals/modules/checks"
	"uptimeline/internals/modules/timeline"
	"uptimeline/internals/security"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func RegisterRoutes(c *Container) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middle.Logger(c.Logger))
	r.Use(middle.Metrics(c.Metrics))
	r.Use(middleware.Timeout(5 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", c.Metrics.Handler())

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Route("/monitors/{monitorID}", func(m chi.Router) {
			// probe agents push results
			m.With(c.agentKeyMW).
				Mount("/checks", checks.Routes(c.checksHandler))

			// dashboards read timelines
			m.With(c.authMW.Handle, middle.RequireScope(security.ScopeTimelineRead)).
				Mount("/timeline", timeline.Routes(c.timelineHandler))
		})
	})

	return r
}

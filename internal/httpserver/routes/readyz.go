package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/jobtrail/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobtrail/internal/httpserver/handlers"
)

func init() {
	Register(registerHealth)
	Register(registerOps, opsOnly)
}

// registerHealth is open to everyone.
func registerHealth(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
}

// registerOps mounts the probes that reveal dependency state.
func registerOps(r chi.Router, d deps.Deps) {
	r.Get("/readyz", handlers.Readyz(d))
	r.Get("/infra", handlers.Infra(d))
}

package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/jobtrail/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobtrail/internal/httpserver/handlers"
)

func init() { Register(registerReload, opsOnly, allowedHostsOnly) }

// registerReload mounts the gate rules reload, restricted by IP and Host.
func registerReload(r chi.Router, d deps.Deps) {
	r.Post("/reload", handlers.Reload(d))
}

package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/jobtrail/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobtrail/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/jobtrail/internal/httpserver/mw"
)

func init() { Register(registerPages) }

// registerPages gates every remaining GET as a page request.
func registerPages(r chi.Router, d deps.Deps) {
	r.With(mw.Gate(d.Gate, d.Logger)).Get("/*", handlers.Pages(d))
}

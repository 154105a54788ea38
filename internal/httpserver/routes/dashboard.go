package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/jobtrail/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobtrail/internal/httpserver/handlers"
)

func init() { Register(registerDashboard) }

func registerDashboard(r chi.Router, d deps.Deps) {
	r.Route("/dashboard/data", func(r chi.Router) {
		r.Get("/analytics", handlers.DashboardAnalytics(d))
		r.Get("/analytics/salary", handlers.SalaryInsights(d))
		r.Get("/analytics/timing", handlers.TimingInsights(d))
		r.Get("/logs", handlers.Logs(d))
	})
}

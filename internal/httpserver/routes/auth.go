package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/jobtrail/internal/apiclient"
	"github.com/MrSnakeDoc/jobtrail/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobtrail/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/jobtrail/internal/httpserver/mw"
)

func init() { Register(registerAuth) }

func registerAuth(r chi.Router, d deps.Deps) {
	// One bucket per client IP across every credential-guessing endpoint.
	limited := r.With(mw.RateLimit(mw.RateLimitConfig{
		Name:              "auth",
		Burst:             d.AuthBurst,
		RefillPerIPPerMin: d.AuthRefillPerMin,
		MaxEntries:        10000,
		TrustProxy:        d.TrustProxy,
		Logger:            d.Logger,
	}))

	limited.Post("/auth/login", handlers.AuthRelay(d, http.MethodPost, "/api/auth/login"))
	limited.Post("/auth/register", handlers.AuthRelay(d, http.MethodPost, "/api/auth/register"))
	limited.Post("/auth/verify-otp", handlers.AuthRelay(d, http.MethodPost, "/api/auth/verify-otp"))
	limited.Post("/auth/resend-otp", handlers.AuthRelay(d, http.MethodPost, "/api/auth/resend-otp"))
	limited.Post("/auth/forgot-password", handlers.AuthRelay(d, http.MethodPost, "/api/auth/forgot-password"))
	limited.Post("/auth/reset-password", handlers.AuthRelay(d, http.MethodPost, "/api/auth/reset-password"))

	r.Post("/auth/logout", handlers.AuthRelay(d, http.MethodPost, "/api/auth/logout"))
	r.Post("/auth/refresh", handlers.AuthRelay(d, http.MethodPost, apiclient.RefreshPath))
	r.Get("/auth/me", handlers.AuthRelay(d, http.MethodGet, "/api/auth/me"))
}

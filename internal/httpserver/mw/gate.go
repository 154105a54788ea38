package mw

import (
	"net/http"
	"net/url"

	"github.com/MrSnakeDoc/jobtrail/internal/cookierelay"
	"github.com/MrSnakeDoc/jobtrail/internal/gate"
	"github.com/MrSnakeDoc/jobtrail/internal/logger"
)

// Authenticated reads the isAuthenticated flag cookie. The remote API is
// not consulted.
func Authenticated(r *http.Request) bool {
	c, err := r.Cookie(cookierelay.AuthFlagCookie)
	return err == nil && c.Value == "true"
}

// Gate redirects page requests according to the current gate rules.
// Anonymous visitors sent to the landing route carry the page they asked
// for in ?next=.
func Gate(g *gate.Gate, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := g.Decide(r.URL.Path, Authenticated(r))
			switch d.Action {
			case gate.RedirectLanding:
				target := d.Location + "?" + url.Values{"next": {r.URL.RequestURI()}}.Encode()
				log.Debug("gate: anonymous visitor redirected",
					logger.String("path", r.URL.Path),
					logger.String("location", d.Location))
				http.Redirect(w, r, target, http.StatusFound)
			case gate.RedirectHome:
				log.Debug("gate: authenticated visitor redirected",
					logger.String("path", r.URL.Path),
					logger.String("location", d.Location))
				http.Redirect(w, r, d.Location, http.StatusFound)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

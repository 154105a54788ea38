package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/jobtrail/internal/apiclient"
	"github.com/MrSnakeDoc/jobtrail/internal/apierr"
	"github.com/MrSnakeDoc/jobtrail/internal/cookierelay"
	"github.com/MrSnakeDoc/jobtrail/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobtrail/internal/logger"
)

// Remote auth endpoints with local side effects.
const (
	logoutPath = "/api/auth/logout"
	mePath     = "/api/auth/me"
)

// AuthRelay relays one auth call to the remote endpoint, cookies both
// ways, and answers with the remote envelope. The isAuthenticated flag
// follows the access token cookie; logout always clears the session
// locally, even when the remote call fails.
func AuthRelay(d deps.Deps, method, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := readBody(w, r)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}

		s := newSession(d, w, r)
		ctx, cancel := withUpstreamTimeout(r.Context(), d)
		defer cancel()

		req := cookierelay.Request{Method: method, Endpoint: endpoint}
		if len(body) > 0 {
			req.Body = json.RawMessage(body)
		}

		res, err := d.Relay.Send(ctx, s.store, req)
		if endpoint == mePath && apierr.IsUnauthorized(err) {
			if rerr := s.refresh(ctx); rerr == nil {
				res, err = d.Relay.Send(ctx, s.store, req)
			} else {
				d.Logger.Debug("session refresh failed",
					logger.String("endpoint", endpoint),
					logger.Error(rerr))
			}
		}
		if res != nil {
			s.syncAuthFlag(res.Cookies)
		}

		switch {
		case endpoint == logoutPath:
			s.clear()
		case endpoint == apiclient.RefreshPath && err != nil:
			s.clear()
		case endpoint == mePath && apierr.IsUnauthorized(err):
			s.signalUnauthenticated(w)
		}

		if res == nil || len(res.Body) == 0 {
			if err != nil {
				writeError(w, r, d.Logger, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(res.Status)
		if _, werr := w.Write(res.Body); werr != nil {
			d.Logger.Debug("failed to write response", logger.Error(werr))
		}
	}
}

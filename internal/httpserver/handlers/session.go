package handlers

import (
	"context"
	"net/http"

	"github.com/MrSnakeDoc/jobtrail/internal/apiclient"
	"github.com/MrSnakeDoc/jobtrail/internal/apierr"
	"github.com/MrSnakeDoc/jobtrail/internal/cookierelay"
	"github.com/MrSnakeDoc/jobtrail/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobtrail/internal/logger"
	"github.com/MrSnakeDoc/jobtrail/internal/trace"
)

// authFlagMaxAge matches the lifetime of the remote refresh token.
const authFlagMaxAge = 7 * 24 * 60 * 60

// session is the browser session behind one request: its cookies, read
// from the request and written back on the response.
type session struct {
	d     deps.Deps
	store *cookierelay.HTTPStore
}

func newSession(d deps.Deps, w http.ResponseWriter, r *http.Request) session {
	return session{d: d, store: cookierelay.NewHTTPStore(w, r, d.SecureCookies)}
}

// accessToken is the current access token, refreshed ones included.
func (s session) accessToken() string {
	tok, _ := s.store.Get(cookierelay.AccessTokenCookie)
	return tok
}

// refresh rotates the session's tokens. Concurrent requests carrying the
// same refresh token share one upstream call; each of them gets the new
// cookies on its own response.
func (s session) refresh(ctx context.Context) error {
	tok, ok := s.store.Get(cookierelay.RefreshTokenCookie)
	if !ok || tok == "" {
		return apierr.FromStatus("refresh", http.StatusUnauthorized, "no refresh token")
	}

	cookies, err := s.d.Sessions.Do(ctx, tok, func(ctx context.Context) ([]cookierelay.Cookie, error) {
		if s.d.UpstreamTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.d.UpstreamTimeout)
			defer cancel()
		}
		jar := cookierelay.NewMemoryStore(map[string]string{cookierelay.RefreshTokenCookie: tok})
		res, err := s.d.Relay.Send(ctx, jar, cookierelay.Request{
			Method:   http.MethodPost,
			Endpoint: apiclient.RefreshPath,
		})
		if err != nil {
			return nil, err
		}
		s.d.Logger.Info("session refreshed",
			logger.Int("cookies", len(res.Cookies)),
			logger.String("correlation_id", trace.ID(ctx)))
		return res.Cookies, nil
	})
	if err != nil {
		return err
	}

	cookierelay.Apply(s.store, cookies, s.d.Now())
	s.markAuthenticated()
	return nil
}

// markAuthenticated sets the isAuthenticated flag read by the route gate.
// It is readable by scripts.
func (s session) markAuthenticated() {
	s.store.Set(cookierelay.Cookie{
		Name:      cookierelay.AuthFlagCookie,
		Value:     "true",
		Path:      "/",
		MaxAge:    authFlagMaxAge,
		HasMaxAge: true,
		SameSite:  http.SameSiteLaxMode,
	})
}

// clear drops the flag and any token cookie the browser still holds.
func (s session) clear() {
	for _, name := range []string{cookierelay.AuthFlagCookie, cookierelay.AccessTokenCookie, cookierelay.RefreshTokenCookie} {
		if _, ok := s.store.Get(name); ok {
			s.store.Delete(name, "/")
		}
	}
}

// signalUnauthenticated clears the session and tells the browser to go
// to the landing route. The store is sealed.
func (s session) signalUnauthenticated(w http.ResponseWriter) {
	s.clear()
	s.store.Seal()
	w.Header().Set("X-Redirect", s.d.Gate.Rules().Landing)
}

// withUpstreamTimeout bounds ctx by the configured upstream timeout.
func withUpstreamTimeout(ctx context.Context, d deps.Deps) (context.Context, context.CancelFunc) {
	if d.UpstreamTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d.UpstreamTimeout)
}

// authorized runs call, refreshing the session and running it again once
// when the remote API answers 401. A failed refresh returns the original
// error.
func (s session) authorized(ctx context.Context, call func(context.Context) error) error {
	err := call(ctx)
	if !apierr.IsUnauthorized(err) {
		return err
	}
	if rerr := s.refresh(ctx); rerr != nil {
		s.d.Logger.Debug("session refresh failed", logger.Error(rerr))
		return err
	}
	return call(ctx)
}

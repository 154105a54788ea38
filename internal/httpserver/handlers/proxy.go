package handlers

import (
	"io"
	"net/http"

	"github.com/MrSnakeDoc/jobtrail/internal/apiclient"
	"github.com/MrSnakeDoc/jobtrail/internal/apierr"
	"github.com/MrSnakeDoc/jobtrail/internal/cookierelay"
	"github.com/MrSnakeDoc/jobtrail/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobtrail/internal/logger"
	"github.com/MrSnakeDoc/jobtrail/internal/trace"
	"github.com/MrSnakeDoc/jobtrail/internal/utils"
)

const maxRequestBody = 10 << 20

// guestPaths are called without a bearer and never trigger a refresh.
var guestPaths = map[string]bool{
	"/api/auth/login":           true,
	"/api/auth/register":        true,
	"/api/auth/refresh":         true,
	"/api/auth/verify-otp":      true,
	"/api/auth/resend-otp":      true,
	"/api/auth/forgot-password": true,
	"/api/auth/reset-password":  true,
}

// forwardedHeaders are the browser request headers passed upstream.
// Cookie and Authorization are rebuilt from the session.
var forwardedHeaders = []string{
	"Accept",
	"Accept-Language",
	"Content-Type",
	"If-Modified-Since",
	"If-None-Match",
}

// droppedResponseHeaders are never copied back to the browser.
var droppedResponseHeaders = map[string]bool{
	"Connection":         true,
	"Keep-Alive":         true,
	"Proxy-Authenticate": true,
	"Te":                 true,
	"Trailer":            true,
	"Transfer-Encoding":  true,
	"Upgrade":            true,
	"Content-Length":     true,
	"Set-Cookie":         true,

	http.CanonicalHeaderKey(trace.Header): true,
}

// Proxy forwards same-origin /api/* calls to the remote API with the
// session's credentials. A 401 triggers one token refresh, shared with
// every concurrent request of the same session, and one retry. When the
// refresh fails the browser gets the 401 with X-Redirect set to the
// landing route and its session cookies cleared.
func Proxy(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := readBody(w, r)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}

		s := newSession(d, w, r)
		ctx, cancel := withUpstreamTimeout(r.Context(), d)
		defer cancel()

		unauthenticated := false
		client := apiclient.New(d.APIURL,
			apiclient.WithHTTPClient(d.Upstream),
			apiclient.WithCredentials(cookierelay.Credentials(s.store)),
			apiclient.WithRefresher(s.refresh),
			apiclient.WithUnauthenticated(func() { unauthenticated = true }),
			apiclient.WithLogger(d.Logger),
		)

		header := make(http.Header, len(forwardedHeaders))
		for _, k := range forwardedHeaders {
			if v := r.Header.Get(k); v != "" {
				header.Set(k, v)
			}
		}

		resp, err := client.Do(ctx, apiclient.Request{
			Method:   r.Method,
			URL:      r.URL.RequestURI(),
			Header:   header,
			Body:     body,
			SkipAuth: guestPaths[r.URL.Path],
		})
		if err != nil {
			s.store.Seal()
			writeError(w, r, d.Logger, err)
			return
		}
		defer utils.Close(resp.Body)

		// Upstream cookies go through the store so local attributes apply.
		cookies, malformed := cookierelay.ParseAll(resp.Header.Values("Set-Cookie"))
		if len(malformed) > 0 {
			d.Logger.Warn("ignoring malformed set-cookie from upstream",
				logger.String("path", r.URL.Path),
				logger.Int("count", len(malformed)))
		}
		cookierelay.Apply(s.store, cookies, d.Now())
		s.syncAuthFlag(cookies)

		ok := resp.StatusCode >= 200 && resp.StatusCode <= 299
		switch {
		case unauthenticated:
			s.signalUnauthenticated(w)
		case ok && mutating(r.Method):
			if err := d.Cache.Invalidate(ctx, s.accessToken()); err != nil {
				d.Logger.Warn("failed to invalidate record cache",
					logger.String("path", r.URL.Path),
					logger.Error(err))
			}
		}

		s.store.Seal()
		dst := w.Header()
		for k, vs := range resp.Header {
			if droppedResponseHeaders[http.CanonicalHeaderKey(k)] {
				continue
			}
			for _, v := range vs {
				dst.Add(k, v)
			}
		}
		w.WriteHeader(resp.StatusCode)
		if _, err := io.Copy(w, resp.Body); err != nil {
			d.Logger.Debug("proxy: failed to copy upstream body",
				logger.String("path", r.URL.Path),
				logger.Error(err))
		}
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		return nil, apierr.FromStatus("read body", http.StatusRequestEntityTooLarge, "request body too large")
	}
	return body, nil
}

// syncAuthFlag keeps the isAuthenticated flag in step with the access
// token cookie the remote API just set or deleted.
func (s session) syncAuthFlag(cookies []cookierelay.Cookie) {
	now := s.d.Now()
	for _, c := range cookies {
		if c.Name != cookierelay.AccessTokenCookie {
			continue
		}
		if c.IsDeletion(now) {
			if _, ok := s.store.Get(cookierelay.AuthFlagCookie); ok {
				s.store.Delete(cookierelay.AuthFlagCookie, "/")
			}
			return
		}
		if v, _ := s.store.Get(cookierelay.AuthFlagCookie); v != "true" {
			s.markAuthenticated()
		}
		return
	}
}

// Package apiclient is the authenticated fetch wrapper used for every call
// to the remote API: credentials on every request, and on a 401 one shared
// token refresh followed by a single retry.
package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"

	"github.com/MrSnakeDoc/jobtrail/internal/apierr"
	"github.com/MrSnakeDoc/jobtrail/internal/logger"
	"github.com/MrSnakeDoc/jobtrail/internal/trace"
	"github.com/MrSnakeDoc/jobtrail/internal/utils"
	"github.com/MrSnakeDoc/jobtrail/internal/version"
)

// RefreshPath is the remote endpoint rotating the token pair.
const RefreshPath = "/api/auth/refresh"

// Request is one call through the wrapper. Body is replayed as is on retry.
type Request struct {
	Method string
	URL    string // absolute, or a path relative to the client base URL
	Header http.Header
	Body   []byte

	// SkipAuth: no bearer header and no refresh on 401 (login, register...).
	SkipAuth bool
	// SkipRetry: a 401 is returned to the caller untouched.
	SkipRetry bool
}

// Client performs requests with credentials included.
type Client struct {
	baseURL           string
	http              *http.Client
	credentials       func(*http.Request)
	refresher         func(context.Context) error
	onUnauthenticated func()
	logger            logger.Logger

	flight Flight[struct{}]
}

type Option func(*Client)

// WithHTTPClient replaces the default client (cookie jar, no timeout).
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithCredentials sets the hook attaching cookies/bearer to each attempt.
// It runs again on the retry so refreshed credentials are picked up.
func WithCredentials(fn func(*http.Request)) Option { return func(c *Client) { c.credentials = fn } }

// WithRefresher replaces the default POST /api/auth/refresh call.
func WithRefresher(fn func(context.Context) error) Option { return func(c *Client) { c.refresher = fn } }

// WithUnauthenticated sets what happens when a refresh fails, typically
// sending the user to the landing route.
func WithUnauthenticated(fn func()) Option { return func(c *Client) { c.onUnauthenticated = fn } }

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option { return func(c *Client) { c.logger = l } }

// New builds a client for the remote API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil) // never fails without options
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Jar: jar},
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.refresher == nil {
		c.refresher = c.refreshSession
	}
	return c
}

// Do sends req. On a 401 (neither SkipAuth nor SkipRetry set) it waits for
// the shared refresh and retries once. When the refresh fails the
// unauthenticated hook fires and the original 401 response is returned.
// The caller owns the returned body.
func (c *Client) Do(ctx context.Context, req Request) (*http.Response, error) {
	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || req.SkipAuth || req.SkipRetry {
		return resp, nil
	}

	if _, err := c.flight.Do(ctx, c.refreshOnce); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			utils.Close(resp.Body)
			return nil, err
		}
		c.logger.Warn("token refresh failed, session is over",
			logger.String("url", req.URL),
			logger.String("correlation_id", trace.ID(ctx)),
			logger.Error(err))
		if c.onUnauthenticated != nil {
			c.onUnauthenticated()
		}
		return resp, nil
	}

	utils.Close(resp.Body)
	c.logger.Debug("retrying after token refresh",
		logger.String("method", req.Method),
		logger.String("url", req.URL))
	return c.send(ctx, req)
}

// Refresh joins or starts the shared refresh explicitly.
func (c *Client) Refresh(ctx context.Context) error {
	_, err := c.flight.Do(ctx, c.refreshOnce)
	return err
}

// Refreshing reports whether a refresh is in flight.
func (c *Client) Refreshing() bool { return c.flight.Pending() }

func (c *Client) refreshOnce(ctx context.Context) (struct{}, error) {
	return struct{}{}, c.refresher(ctx)
}

// refreshSession is the default refresher: the remote rotates the tokens
// through Set-Cookie, which land in the client's jar.
func (c *Client) refreshSession(ctx context.Context) error {
	resp, err := c.send(ctx, Request{Method: http.MethodPost, URL: RefreshPath, SkipAuth: true})
	if err != nil {
		return err
	}
	defer utils.Close(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apierr.FromStatus("refresh", resp.StatusCode, "")
	}
	return nil
}

func (c *Client) send(ctx context.Context, req Request) (*http.Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	url := req.URL
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = c.baseURL + url
	}
	op := fmt.Sprintf("%s %s", method, req.URL)

	httpReq, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", version.UserAgent())
	}

	callerAuth := httpReq.Header.Get("Authorization")
	if c.credentials != nil {
		c.credentials(httpReq)
	}
	if req.SkipAuth && callerAuth == "" {
		httpReq.Header.Del("Authorization")
	}
	trace.Propagate(ctx, httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, apierr.Network(op, err)
	}
	return resp, nil
}

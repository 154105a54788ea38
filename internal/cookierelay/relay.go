package cookierelay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MrSnakeDoc/jobtrail/internal/apierr"
	"github.com/MrSnakeDoc/jobtrail/internal/domain"
	"github.com/MrSnakeDoc/jobtrail/internal/logger"
	"github.com/MrSnakeDoc/jobtrail/internal/trace"
	"github.com/MrSnakeDoc/jobtrail/internal/utils"
	"github.com/MrSnakeDoc/jobtrail/internal/version"
)

// Cookie names issued by the remote API (accessToken, refreshToken) and by
// jobtrail itself (isAuthenticated).
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
	AuthFlagCookie     = "isAuthenticated"
)

// maxBodyBytes caps how much of an upstream body is read.
const maxBodyBytes = 10 << 20

// Request describes one upstream call.
type Request struct {
	Method   string
	Endpoint string // path + query relative to the API base URL
	Body     any    // JSON encoded; []byte and json.RawMessage are sent as is
	Header   http.Header
}

// Response is what the remote answered, after its cookies were applied.
type Response struct {
	Status   int
	Header   http.Header
	Envelope domain.RawEnvelope
	Body     []byte
	Cookies  []Cookie
}

// Relay forwards server-rendered requests to the remote API with the
// caller's cookies and brings Set-Cookie answers back into the caller's
// store.
type Relay struct {
	baseURL string
	client  *http.Client
	logger  logger.Logger
	now     func() time.Time
}

type Option func(*Relay)

// WithHTTPClient replaces the default client (no timeout, no redirects).
func WithHTTPClient(c *http.Client) Option { return func(r *Relay) { r.client = c } }

// WithLogger sets the relay logger.
func WithLogger(l logger.Logger) Option { return func(r *Relay) { r.logger = l } }

// WithClock overrides time.Now, used to evaluate cookie expiry.
func WithClock(now func() time.Time) Option { return func(r *Relay) { r.now = now } }

// New builds a relay for the remote API at baseURL.
func New(baseURL string, opts ...Option) *Relay {
	r := &Relay{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: logger.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BaseURL of the remote API.
func (r *Relay) BaseURL() string { return r.baseURL }

// Do relays req and decodes the envelope's data into out (may be nil).
func (r *Relay) Do(ctx context.Context, store CookieStore, req Request, out any) error {
	res, err := r.Send(ctx, store, req)
	if err != nil {
		return err
	}
	if out == nil || len(res.Envelope.Data) == 0 || string(res.Envelope.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(res.Envelope.Data, out); err != nil {
		return fmt.Errorf("%s %s: failed to decode data: %w", req.Method, req.Endpoint, err)
	}
	return nil
}

// Send relays req and returns the raw response. On a non-2xx answer both
// the response and an *apierr.APIError are returned.
func (r *Relay) Send(ctx context.Context, store CookieStore, req Request) (*Response, error) {
	op := fmt.Sprintf("%s %s", req.Method, req.Endpoint)
	start := r.now()

	httpReq, err := r.build(ctx, store, req)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build request: %w", op, err)
	}

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, apierr.Network(op, err)
	}
	defer utils.Close(resp.Body)

	// Cookies first: the body is only read once the store is up to date.
	cookies, malformed := ParseAll(resp.Header.Values("Set-Cookie"))
	for _, raw := range malformed {
		r.logger.Warn("ignoring malformed set-cookie from upstream",
			logger.String("op", op),
			logger.String("value", raw))
	}
	set, deleted := Apply(store, cookies, r.now())

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, apierr.Network(op, err)
	}

	res := &Response{
		Status:  resp.StatusCode,
		Header:  resp.Header,
		Body:    body,
		Cookies: cookies,
	}

	decodeErr := decodeEnvelope(body, &res.Envelope)

	r.logger.Debug("relayed upstream request",
		logger.String("op", op),
		logger.Int("status", resp.StatusCode),
		logger.Int("cookies_set", set),
		logger.Int("cookies_deleted", deleted),
		logger.Duration("duration", r.now().Sub(start)),
		logger.String("correlation_id", trace.ID(ctx)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return res, apierr.FromStatus(op, resp.StatusCode, res.Envelope.Message)
	}
	if decodeErr != nil {
		return res, fmt.Errorf("%s: failed to decode response: %w", op, decodeErr)
	}
	return res, nil
}

func (r *Relay) build(ctx context.Context, store CookieStore, req Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, r.baseURL+req.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if body == nil {
		httpReq.Body = http.NoBody
	}

	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Cache-Control", "no-store")
	httpReq.Header.Set("User-Agent", version.UserAgent())

	Credentials(store)(httpReq)
	trace.Propagate(ctx, httpReq)

	return httpReq, nil
}

// Credentials returns a hook attaching the store's access token as a
// bearer Authorization header and every ambient cookie as one Cookie header.
// An Authorization header already on the request is left alone.
func Credentials(store CookieStore) func(*http.Request) {
	return func(req *http.Request) {
		if tok, ok := store.Get(AccessTokenCookie); ok && tok != "" && req.Header.Get("Authorization") == "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
		if v := HeaderValue(store.All()); v != "" {
			req.Header.Set("Cookie", v)
		} else {
			req.Header.Del("Cookie")
		}
	}
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("failed to encode body: %w", err)
		}
		return data, nil
	}
}

func decodeEnvelope(body []byte, env *domain.RawEnvelope) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	return json.Unmarshal(body, env)
}

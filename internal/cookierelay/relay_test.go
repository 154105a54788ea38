package cookierelay

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/jobtrail/internal/apierr"
	"github.com/MrSnakeDoc/jobtrail/internal/trace"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestRelayForwardsCredentials(t *testing.T) {
	var gotAuth, gotCookie, gotCache, gotCorrelation string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCookie = r.Header.Get("Cookie")
		gotCache = r.Header.Get("Cache-Control")
		gotCorrelation = r.Header.Get(trace.Header)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"data":{"id":"u1","email":"a@b.c"}}`)
	}))
	defer ts.Close()

	store := NewMemoryStore(map[string]string{
		AccessTokenCookie:  "tok-1",
		RefreshTokenCookie: "ref-1",
		AuthFlagCookie:     "true",
	})

	ctx := trace.WithID(context.Background(), "0f8fad5b-d9cb-469f-a165-70867728950e")
	var out struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := New(ts.URL).Do(ctx, store, Request{Method: http.MethodGet, Endpoint: "/api/auth/me"}, &out); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	if gotAuth != "Bearer tok-1" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	want := "accessToken=tok-1; isAuthenticated=true; refreshToken=ref-1"
	if gotCookie != want {
		t.Errorf("Cookie = %q, want %q", gotCookie, want)
	}
	if gotCache != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", gotCache)
	}
	if gotCorrelation != "0f8fad5b-d9cb-469f-a165-70867728950e" {
		t.Errorf("correlation id not propagated: %q", gotCorrelation)
	}
	if out.ID != "u1" || out.Email != "a@b.c" {
		t.Errorf("data not decoded: %+v", out)
	}
}

func TestRelayAppliesEverySetCookie(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Add("Set-Cookie", "accessToken=tok-2; Path=/; Max-Age=900; HttpOnly; Secure; SameSite=Lax")
		h.Add("Set-Cookie", "refreshToken=ref-2; Path=/; Expires=Sun, 08 Jun 2025 12:00:00 GMT; HttpOnly")
		h.Add("Set-Cookie", "legacy=; Path=/; Max-Age=0")
		h.Add("Set-Cookie", "stale=x; Expires=Thu, 01 Jan 1970 00:00:00 GMT")
		h.Add("Set-Cookie", "=broken")
		_, _ = io.WriteString(w, `{"success":true}`)
	}))
	defer ts.Close()

	store := NewMemoryStore(map[string]string{
		AccessTokenCookie: "tok-1",
		"legacy":          "old",
		"stale":           "old",
	})

	relay := New(ts.URL, WithClock(func() time.Time { return now }))
	res, err := relay.Send(context.Background(), store, Request{Method: http.MethodPost, Endpoint: "/api/auth/refresh"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(res.Cookies) != 4 {
		t.Errorf("expected 4 parsed cookies, got %d", len(res.Cookies))
	}

	access, ok := store.Cookie(AccessTokenCookie)
	if !ok || access.Value != "tok-2" {
		t.Fatalf("access token not updated: %+v", access)
	}
	if !access.HttpOnly || !access.Secure || access.SameSite != http.SameSiteLaxMode || access.Path != "/" {
		t.Errorf("attributes not preserved: %+v", access)
	}
	if !access.Expires.Equal(now.Add(15 * time.Minute)) {
		t.Errorf("max-age not translated to expiry: %v", access.Expires)
	}

	refresh, ok := store.Cookie(RefreshTokenCookie)
	if !ok || refresh.Value != "ref-2" {
		t.Fatalf("refresh token not set: %+v", refresh)
	}
	if !refresh.Expires.Equal(time.Date(2025, time.June, 8, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("refresh expiry = %v", refresh.Expires)
	}

	if _, ok := store.Get("legacy"); ok {
		t.Error("Max-Age=0 cookie must be deleted, not set")
	}
	if _, ok := store.Get("stale"); ok {
		t.Error("cookie expiring in the past must be deleted")
	}
}

// probeBody checks the store when the relay first reads the body.
type probeBody struct {
	io.Reader
	check func()
	once  bool
}

func (p *probeBody) Read(b []byte) (int, error) {
	if !p.once {
		p.once = true
		p.check()
	}
	return p.Reader.Read(b)
}

func (p *probeBody) Close() error { return nil }

func TestRelayAppliesCookiesBeforeReadingBody(t *testing.T) {
	store := NewMemoryStore(nil)
	seenBeforeBody := false

	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		body := &probeBody{
			Reader: strings.NewReader(`{"success":true}`),
			check: func() {
				v, ok := store.Get(AccessTokenCookie)
				seenBeforeBody = ok && v == "fresh"
			},
		}
		h := http.Header{}
		h.Add("Set-Cookie", "accessToken=fresh; Path=/")
		return &http.Response{StatusCode: http.StatusOK, Header: h, Body: body, Request: r}, nil
	})}

	if err := New("http://upstream.invalid", WithHTTPClient(client)).Do(context.Background(), store, Request{Endpoint: "/api/x"}, nil); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if !seenBeforeBody {
		t.Error("cookies must be applied before the body is read")
	}
}

func TestRelayErrors(t *testing.T) {
	t.Run("application error carries remote message", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Set-Cookie", "accessToken=; Max-Age=0; Path=/")
			w.WriteHeader(http.StatusConflict)
			_, _ = io.WriteString(w, `{"success":false,"message":"Company already exists"}`)
		}))
		defer ts.Close()

		store := NewMemoryStore(map[string]string{AccessTokenCookie: "tok"})
		res, err := New(ts.URL).Send(context.Background(), store, Request{
			Method:   http.MethodPost,
			Endpoint: "/api/companies",
			Body:     map[string]string{"name": "Acme"},
		})

		var ae *apierr.APIError
		if !errors.As(err, &ae) {
			t.Fatalf("expected APIError, got %v", err)
		}
		if ae.Status != http.StatusConflict || ae.Message != "Company already exists" {
			t.Errorf("unexpected error: %+v", ae)
		}
		if errors.Is(err, apierr.ErrNetwork) {
			t.Error("application error must not look like a network error")
		}
		if res == nil || res.Status != http.StatusConflict {
			t.Error("response should be returned alongside the error")
		}
		if _, ok := store.Get(AccessTokenCookie); ok {
			t.Error("cookies must be applied even on failed responses")
		}
	})

	t.Run("non-json failure falls back to status text", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream exploded", http.StatusInternalServerError)
		}))
		defer ts.Close()

		err := New(ts.URL).Do(context.Background(), NewMemoryStore(nil), Request{Endpoint: "/api/x"}, nil)
		var ae *apierr.APIError
		if !errors.As(err, &ae) || ae.Message != "Internal Server Error" {
			t.Errorf("expected status text fallback, got %v", err)
		}
	})

	t.Run("network failure", func(t *testing.T) {
		client := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		})}
		err := New("http://upstream.invalid", WithHTTPClient(client)).Do(context.Background(), NewMemoryStore(nil), Request{Endpoint: "/api/x"}, nil)
		if !errors.Is(err, apierr.ErrNetwork) {
			t.Errorf("expected ErrNetwork, got %v", err)
		}
		var ae *apierr.APIError
		if errors.As(err, &ae) {
			t.Error("network failure must not be an APIError")
		}
	})
}

func TestHTTPStore(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "old"})
	r.AddCookie(&http.Cookie{Name: "theme", Value: "dark"})
	w := httptest.NewRecorder()

	store := NewHTTPStore(w, r, true)
	if v, _ := store.Get(AccessTokenCookie); v != "old" {
		t.Fatalf("inbound cookie not visible: %q", v)
	}

	store.Set(Cookie{Name: AccessTokenCookie, Value: "new", Path: "/", HttpOnly: true})
	store.Set(Cookie{Name: RefreshTokenCookie, Value: "r", Path: "/"})
	store.Delete("theme", "/")

	if v, _ := store.Get(AccessTokenCookie); v != "new" {
		t.Errorf("write not visible to later reads: %q", v)
	}
	if _, ok := store.Get("theme"); ok {
		t.Error("deleted cookie still visible")
	}
	if got := HeaderValue(store.All()); got != "accessToken=new; refreshToken=r" {
		t.Errorf("All() serialized = %q", got)
	}

	written := w.Result().Cookies()
	if len(written) != 3 {
		t.Fatalf("expected 3 Set-Cookie headers, got %d", len(written))
	}
	for _, c := range written {
		switch c.Name {
		case AccessTokenCookie:
			if !c.Secure || !c.HttpOnly {
				t.Errorf("access cookie attributes: %+v", c)
			}
		case "theme":
			if c.MaxAge >= 0 {
				t.Errorf("deleted cookie should have MaxAge < 0: %+v", c)
			}
		}
	}
}

func TestHTTPStoreSealStopsWrites(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	store := NewHTTPStore(w, r, false)

	store.Set(Cookie{Name: AccessTokenCookie, Value: "a", Path: "/"})
	store.Seal()
	store.Set(Cookie{Name: RefreshTokenCookie, Value: "r", Path: "/"})
	store.Delete(AccessTokenCookie, "/")

	if got := len(w.Header().Values("Set-Cookie")); got != 1 {
		t.Errorf("Set-Cookie headers = %d, want only the one written before Seal", got)
	}
	if v, ok := store.Get(RefreshTokenCookie); !ok || v != "r" {
		t.Errorf("sealed store must still track writes, got %q", v)
	}
	if _, ok := store.Get(AccessTokenCookie); ok {
		t.Error("sealed store must still track deletions")
	}
}

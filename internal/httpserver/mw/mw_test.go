package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/MrSnakeDoc/jobtrail/internal/cookierelay"
	"github.com/MrSnakeDoc/jobtrail/internal/gate"
	"github.com/MrSnakeDoc/jobtrail/internal/logger"
	"github.com/MrSnakeDoc/jobtrail/internal/trace"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestMatchHost(t *testing.T) {
	tests := []struct {
		host, pattern string
		want          bool
	}{
		{"jobtrail.app", "jobtrail.app", true},
		{"jobtrail.app:8080", "jobtrail.app", true},
		{"jobtrail.app:8080", "jobtrail.app:9090", false},
		{"ops.jobtrail.app", "*.jobtrail.app", true},
		{"ops.jobtrail.app:443", "*.jobtrail.app", true},
		{"jobtrail.app", "*.jobtrail.app", false},
		{"evil-jobtrail.app", "*.jobtrail.app", false},
		{"other.app", "jobtrail.app", false},
	}
	for _, tt := range tests {
		if got := matchHost(tt.host, tt.pattern); got != tt.want {
			t.Errorf("matchHost(%q, %q) = %v, want %v", tt.host, tt.pattern, got, tt.want)
		}
	}
}

func TestEnforceHost(t *testing.T) {
	h := EnforceHost([]string{"Ops.Jobtrail.App"}, logger.Nop())(okHandler)

	req := httptest.NewRequest(http.MethodPost, "/reload", nil)
	req.Host = "ops.jobtrail.app:8080"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("allowed host = %d, want 200", rec.Code)
	}

	req.Host = "jobtrail.app"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("other host = %d, want 403", rec.Code)
	}
}

func TestAllowOnlyCIDRS(t *testing.T) {
	tests := []struct {
		name       string
		trustProxy bool
		remoteAddr string
		xff        string
		want       int
	}{
		{"inside range", false, "10.1.2.3:5000", "", http.StatusOK},
		{"exact ip", false, "192.0.2.7:5000", "", http.StatusOK},
		{"outside range", false, "192.0.2.8:5000", "", http.StatusForbidden},
		{"forwarded ignored without trust", false, "192.0.2.8:5000", "10.0.0.9", http.StatusForbidden},
		{"forwarded trusted", true, "192.0.2.8:5000", "10.0.0.9, 198.51.100.1", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := AllowOnlyCIDRS([]string{"10.0.0.0/8", "192.0.2.7"}, tt.trustProxy, logger.Nop())(okHandler)
			req := httptest.NewRequest(http.MethodGet, "/infra", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}

	open := AllowOnlyCIDRS(nil, false, logger.Nop())(okHandler)
	rec := httptest.NewRecorder()
	open.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/infra", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("empty allow list = %d, want passthrough", rec.Code)
	}
}

func TestCorrelation(t *testing.T) {
	var seen string
	h := Correlation()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = trace.ID(r.Context())
	}))

	inbound := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(trace.Header, inbound)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != inbound || rec.Header().Get(trace.Header) != inbound {
		t.Errorf("valid inbound id not kept: ctx %q, header %q", seen, rec.Header().Get(trace.Header))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(trace.Header, "not-a-uuid")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if _, err := uuid.Parse(seen); err != nil || seen == "not-a-uuid" {
		t.Errorf("invalid inbound id should be replaced, got %q", seen)
	}
	if rec.Header().Get(trace.Header) != seen {
		t.Errorf("echoed id %q, want %q", rec.Header().Get(trace.Header), seen)
	}
}

func TestCORS(t *testing.T) {
	const origin = "https://jobtrail.app"
	h := CORS(origin + "/")(okHandler)

	preflight := httptest.NewRequest(http.MethodOptions, "/api/applications", nil)
	preflight.Header.Set("Origin", origin)
	preflight.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, preflight)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != origin || rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Errorf("preflight headers = %v", rec.Header())
	}

	foreign := httptest.NewRequest(http.MethodGet, "/api/applications", nil)
	foreign.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, foreign)
	if rec.Code != http.StatusOK || rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Errorf("foreign origin got CORS headers: %v", rec.Header())
	}
}

func TestGateRedirects(t *testing.T) {
	h := Gate(gate.New(gate.DefaultRules()), logger.Nop())(okHandler)

	tests := []struct {
		name     string
		target   string
		authed   bool
		status   int
		location string
	}{
		{"anonymous on protected page", "/dashboard/apps?tab=open", false, http.StatusFound, "/login?next=%2Fdashboard%2Fapps%3Ftab%3Dopen"},
		{"signed in on guest page", "/login", true, http.StatusFound, "/dashboard"},
		{"signed in on protected page", "/dashboard", true, http.StatusOK, ""},
		{"anonymous on guest page", "/login", false, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.authed {
				req.AddCookie(&http.Cookie{Name: cookierelay.AuthFlagCookie, Value: "true"})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if got := rec.Header().Get("Location"); got != tt.location {
				t.Errorf("Location = %q, want %q", got, tt.location)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	h := RateLimit(RateLimitConfig{
		Name:              "auth",
		Burst:             2,
		RefillPerIPPerMin: 1,
		Now:               func() time.Time { return now },
	})(okHandler)

	send := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for i, wantRemaining := range []string{"1", "0"} {
		rec := send("192.0.2.1:1000")
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d = %d, want 200", i, rec.Code)
		}
		if got := rec.Header().Get("X-RateLimit-Remaining"); got != wantRemaining {
			t.Errorf("request %d remaining = %q, want %q", i, got, wantRemaining)
		}
	}

	rec := send("192.0.2.1:1001")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("over burst = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q, want 60", got)
	}
	if got := rec.Body.String(); got != `{"success":false,"message":"Too many requests, please try again later"}` {
		t.Errorf("body = %s", got)
	}

	if rec := send("192.0.2.2:1000"); rec.Code != http.StatusOK {
		t.Errorf("other client = %d, want its own bucket", rec.Code)
	}

	now = now.Add(time.Minute)
	if rec := send("192.0.2.1:1000"); rec.Code != http.StatusOK {
		t.Errorf("after refill = %d, want 200", rec.Code)
	}
}

func TestLogLevelFollowsStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.FromZap(zap.New(core))

	tests := []struct {
		status int
		want   zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusNotFound, zapcore.WarnLevel},
		{http.StatusBadGateway, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		h := Correlation()(Log(log, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		})))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/applications", nil))

		entries := logs.TakeAll()
		if len(entries) != 1 {
			t.Fatalf("status %d: %d log entries, want 1", tt.status, len(entries))
		}
		e := entries[0]
		if e.Level != tt.want {
			t.Errorf("status %d logged at %v, want %v", tt.status, e.Level, tt.want)
		}
		fields := e.ContextMap()
		if fields["status"] != int64(tt.status) || fields["path"] != "/api/applications" {
			t.Errorf("fields = %v", fields)
		}
		if id, _ := fields["correlation_id"].(string); id == "" {
			t.Error("correlation_id missing from access log")
		}
	}
}

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrSnakeDoc/jobtrail/internal/apiclient"
	"github.com/MrSnakeDoc/jobtrail/internal/cookierelay"
	"github.com/MrSnakeDoc/jobtrail/internal/domain"
	"github.com/MrSnakeDoc/jobtrail/internal/gate"
	"github.com/MrSnakeDoc/jobtrail/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobtrail/internal/logger"
	"github.com/MrSnakeDoc/jobtrail/internal/remote"
)

const (
	staleToken   = "stale-access"
	freshToken   = "fresh-access"
	refreshToken = "refresh-1"
)

// fakeAPI mimics the remote API: only freshToken is accepted, and
// refreshToken buys a freshToken.
type fakeAPI struct {
	srv *httptest.Server

	refreshCalls atomic.Int32
	unauthorized atomic.Int32

	mu          sync.Mutex
	refreshGate chan struct{} // when set, refreshes wait for it to close
	apps        []domain.JobApplication
	lastQuery   string
	lastAuth    string
	lastBody    string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/refresh", f.refresh)
	mux.HandleFunc("POST /api/auth/login", f.login)
	mux.HandleFunc("POST /api/auth/logout", f.logout)
	mux.HandleFunc("GET /api/auth/me", f.authed(func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, domain.User{ID: "u-1", Email: "ada@example.com"})
	}))
	mux.HandleFunc("GET /api/applications", f.authed(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeData(w, http.StatusOK, f.apps)
	}))
	mux.HandleFunc("POST /api/applications", f.authed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Upstream", "yes")
		writeData(w, http.StatusCreated, domain.JobApplication{ID: "a-new"})
	}))
	mux.HandleFunc("GET /api/interviews", f.authed(func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, []domain.Interview{})
	}))
	mux.HandleFunc("GET /api/logs", f.authed(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.lastQuery = r.URL.RawQuery
		f.mu.Unlock()
		writeData(w, http.StatusOK, domain.Page[domain.LogEntry]{
			Items: []domain.LogEntry{{ID: "l-1", Level: domain.LogError, Message: "boom"}},
			Total: 1, Page: 1, PageSize: 20, TotalPages: 1,
		})
	}))

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func writeData(w http.ResponseWriter, status int, data any) {
	raw, _ := json.Marshal(data)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.RawEnvelope{Success: true, Data: raw})
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.RawEnvelope{Message: message})
}

func (f *fakeAPI) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		f.mu.Lock()
		f.lastAuth = auth
		f.mu.Unlock()
		if auth != "Bearer "+freshToken {
			f.unauthorized.Add(1)
			writeFailure(w, http.StatusUnauthorized, "Token expired")
			return
		}
		next(w, r)
	}
}

func (f *fakeAPI) refresh(w http.ResponseWriter, r *http.Request) {
	f.refreshCalls.Add(1)
	f.mu.Lock()
	gate := f.refreshGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	c, err := r.Cookie(cookierelay.RefreshTokenCookie)
	if err != nil || c.Value != refreshToken {
		writeFailure(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	setTokens(w, freshToken, "refresh-2")
	writeData(w, http.StatusOK, nil)
}

func (f *fakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	f.mu.Lock()
	f.lastBody = body.Email
	f.mu.Unlock()
	if body.Password != "secret" {
		writeFailure(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	setTokens(w, freshToken, refreshToken)
	writeData(w, http.StatusOK, domain.User{ID: "u-1", Email: body.Email})
}

func (f *fakeAPI) logout(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Set-Cookie", cookierelay.AccessTokenCookie+"=; Path=/; Max-Age=0; HttpOnly")
	w.Header().Add("Set-Cookie", cookierelay.RefreshTokenCookie+"=; Path=/; Max-Age=0; HttpOnly")
	writeLoggedOut(w)
}

func writeLoggedOut(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"success":true,"message":"Logged out"}`))
}

func setTokens(w http.ResponseWriter, access, refresh string) {
	w.Header().Add("Set-Cookie", cookierelay.AccessTokenCookie+"="+access+"; Path=/; Max-Age=900; HttpOnly; SameSite=Lax")
	w.Header().Add("Set-Cookie", cookierelay.RefreshTokenCookie+"="+refresh+"; Path=/; Max-Age=604800; HttpOnly; SameSite=Lax")
}

// holdRefreshes makes refreshes wait until the returned func is called.
func (f *fakeAPI) holdRefreshes() (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.refreshGate = gate
	f.mu.Unlock()
	return func() { close(gate) }
}

// seen returns what the last requests carried.
func (f *fakeAPI) seen() (query, auth, email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastQuery, f.lastAuth, f.lastBody
}

func (f *fakeAPI) setApps(apps ...domain.JobApplication) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apps = apps
}

func testDeps(t *testing.T, apiURL string) deps.Deps {
	t.Helper()
	upstream := &http.Client{
		Timeout: 5 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	relay := cookierelay.New(apiURL, cookierelay.WithHTTPClient(upstream))
	return deps.Deps{
		Logger:        logger.Nop(),
		StartTime:     time.Now().Add(-time.Minute),
		Version:       "test",
		TimeNow:       time.Now,
		APIURL:        apiURL,
		Relay:         relay,
		Remote:        remote.New(relay),
		Upstream:      upstream,
		Sessions:      &apiclient.Group[[]cookierelay.Cookie]{},
		Gate:          gate.New(gate.DefaultRules()),
		ReloadTrigger: make(chan struct{}, 1),
	}
}

// browserRequest builds a request carrying the given cookies.
func browserRequest(method, target, body string, cookies map[string]string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range cookies {
		req.AddCookie(&http.Cookie{Name: k, Value: v})
	}
	return req
}

// setCookies indexes the response cookies by name.
func setCookies(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthz(t *testing.T) {
	d := testDeps(t, "http://127.0.0.1:1")

	rec := httptest.NewRecorder()
	Healthz(d)(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got healthzResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != "ok" || got.Version != "test" {
		t.Errorf("healthz = %+v", got)
	}
	if got.UptimeSeconds < 60 {
		t.Errorf("uptime = %v, want at least a minute", got.UptimeSeconds)
	}
	if got.CacheEnabled || got.GateRules == 0 {
		t.Errorf("cache_enabled = %v gate_rules = %d, want no cache and the default rules", got.CacheEnabled, got.GateRules)
	}
}

func TestReadyz(t *testing.T) {
	api := newFakeAPI(t)

	t.Run("remote up", func(t *testing.T) {
		rec := httptest.NewRecorder()
		Readyz(testDeps(t, api.srv.URL))(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
		}
	})

	t.Run("remote down", func(t *testing.T) {
		rec := httptest.NewRecorder()
		Readyz(testDeps(t, "http://127.0.0.1:1"))(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
		var got readyzResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil || got.Ready {
			t.Errorf("readyz = %+v, %v", got, err)
		}
	})
}

func TestInfraModes(t *testing.T) {
	api := newFakeAPI(t)

	tests := []struct {
		name     string
		apiURL   string
		wantMode string
	}{
		{"remote up without redis", api.srv.URL, "degraded"},
		{"remote down", "http://127.0.0.1:1", "critical"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Infra(testDeps(t, tt.apiURL))(rec, httptest.NewRequest(http.MethodGet, "/infra", nil))

			var got infraResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Mode != tt.wantMode {
				t.Errorf("mode = %q, want %q", got.Mode, tt.wantMode)
			}
			if r := got.Components["redis"]; r.Mode != "disabled" {
				t.Errorf("redis = %+v, want disabled", r)
			}
			g := got.Components["gate"]
			if !g.OK || g.Rules == nil || *g.Rules == 0 || g.LastReload != "never" {
				t.Errorf("gate = %+v", g)
			}
		})
	}
}

func TestReloadTriggersOnce(t *testing.T) {
	d := testDeps(t, "http://127.0.0.1:1")
	h := Reload(d)

	first := httptest.NewRecorder()
	h(first, httptest.NewRequest(http.MethodPost, "/reload", nil))
	if first.Code != http.StatusAccepted {
		t.Errorf("first reload = %d, want 202", first.Code)
	}

	second := httptest.NewRecorder()
	h(second, httptest.NewRequest(http.MethodPost, "/reload", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("pending reload = %d, want 429", second.Code)
	}

	<-d.ReloadTrigger
	third := httptest.NewRecorder()
	h(third, httptest.NewRequest(http.MethodPost, "/reload", nil))
	if third.Code != http.StatusAccepted {
		t.Errorf("reload after drain = %d, want 202", third.Code)
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/jobtrail/internal/gate"
	"github.com/MrSnakeDoc/jobtrail/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobtrail/internal/remote"
)

type componentStatus struct {
	OK         bool   `json:"ok"`
	Rules      *int   `json:"rules,omitempty"`
	LastReload string `json:"last_reload,omitempty"`
	Mode       string `json:"mode,omitempty"`
	Impact     string `json:"impact,omitempty"`
	Error      string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the state of each dependency: the remote API, the record
// cache and the route gate.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")

		components := map[string]componentStatus{
			"remote_api": checkRemote(r.Context(), d),
			"redis":      checkRedis(r.Context(), d),
			"gate":       checkGate(d),
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	// Without the remote API nothing but the gate works
	if api, exists := components["remote_api"]; exists && !api.OK {
		return "critical"
	}

	// Redis down or disabled = every dashboard view hits the remote API
	if redis, exists := components["redis"]; exists && !redis.OK {
		return "degraded"
	}

	return "operational"
}

func checkRemote(ctx context.Context, d deps.Deps) componentStatus {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if err := remote.Ping(ctx, d.APIURL, probeTimeout); err != nil {
		return componentStatus{
			OK:     false,
			Impact: "all-api-calls-failing",
			Error:  err.Error(),
		}
	}
	return componentStatus{OK: true}
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if !d.Cache.Enabled() {
		return componentStatus{
			OK:     false,
			Mode:   "disabled",
			Impact: "record-cache-disabled",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if err := d.Cache.Ping(ctx); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "record-cache-bypassed",
			Error:  "timeout",
		}
	}

	return componentStatus{
		OK:     true,
		Mode:   "optimal",
		Impact: "record-cache-enabled",
	}
}

func checkGate(d deps.Deps) componentStatus {
	count := ruleCount(d.Gate)
	lastReload := "never"
	if t := d.Gate.LastReload(); !t.IsZero() && t.Unix() > 0 {
		lastReload = t.Format("2006-01-02 15:04:05")
	}
	return componentStatus{
		OK:         count > 0,
		Rules:      &count,
		LastReload: lastReload,
	}
}

func ruleCount(g *gate.Gate) int {
	rules := g.Rules()
	return len(rules.Public) + len(rules.GuestOnly) + len(rules.Protected)
}

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/jobtrail/internal/httpserver/deps"
)

type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Version       string  `json:"version,omitempty"`
	Commit        string  `json:"commit,omitempty"`
	BuildDate     string  `json:"build_date,omitempty"`
	GoVersion     string  `json:"go_version,omitempty"`
	CacheEnabled  bool    `json:"cache_enabled"`
	GateRules     int     `json:"gate_rules"`
}

// Healthz reports that the process is up with its build and local state.
// Remote dependencies are not checked, see Readyz and Infra.
func Healthz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(healthzResponse{
			Status:        "ok",
			Version:       d.Version,
			Commit:        d.Commit,
			BuildDate:     d.BuildDate,
			GoVersion:     d.GoVersion,
			UptimeSeconds: d.Now().Sub(d.StartTime).Seconds(),
			CacheEnabled:  d.Cache.Enabled(),
			GateRules:     ruleCount(d.Gate),
		})
	}
}

package deps

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/jobtrail/internal/apiclient"
	"github.com/MrSnakeDoc/jobtrail/internal/cache"
	"github.com/MrSnakeDoc/jobtrail/internal/cookierelay"
	"github.com/MrSnakeDoc/jobtrail/internal/gate"
	"github.com/MrSnakeDoc/jobtrail/internal/logger"
	"github.com/MrSnakeDoc/jobtrail/internal/remote"
)

type Deps struct {
	Logger           logger.Logger
	StartTime        time.Time
	Version          string
	Commit           string
	BuildDate        string
	GoVersion        string
	TimeNow          func() time.Time                       // for testing, defaults to time.Now
	AllowedHosts     []string                               // Host headers allowed to access /reload
	AllowedCIDRS     []string                               // IPs allowed to access readyz/infra/reload endpoints
	TrustProxy       bool                                   // true if running behind a trusted reverse proxy (e.g., cloudflared)
	APIURL           string                                 // Base URL of the remote API
	FrontendURL      string                                 // Allowed CORS origin
	UpstreamTimeout  time.Duration                          // Bound on each upstream call, 0 = none
	SecureCookies    bool                                   // Force Secure on cookies written to the browser
	Relay            *cookierelay.Relay                     // Cookie relay to the remote API
	Remote           *remote.Client                         // Typed resource clients over Relay
	Upstream         *http.Client                           // Client used by the /api proxy (no jar, no redirects)
	Sessions         *apiclient.Group[[]cookierelay.Cookie] // Token refreshes shared per refresh token
	Gate             *gate.Gate                             // Route gate rules
	Cache            *cache.Cache                           // Record cache (nil if redis disabled)
	ReloadTrigger    chan struct{}                          // Channel to trigger manual gate rules reload
	StaticDir        string                                 // Front-end build served on page routes, empty = none
	AuthBurst        int                                    // Auth endpoints burst per client IP
	AuthRefillPerMin int                                    // Auth endpoints refill per minute per client IP
}

// Now returns TimeNow() or time.Now().
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}

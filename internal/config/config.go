package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	Env             string        // "development" | "production"

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	APIURL          string        // base URL of the remote API (ex: https://api.jobtrail.app)
	FrontendURL     string        // public URL of this front-end, allowed CORS origin
	UpstreamTimeout time.Duration // per-request bound on upstream calls, 0 = none
	SecureCookies   bool          // force Secure on cookies written to the browser

	StaticDir      string        // front-end build served on page routes (optional)
	GateFile       string        // path to the route-gate rules yaml (optional, empty = defaults)
	ReloadInterval time.Duration // interval to reload the gate rules (default: 5m)

	AuthBurst        int // auth endpoints: burst per client IP
	AuthRefillPerMin int // auth endpoints: tokens refilled per minute per client IP

	// Redis (optional, empty addr = record cache disabled)
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts
	CacheTTL              time.Duration // lifetime of cached record lists (default: 30s)

	AllowedHosts []string // optional, restrict /reload to specific Host headers
	AllowedCIDRS []string // optional, restrict ops endpoints to specific IPs (e.g. "1.2.3.4, 10.0.0.0/8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

// Production reports whether the service runs with production settings.
func (c *Config) Production() bool { return c.Env == "production" }

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present; variables already set
// win over it.
func Load() *Config {
	_ = godotenv.Load() // optional

	env := strings.ToLower(firstEnv("development", "JOBTRAIL_ENV", "NODE_ENV"))

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("JOBTRAIL_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("JOBTRAIL_SHUTDOWN_TIMEOUT", 5*time.Second),
		Env:             env,

		// Logging
		LogLevel:  getenv("JOBTRAIL_LOG_LEVEL", "info"),
		PrettyLog: mustBool("JOBTRAIL_PRETTY_LOG", env != "production"),

		// Remote API
		APIURL:          requireURL("JOBTRAIL_API_URL", "NEXT_PUBLIC_API_URL"),
		FrontendURL:     strings.TrimRight(firstEnv("http://localhost:3000", "JOBTRAIL_FRONTEND_URL", "NEXT_PUBLIC_FRONTEND_URL"), "/"),
		UpstreamTimeout: mustDuration("JOBTRAIL_UPSTREAM_TIMEOUT", 15*time.Second),
		SecureCookies:   mustBool("JOBTRAIL_SECURE_COOKIES", env == "production"),

		// Pages and route gate
		StaticDir:      getenv("JOBTRAIL_STATIC_DIR", ""),
		GateFile:       getenv("JOBTRAIL_GATE_FILE", ""),
		ReloadInterval: mustDuration("JOBTRAIL_RELOAD_INTERVAL", 5*time.Minute),

		AuthBurst:        getenvInt("JOBTRAIL_AUTH_BURST", 10),
		AuthRefillPerMin: getenvInt("JOBTRAIL_AUTH_REFILL_PER_MIN", 5),

		// Redis settings
		RedisAddr:             getenv("JOBTRAIL_REDIS_ADDR", ""),
		RedisUser:             getenv("JOBTRAIL_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("JOBTRAIL_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("JOBTRAIL_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("JOBTRAIL_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),
		CacheTTL:              mustDuration("JOBTRAIL_CACHE_TTL", 30*time.Second),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("JOBTRAIL_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("JOBTRAIL_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("JOBTRAIL_TRUST_PROXY", false),
	}

	// Validate Redis password configuration
	if cfg.RedisAddr != "" && cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: JOBTRAIL_REDIS_PASSWORD is required when JOBTRAIL_REDIS_PASSWORD_REQUIRED=true")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// firstEnv returns the first non-empty variable among keys, or def.
func firstEnv(def string, keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

// requireURL reads the first set variable among keys and checks it is an
// absolute http(s) URL. The trailing slash is dropped.
func requireURL(keys ...string) string {
	v := firstEnv("", keys...)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", strings.Join(keys, " or ")))
	}
	u, err := url.Parse(v)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		panic(fmt.Sprintf("❌ FATAL: Invalid URL for %s: %s", keys[0], v))
	}
	return strings.TrimRight(v, "/")
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

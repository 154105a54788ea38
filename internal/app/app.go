package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/jobtrail/internal/apiclient"
	"github.com/MrSnakeDoc/jobtrail/internal/cache"
	"github.com/MrSnakeDoc/jobtrail/internal/config"
	"github.com/MrSnakeDoc/jobtrail/internal/cookierelay"
	"github.com/MrSnakeDoc/jobtrail/internal/gate"
	"github.com/MrSnakeDoc/jobtrail/internal/httpserver"
	"github.com/MrSnakeDoc/jobtrail/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobtrail/internal/logger"
	"github.com/MrSnakeDoc/jobtrail/internal/redis"
	"github.com/MrSnakeDoc/jobtrail/internal/remote"
	"github.com/MrSnakeDoc/jobtrail/internal/scheduler"
	"github.com/MrSnakeDoc/jobtrail/internal/version"
)

type App struct {
	cfg          *config.Config
	logger       logger.Logger
	server       *httpserver.Server
	redisClient  *goredis.Client
	gateReloader *scheduler.GateReloader
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Redis is optional: without it the record cache is disabled. A
	// configured but unreachable Redis is fatal.
	redisClient, err := redis.New(context.Background(), redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}

	// Upstream client shared by the relay and the /api proxy. No cookie
	// jar: cookies belong to each browser session, never to the process.
	upstream := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	relay := cookierelay.New(cfg.APIURL,
		cookierelay.WithHTTPClient(upstream),
		cookierelay.WithLogger(loggerClient.Named("relay")),
	)

	// Route gate starts on the defaults, the reloader swaps in the file rules
	g := gate.New(gate.DefaultRules())
	reloadTrigger := make(chan struct{}, 1)
	gateReloader := scheduler.NewGateReloader(
		cfg.GateFile,
		g,
		loggerClient,
		cfg.ReloadInterval,
		reloadTrigger,
	)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:           loggerClient,
		StartTime:        time.Now(),
		Version:          version.Version,
		Commit:           version.Commit,
		BuildDate:        version.BuildDate,
		GoVersion:        version.GoVersion,
		TimeNow:          time.Now,
		AllowedHosts:     cfg.AllowedHosts,
		AllowedCIDRS:     cfg.AllowedCIDRS,
		TrustProxy:       cfg.TrustProxy,
		APIURL:           cfg.APIURL,
		FrontendURL:      cfg.FrontendURL,
		UpstreamTimeout:  cfg.UpstreamTimeout,
		SecureCookies:    cfg.SecureCookies,
		Relay:            relay,
		Remote:           remote.New(relay),
		Upstream:         upstream,
		Sessions:         &apiclient.Group[[]cookierelay.Cookie]{},
		Gate:             g,
		Cache:            cache.New(redisClient, cfg.CacheTTL, loggerClient.Named("cache")),
		ReloadTrigger:    reloadTrigger,
		StaticDir:        cfg.StaticDir,
		AuthBurst:        cfg.AuthBurst,
		AuthRefillPerMin: cfg.AuthRefillPerMin,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:          cfg,
		logger:       loggerClient,
		server:       server,
		redisClient:  redisClient,
		gateReloader: gateReloader,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting jobtrail v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("jobtrail %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)
	a.logger.Info("remote api configured",
		logger.String("api_url", a.cfg.APIURL),
		logger.String("env", a.cfg.Env),
		logger.Bool("secure_cookies", a.cfg.SecureCookies))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start gate reloader (loads the rules and starts periodic refresh)
	if err := a.gateReloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start gate reloader: %w", err)
	}
	a.logger.Info("gate reloader started",
		logger.String("file", a.cfg.GateFile),
		logger.Duration("interval", a.cfg.ReloadInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.gateReloader.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ jobtrail stopped cleanly")
	_ = a.logger.Sync()
	return nil
}

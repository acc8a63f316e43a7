package main

import (
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/thokoanats/luct-reporting-web/internal/gateway"
	"github.com/thokoanats/luct-reporting-web/internal/handler"
	"github.com/thokoanats/luct-reporting-web/internal/health"
	"github.com/thokoanats/luct-reporting-web/internal/service"
	"github.com/thokoanats/luct-reporting-web/internal/shell"
	"github.com/thokoanats/luct-reporting-web/pkg/config"
	"github.com/thokoanats/luct-reporting-web/pkg/export"
	"github.com/thokoanats/luct-reporting-web/pkg/kvstore"
	"github.com/thokoanats/luct-reporting-web/pkg/logger"
	corsmiddleware "github.com/thokoanats/luct-reporting-web/pkg/middleware/cors"
	reqidmiddleware "github.com/thokoanats/luct-reporting-web/pkg/middleware/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics := service.NewMetricsService()

	downloads, err := export.NewDownloads(cfg.Exports.DownloadsDir)
	if err != nil {
		logr.Sugar().Fatalw("downloads directory unavailable", "error", err)
	}

	var redisClient *redis.Client
	if cfg.Session.Store == config.SessionStoreRedis {
		redisClient, err = kvstore.NewRedisClient(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("redis unavailable", "error", err)
		}
	}

	storeFor := func(sid string) (kvstore.Store, error) {
		switch cfg.Session.Store {
		case config.SessionStoreRedis:
			return kvstore.NewRedisStore(redisClient, "session:"+sid+":", cfg.Session.TTL), nil
		case config.SessionStoreMemory:
			return kvstore.NewMemoryStore(), nil
		default:
			return kvstore.NewFileStore(filepath.Join(cfg.Session.StateDir, sid))
		}
	}

	registry := shell.NewRegistry(func(sid string) (*shell.Shell, error) {
		store, err := storeFor(sid)
		if err != nil {
			return nil, err
		}
		gw := gateway.New(gateway.Params{
			Config:  cfg.Backend,
			Store:   store,
			Saver:   downloads,
			Metrics: metrics,
			Logger:  logr,
		})
		return shell.New(shell.Params{
			Gateway:        gw,
			Store:          store,
			SearchDebounce: cfg.Shell.SearchDebounce,
			Logger:         logr,
		}), nil
	}, logr)

	probeGateway := gateway.New(gateway.Params{
		Config:  cfg.Backend,
		Metrics: metrics,
		Logger:  logr,
	})
	poller := health.NewPoller(probeGateway, cfg.Health.Timeout, logr)
	if err := poller.Start(cfg.Health.ProbeSpec); err != nil {
		logr.Sugar().Fatalw("health probe schedule invalid", "error", err)
	}
	defer poller.Stop()

	janitor := cron.New()
	if _, err := janitor.AddFunc("@every 10m", func() {
		registry.Sweep(cfg.Session.TTL)
	}); err != nil {
		logr.Sugar().Fatalw("janitor schedule invalid", "error", err)
	}
	janitor.Start()
	defer janitor.Stop()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(metricsMiddleware(metrics))

	r.LoadHTMLGlob("web/templates/*.tmpl")
	r.Static("/static", "./web/static")

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "backend_up": poller.Up()})
	})
	if cfg.Metrics.Enabled {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	web := handler.NewWebHandler(handler.Params{
		Registry: registry,
		Cookies:  handler.NewCookieCodec(cfg.Session.Secret, cfg.Session.TTL),
		Backend:  poller,
		Logger:   logr,
	})
	web.Register(r)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "backend", cfg.Backend.BaseURL)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func metricsMiddleware(metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metrics.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

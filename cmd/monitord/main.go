package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mintshield/mintshield/pkg/alerting"
	"github.com/mintshield/mintshield/pkg/clock"
	"github.com/mintshield/mintshield/pkg/config"
	"github.com/mintshield/mintshield/pkg/health"
	"github.com/mintshield/mintshield/pkg/logging"
	"github.com/mintshield/mintshield/pkg/metrics"
	"github.com/mintshield/mintshield/pkg/ratelimit"
	"github.com/mintshield/mintshield/pkg/resilience"
)

// version is stamped at build time via -ldflags
var version = "dev"

func main() {
	// Load .env file if present (development convenience)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.NewLogger(&logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      cfg.Logging.Output,
		ServiceName: "monitord",
		Version:     version,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logging.SetGlobalLogger(logger)

	clk := clock.New()

	// Core telemetry
	collector := metrics.NewCollector(metrics.Config{MaxHistory: cfg.Metrics.MaxHistory}, clk)
	recorder := resilience.NewRecorder(clk, logger)
	breakers := resilience.NewBreakerRegistry(resilience.BreakerConfig{
		Threshold: cfg.Breaker.Threshold,
		Window:    cfg.Breaker.Window,
	}, clk, logger)

	// Prometheus bridge
	registry := prometheus.NewRegistry()
	exporter := metrics.NewExporter(collector, cfg.Metrics.Namespace)
	exporter.Register(registry)

	// System resource poller
	poller := metrics.NewSystemPoller(collector, cfg.Metrics.PollInterval, logger)

	// Alerting
	alerts := alerting.NewManager(collector.GetMetrics, clk, logger)
	alerts.RegisterDefaultRules()
	alerts.AddHandler(alerting.NewLoggingHandler(logger))
	if cfg.Alerting.WebhookURL != "" {
		alerts.AddHandler(alerting.NewWebhookHandler(cfg.Alerting.WebhookURL, 0))
	}

	// Optional Redis for distributed rate limiting
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.Warn("Redis unavailable, rate limiting falls back to local state", "error", err)
		}
		cancel()
		defer redisClient.Close()
	}

	limiter := buildLimiter(cfg, clk, redisClient)

	// Health checks
	healthSvc := health.NewService(cfg.Health.Timeout, logger)
	if cfg.Health.RPCURL != "" {
		healthSvc.Register("rpc", health.NewHTTPChecker(cfg.Health.RPCURL, cfg.Health.Timeout))
	}
	if cfg.Health.IPFSURL != "" {
		// Authenticated gateways answer 401 to unauthenticated probes
		healthSvc.Register("ipfs", health.NewHTTPChecker(cfg.Health.IPFSURL, cfg.Health.Timeout, http.StatusOK, http.StatusUnauthorized))
	}

	router := setupRouter(cfg, logger, collector, recorder, breakers, alerts, healthSvc, limiter, registry)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Background loops
	ctx, stop := context.WithCancel(context.Background())
	go poller.Start(ctx)
	go alerts.Loop(ctx, cfg.Alerting.CheckInterval)

	go func() {
		logger.Info("Starting monitoring server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	stop()
	poller.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

func buildLimiter(cfg *config.Config, clk clock.Clock, redisClient *redis.Client) ratelimit.Limiter {
	switch strings.ToLower(cfg.RateLimit.Strategy) {
	case "sliding_window":
		return ratelimit.BindSlidingWindow(ratelimit.NewSlidingWindow(clk), cfg.RateLimit.Limit, cfg.RateLimit.Window)
	case "fixed_window":
		if redisClient != nil {
			return ratelimit.BindRedisFixedWindow(ratelimit.NewRedisFixedWindow(redisClient, "", clk), cfg.RateLimit.Limit, cfg.RateLimit.Window)
		}
		return ratelimit.BindFixedWindow(ratelimit.NewFixedWindow(clk), cfg.RateLimit.Limit, cfg.RateLimit.Window)
	default:
		return ratelimit.BindTokenBucket(ratelimit.NewTokenBucket(clk), cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate)
	}
}

func setupRouter(
	cfg *config.Config,
	logger *logging.Logger,
	collector *metrics.Collector,
	recorder *resilience.Recorder,
	breakers *resilience.BreakerRegistry,
	alerts *alerting.Manager,
	healthSvc *health.Service,
	limiter ratelimit.Limiter,
	registry *prometheus.Registry,
) *gin.Engine {
	if strings.ToLower(cfg.Logging.Level) != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.HTTPMiddleware(collector))
	router.Use(ratelimit.Middleware(limiter, logger))

	router.GET("/health", healthSvc.Handler())
	router.GET("/health/live", healthSvc.LivenessHandler())
	router.GET("/health/ready", healthSvc.ReadinessHandler())

	router.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, collector.GetMetrics())
	})
	router.GET("/metrics/prometheus", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	router.GET("/alerts", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"alerts": alerts.ActiveAlerts(50)})
	})

	router.GET("/errors", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"errors": recorder.Stats()})
	})

	router.GET("/breakers", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"breakers": breakers.Snapshot()})
	})

	return router
}

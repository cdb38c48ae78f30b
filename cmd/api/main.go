package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"

	"github.com/annapurna-pos/backend-billing/internal/common"
	"github.com/annapurna-pos/backend-billing/internal/config"
	"github.com/annapurna-pos/backend-billing/internal/db"
	"github.com/annapurna-pos/backend-billing/internal/health"
	"github.com/annapurna-pos/backend-billing/internal/menu"
	"github.com/annapurna-pos/backend-billing/internal/obs"
	"github.com/annapurna-pos/backend-billing/internal/order"
	"github.com/annapurna-pos/backend-billing/internal/report"
	"github.com/annapurna-pos/backend-billing/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "billing")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, "billing-api")
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse redis url")
		}
		redisClient = redis.NewClient(redisOpts)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("ping redis")
		}
	}

	ledger := store.New(pool)

	if cfg.MenuCSVPath != "" {
		seeded, err := seedMenu(ctx, ledger, cfg.MenuCSVPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.MenuCSVPath).Msg("bootstrap menu")
		}
		logger.Info().Int("items", seeded).Msg("menu bootstrap complete")
	}

	menuRows, err := ledger.ListMenu(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("load menu")
	}
	catalog := menu.FromItems(menuRows)
	if catalog.Len() == 0 {
		logger.Warn().Msg("menu is empty; orders cannot be created until it is seeded")
	}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	orderHandler := &order.Handler{
		Ledger:   ledger,
		Catalog:  catalog,
		GSTBps:   cfg.GSTBps,
		Validate: validator.New(),
	}
	reportSvc := &report.Service{Q: ledger, R: redisClient, TTL: cfg.ReportCacheTTL}
	reportHandler := &report.Handler{Svc: reportSvc}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Idempotency-Key"},
		MaxAge:         300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := health.Handler{
		Checker:      readinessChecker{db: pool, redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/menu", orderHandler.Menu)
		v.Get("/orders", orderHandler.List)
		v.Get("/orders/{orderID}", orderHandler.Get)
		v.With(idem.Middleware).Post("/orders", orderHandler.Create)
		v.Get("/reports/sales", reportHandler.Sales)
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
}

func seedMenu(ctx context.Context, ledger *store.Store, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	catalog, err := menu.LoadCSV(f)
	if err != nil {
		return 0, err
	}
	return ledger.BootstrapMenu(ctx, catalog.Items())
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(pingCtx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) (bool, error) {
	if c.redis == nil {
		return true, nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return false, c.redis.Ping(pingCtx).Err()
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDurationMillis(key string, fallback int64) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return time.Duration(fallback) * time.Millisecond
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil || parsed <= 0 {
		return time.Duration(fallback) * time.Millisecond
	}
	return time.Duration(parsed) * time.Millisecond
}

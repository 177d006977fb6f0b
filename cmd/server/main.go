package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/zombar/citeaudit/internal/api"
	"github.com/zombar/citeaudit/internal/auditor"
	"github.com/zombar/citeaudit/internal/cache"
	"github.com/zombar/citeaudit/internal/database"
	"github.com/zombar/citeaudit/internal/queue"
	"github.com/zombar/citeaudit/pkg/logging"
	"github.com/zombar/citeaudit/pkg/metrics"
	"github.com/zombar/citeaudit/pkg/tracing"
)

const serviceName = "citeaudit"

var (
	errRedisRequired = errors.New("redis cache backend requires REDIS_ADDR")
	errUnknownCache  = errors.New("unknown cache backend")
)

func main() {
	// Setup structured logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("citeaudit service initializing", "version", "1.0.0")

	// Get default values from environment variables, with fallbacks
	var (
		port         = flag.String("port", getEnv("PORT", "8080"), "Server port (env: PORT)")
		dbDriver     = flag.String("db-driver", getEnv("DB_DRIVER", database.DriverSQLite), "Database driver, postgres or sqlite (env: DB_DRIVER)")
		dbDSN        = flag.String("db", getEnv("DB_DSN", "citeaudit.db"), "Database connection string or file path (env: DB_DSN)")
		redisAddr    = flag.String("redis", getEnv("REDIS_ADDR", ""), "Redis address for the audit queue and shared cache (env: REDIS_ADDR)")
		cacheBackend = flag.String("cache", getEnv("CACHE_BACKEND", "local"), "Metrics cache: local, redis or none (env: CACHE_BACKEND)")
		cacheTTL     = flag.Duration("cache-ttl", getEnvDuration("CACHE_TTL", auditor.DefaultCacheTTL), "Metrics cache TTL (env: CACHE_TTL)")
		configPath   = flag.String("config", getEnv("AUDIT_CONFIG", ""), "YAML file overriding audit rules and thresholds (env: AUDIT_CONFIG)")
		concurrency  = flag.Int("worker-concurrency", getEnvInt("WORKER_CONCURRENCY", 4), "Audit worker concurrency (env: WORKER_CONCURRENCY)")
		runWorker    = flag.Bool("worker", getEnvBool("RUN_WORKER", true), "Run the audit worker in this process when Redis is set (env: RUN_WORKER)")
		otelEnabled  = flag.Bool("otel", getEnvBool("OTEL_ENABLED", false), "Export traces over OTLP (env: OTEL_ENABLED, OTEL_EXPORTER_OTLP_ENDPOINT)")
	)
	flag.Parse()

	if *otelEnabled {
		tp, err := tracing.InitTracer(serviceName)
		if err != nil {
			logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
		} else {
			defer func() {
				if err := tp.Shutdown(context.Background()); err != nil {
					logger.Error("error shutting down tracer", "error", err)
				}
			}()
			logger.Info("tracing initialized successfully")
		}
	}

	cfg, err := auditor.LoadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load audit config", "error", err, "path", *configPath)
		os.Exit(1)
	}

	// Initialize database
	db, err := database.New(*dbDriver, *dbDSN)
	if err != nil {
		logger.Error("failed to initialize database", "error", err, "driver", *dbDriver)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	dbMetrics := metrics.NewDatabaseMetrics(serviceName, nil)
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			refreshDBMetrics(db, dbMetrics, logger)
		}
	}()

	auditMetrics := metrics.NewAuditMetrics(serviceName, nil)

	metricsCache, closeCache, err := newMetricsCache(*cacheBackend, *redisAddr, auditMetrics)
	if err != nil {
		logger.Error("failed to initialize metrics cache", "error", err, "backend", *cacheBackend)
		os.Exit(1)
	}
	a := auditor.New(cfg, auditor.WithCache(metricsCache, *cacheTTL))

	// The queue needs Redis; without it documents are audited on submit
	var (
		queueClient api.QueueClient
		worker      *queue.Worker
	)
	if *redisAddr != "" {
		client := queue.NewClient(queue.ClientConfig{RedisAddr: *redisAddr})
		defer client.Close()
		queueClient = client

		if *runWorker {
			worker = queue.NewWorker(queue.WorkerConfig{
				RedisAddr:   *redisAddr,
				Concurrency: *concurrency,
			}, db, a, auditMetrics)

			go func() {
				if err := worker.Start(); err != nil {
					logger.Error("worker stopped", "error", err)
				}
			}()
		}
	} else {
		logger.Info("no redis configured, audits run inline")
	}

	apiHandler := api.NewHandler(db, a, queueClient, auditMetrics)

	// HTTP logging -> tracing -> handlers
	handler := logging.HTTPLoggingMiddleware(logger)(
		tracing.HTTPMiddleware(serviceName)(apiHandler),
	)

	srv := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("citeaudit service starting",
			"port", *port,
			"db_driver", *dbDriver,
			"cache", *cacheBackend,
			"cache_ttl", cacheTTL.String(),
			"queue_enabled", queueClient != nil,
			"worker_enabled", worker != nil,
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if worker != nil {
		worker.Shutdown()
	}
	if err := closeCache(); err != nil {
		logger.Error("failed to close metrics cache", "error", err)
	}

	logger.Info("server stopped")
}

// newMetricsCache builds the cache named by backend, counting hits and
// misses in m. The returned close func releases any connection the cache
// holds and must be called once the cache is no longer used.
func newMetricsCache(backend, redisAddr string, m *metrics.AuditMetrics) (auditor.MetricsCache, func() error, error) {
	noClose := func() error { return nil }

	switch backend {
	case "none":
		return cache.Noop{}, noClose, nil
	case "redis":
		if redisAddr == "" {
			return nil, nil, errRedisRequired
		}
		rc, err := cache.NewRedis(redisAddr)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewInstrumented(rc, backend, m), rc.Close, nil
	case "local", "":
		return cache.NewInstrumented(cache.NewLocal(cache.DefaultCapacity), "local", m), noClose, nil
	default:
		return nil, nil, errUnknownCache
	}
}

// refreshDBMetrics copies pool statistics and per-status document counts
// into m
func refreshDBMetrics(db *database.DB, m *metrics.DatabaseMetrics, logger *slog.Logger) {
	m.UpdateDBStats(db.Conn())

	counts, err := db.CountByStatus()
	if err != nil {
		logger.Warn("failed to count documents", "error", err)
		return
	}
	m.UpdateDocumentCounts(counts)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

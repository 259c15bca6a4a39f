package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cricket-club-backend/config"
	v1 "cricket-club-backend/internal/delivery/http/v1"
	"cricket-club-backend/internal/usecase"
	"cricket-club-backend/pkg/cache"
	"cricket-club-backend/pkg/clock"
	"cricket-club-backend/pkg/database"
	"cricket-club-backend/pkg/dnscheck"
	"cricket-club-backend/pkg/email"
	"cricket-club-backend/pkg/logger"
	"cricket-club-backend/pkg/metrics"
	"cricket-club-backend/pkg/ratelimit"
	redisclient "cricket-club-backend/pkg/redis"
	"cricket-club-backend/pkg/security"
	"cricket-club-backend/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/heptiolabs/healthcheck"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const janitorInterval = time.Minute

func main() {
	configFile := pflag.String("config", "", "optional config file (yaml, json, toml or .env)")
	pflag.Parse()

	// 1. Load Config
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	// 2. Setup Logger
	logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Development: !cfg.IsProduction(),
		LogFile:     cfg.LogFile,
	})
	zlog := logger.Log
	zlog.Info("Starting cricket club backend", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	m := metrics.New(nil)
	clk := clock.Real()
	secLog := security.NewSecurityLogger(zlog, "cricket-club-backend", cfg.AppEnv)
	probes := healthcheck.NewHandler()
	probes.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(1000))
	checks := map[string]usecase.HealthCheck{}

	// 3. Optional Redis for shared rate limits and the domain cache
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = redisclient.New(ctx, redisclient.Config{URL: cfg.RedisURL, Password: cfg.RedisPassword})
		if err != nil {
			zlog.Warn("Redis unavailable, using in-memory stores", zap.Error(err))
			rdb = nil
		} else {
			defer rdb.Close()
			check := func(ctx context.Context) error { return redisclient.HealthCheck(ctx, rdb) }
			checks["redis"] = check
			probes.AddReadinessCheck("redis", probeFunc(check))
		}
	}

	// 4. Optional Postgres for security event persistence
	var pool *pgxpool.Pool
	if cfg.DBUrl != "" {
		pool, err = database.NewPostgresConnection(ctx, cfg.DBUrl)
		if err != nil {
			zlog.Warn("Database unavailable, security events are logged only", zap.Error(err))
			pool = nil
		} else {
			defer pool.Close()
			check := func(ctx context.Context) error { return pool.Ping(ctx) }
			checks["database"] = check
			probes.AddReadinessCheck("database", probeFunc(check))
		}
	}
	if pool != nil && cfg.SecurityLogToDB {
		repo := security.NewSecurityEventRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			zlog.Error("Failed to prepare security_events table", zap.Error(err))
		} else {
			secLog.SetPersistFunc(repo.PersistEvent)
		}
	}

	// 5. Rate limiter
	rlCfg := ratelimit.Config{Window: cfg.RateLimitWindow(), Max: cfg.RateLimitMax}
	memLimiter := ratelimit.NewMemoryStore(rlCfg, ratelimit.WithClock(clk), ratelimit.WithMaxKeys(cfg.RateLimitMaxKeys))
	memLimiter.StartJanitor(ctx, janitorInterval)
	var limiter ratelimit.Limiter = memLimiter
	if rdb != nil {
		limiter = &ratelimit.Fallback{
			Primary:   ratelimit.NewRedisStore(rdb, rlCfg, ""),
			Secondary: memLimiter,
			OnError: func(err error) {
				m.IncRateLimitStoreError()
				zlog.Warn("Rate limit store failed, using memory", zap.Error(err))
			},
		}
	}

	// 6. Domain reachability cache
	var domainCache cache.Cache
	if rdb != nil {
		domainCache = cache.NewRedis(rdb, "cricket:")
	} else {
		mem := cache.NewMemory(cache.MemoryConfig{MaxEntries: cfg.DomainCacheMaxEntries, Clock: clk})
		mem.StartJanitor(ctx, janitorInterval)
		domainCache = mem
	}
	domains := dnscheck.New(
		dnscheck.WithCache(domainCache),
		dnscheck.WithClock(clk),
		dnscheck.WithLogger(zlog),
		dnscheck.WithMetrics(m),
	)

	// 7. Setup Email Service
	mailCfg := email.Config{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		Secure:    cfg.SMTPSecure,
		Username:  cfg.SMTPUsername,
		Password:  cfg.SMTPPassword,
		From:      cfg.MailFrom,
		To:        cfg.MailTo,
		PerMinute: cfg.MailSendPerMinute,
	}
	missingMail := mailCfg.Missing()
	if !mailCfg.IsConfigured() {
		zlog.Warn("Email service not fully configured - contact form will be unavailable", zap.Strings("missing", missingMail))
	}
	sender := email.NewSender(mailCfg)

	// 8. Setup UseCases
	contactUC := usecase.NewContactUsecase(sender, domains, validation.New(),
		usecase.ContactConfig{MailFrom: cfg.MailFrom, MailTo: cfg.MailTo, MissingMail: missingMail},
		usecase.WithClock(clk),
		usecase.WithLogger(zlog),
		usecase.WithSecurityLogger(secLog),
		usecase.WithMetrics(m),
	)
	squadUC := usecase.NewSquadUsecase(usecase.SquadConfig{URL: cfg.SquadAPIURL, Key: cfg.SquadAPIKey}, nil, clk, m)
	healthUC := usecase.NewHealthUsecase(checks, missingMail)

	// 9. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		ContactUC:      contactUC,
		SquadUC:        squadUC,
		HealthUC:       healthUC,
		Limiter:        limiter,
		AllowedOrigins: cfg.AllowedOrigins,
		IsProduction:   cfg.IsProduction(),
		Probes:         probes,
		Logger:         zlog,
		SecurityLogger: secLog,
		Metrics:        m,
	})

	// 10. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Error("Listen failed", zap.Error(err))
			stop()
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	zlog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("Server forced to shutdown", zap.Error(err))
	}
	stop()
	secLog.Wait()
	_ = secLog.Sync()

	zlog.Info("Server exiting")
}

// probeFunc adapts a context-aware check to the probe handler.
func probeFunc(check usecase.HealthCheck) healthcheck.Check {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return check(ctx)
	}
}

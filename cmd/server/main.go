package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	_ "github.com/lib/pq"

	"github.com/smartbudget/smartbudget-server/internal/advisor"
	"github.com/smartbudget/smartbudget-server/internal/database"
	apperrors "github.com/smartbudget/smartbudget-server/internal/errors"
	"github.com/smartbudget/smartbudget-server/internal/events"
	"github.com/smartbudget/smartbudget-server/internal/expense"
	"github.com/smartbudget/smartbudget-server/internal/group"
	"github.com/smartbudget/smartbudget-server/internal/health"
	"github.com/smartbudget/smartbudget-server/internal/i18n"
	"github.com/smartbudget/smartbudget-server/internal/idempotency"
	"github.com/smartbudget/smartbudget-server/internal/identity"
	"github.com/smartbudget/smartbudget-server/internal/jobs"
	jobhandlers "github.com/smartbudget/smartbudget-server/internal/jobs/handlers"
	"github.com/smartbudget/smartbudget-server/internal/lifecycle"
	"github.com/smartbudget/smartbudget-server/internal/market"
	mw "github.com/smartbudget/smartbudget-server/internal/middleware"
	"github.com/smartbudget/smartbudget-server/internal/notify"
	"github.com/smartbudget/smartbudget-server/internal/ratelimit"
	"github.com/smartbudget/smartbudget-server/internal/repository"
	"github.com/smartbudget/smartbudget-server/internal/router"
	"github.com/smartbudget/smartbudget-server/internal/session"
	"github.com/smartbudget/smartbudget-server/pkg/config"
	"github.com/smartbudget/smartbudget-server/pkg/graceful"
	"github.com/smartbudget/smartbudget-server/pkg/logger"
	appredis "github.com/smartbudget/smartbudget-server/pkg/redis"
)

const migrationsDir = "migrations"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New(*cfg)
	log.Info("starting smartbudget server",
		slog.String("env", cfg.AppEnv),
		slog.String("port", cfg.Server.Port),
	)

	config.WatchLogLevel(v, log, logger.SetLevel)

	shutdown := lifecycle.NewShutdown(log)

	// Postgres.
	db, err := sql.Open("postgres", cfg.DB.DSN())
	if err != nil {
		log.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	shutdown.Register("database", func(context.Context) error { return db.Close() })

	if err := apperrors.WithRetry(ctx, func() error { return db.PingContext(ctx) }); err != nil {
		log.Error("failed to ping database", slog.Any("error", err))
		os.Exit(1)
	}

	migrator := database.NewMigrator(db, log)
	if err := migrator.ApplyDir(ctx, migrationsDir); err != nil {
		log.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Redis backs the shared session slot, idempotency, rate limiting,
	// change events, and background jobs.
	rdb, err := appredis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}
	shutdown.Register("redis", func(context.Context) error { return rdb.Close() })

	errHandler := apperrors.NewHandler(log, cfg.Sentry.Enabled)

	// Identity.
	accounts := repository.NewAccountRepository(db, log)
	identitySvc := identity.NewService(accounts, identity.NewCache(rdb.Client), log)

	if cfg.Session.SeedDemoAccount {
		if err := identity.SeedDemoAccount(ctx, accounts, cfg.Session.DemoPassword, log); err != nil {
			log.Error("failed to seed demo account", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Notifications and translations.
	translations, err := i18n.Load("en")
	if err != nil {
		log.Error("failed to load translations", slog.Any("error", err))
		os.Exit(1)
	}

	emitter := notify.NewEmitter(log, cfg.Notify.DefaultTTL, cfg.Notify.BufferSize)
	go emitter.Run(ctx)

	// Session store over the configured durable slot.
	var slot session.Storage
	if cfg.Session.Backend == "redis" {
		slot = session.NewRedisStorage(rdb.Client, log)
	} else {
		slot = session.NewFileStorage(cfg.Session.FilePath, log)
	}

	store := session.NewStore(slot, identitySvc, emitter, errHandler, translations, log)
	store.Start(ctx)

	// Change events and domain services.
	bus := events.NewBus(rdb.Client, log)

	idemManager := idempotency.NewManager(idempotency.NewRedisStore(rdb.Client, log), log)
	go idempotency.NewCleaner(rdb.Client, log, time.Hour).Run(ctx)

	expenses := expense.NewService(repository.NewExpenseRepository(db, log), idemManager, bus, log)
	groups := group.NewService(repository.NewGroupRepository(db, log), accounts, bus, log)

	quotes := market.NewQuoteService(log)
	news := market.NewNewsService()

	advisorEngine := advisor.NewEngine(cfg.Advisor.ThinkDelay, log)

	if cfg.Advisor.Telegram.Enabled {
		bot, err := advisor.NewBot(*cfg, advisorEngine, errHandler, log)
		if err != nil {
			log.Error("failed to start advisor telegram bot", slog.Any("error", err))
			os.Exit(1)
		}

		go bot.Start()
		shutdown.Register("advisor-bot", func(context.Context) error {
			bot.Stop()
			return nil
		})
	}

	// Background market refresh.
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	worker := jobs.NewWorker(redisOpt, map[string]int{
		jobs.QueueCritical: 6,
		jobs.QueueDefault:  3,
		jobs.QueueLow:      1,
	}, log)
	worker.RegisterHandler(jobs.TaskTypeMarketRefresh, jobhandlers.NewMarketRefreshHandler(quotes, bus, log))

	go func() {
		if err := worker.Run(); err != nil {
			log.Error("jobs worker stopped", slog.Any("error", err))
		}
	}()
	shutdown.Register("jobs-worker", func(context.Context) error {
		worker.Shutdown()
		return nil
	})

	queue := jobs.NewManager(redisOpt, log)
	shutdown.Register("jobs-queue", func(context.Context) error { return queue.Close() })

	// Refresh quotes once right away instead of waiting for the first cron tick.
	if task, err := jobs.NewMarketRefreshTask(nil); err == nil {
		if _, err := queue.Enqueue(ctx, task); err != nil {
			log.Warn("startup market refresh enqueue failed", slog.Any("error", err))
		}
	}

	scheduler := jobs.NewScheduler(redisOpt, cfg.Market.RefreshCron, log)
	if err := scheduler.RegisterTasks(); err != nil {
		log.Error("failed to register scheduled tasks", slog.Any("error", err))
		os.Exit(1)
	}
	scheduler.Run()
	shutdown.Register("jobs-scheduler", func(context.Context) error {
		scheduler.Shutdown()
		return nil
	})

	// Rate limiting: Redis primary, stricter in-memory fallback.
	memLimiter := ratelimit.NewMemoryLimiter(log)
	limiter := ratelimit.NewAdaptiveLimiter(
		ratelimit.NewRedisLimiter(rdb.Client, log),
		memLimiter,
		log,
	)
	rateLimitMw := mw.NewRateLimitMiddleware(limiter, ratelimit.NewRules(cfg.RateLimit), log)
	go ratelimit.NewCleaner(rdb.Client, log, time.Hour).Run(ctx)
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				memLimiter.Cleanup(time.Hour)
			}
		}
	}()

	// Health.
	checker := health.NewChecker(log)
	checker.AddCheck("database", health.NewDBChecker(db))
	checker.AddCheck("redis", health.NewRedisChecker(rdb.Client))
	probes := lifecycle.NewProbes(checker, log)

	routes := router.New(router.Deps{
		Store:     store,
		Emitter:   emitter,
		Expenses:  expenses,
		Groups:    groups,
		Advisor:   advisorEngine,
		Quotes:    quotes,
		News:      news,
		Bus:       bus,
		Health:    checker,
		Probes:    probes,
		RateLimit: rateLimitMw,
		Log:       log,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      routes,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	server := graceful.NewServer(log, srv, cfg.Server.ShutdownTimeout)
	if err := server.ListenAndServe(ctx); err != nil {
		log.Error("http server error", slog.Any("error", err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := shutdown.Execute(shutdownCtx); err != nil {
		log.Error("shutdown finished with errors", slog.Any("error", err))
	}

	log.Info("smartbudget server stopped")
}

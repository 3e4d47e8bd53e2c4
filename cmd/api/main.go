package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/legalease/backend/internal/accounts"
	"github.com/legalease/backend/internal/api"
	"github.com/legalease/backend/internal/bootstrap"
	redisclient "github.com/legalease/backend/internal/cache/redis"
	"github.com/legalease/backend/internal/cases"
	"github.com/legalease/backend/internal/chatbot"
	"github.com/legalease/backend/internal/ingestion"
	"github.com/legalease/backend/internal/llm"
	"github.com/legalease/backend/internal/metrics"
	"github.com/legalease/backend/internal/middleware/ratelimit"
	"github.com/legalease/backend/internal/notify"
	"github.com/legalease/backend/pkg/config"
	appLogger "github.com/legalease/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting LegalEase API Server")

	metrics.Init()

	ctx := context.Background()

	store, err := bootstrap.OpenStore(ctx, cfg.Store)
	if err != nil {
		appLogger.Fatal("Failed to open store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer bootstrap.CloseStore(store)

	if cfg.Store.SeedOnStart {
		seeded, err := ingestion.NewProcessor(store).SeedIfEmpty(ctx)
		if err != nil {
			appLogger.Warn("Failed to seed catalogue", zap.Error(err))
		} else if seeded {
			appLogger.Info("Seeded empty catalogue with built-in records")
		}
	}

	var (
		redis   *redisclient.Client
		sender  notify.Sender = notify.LogSender{}
		limiter *ratelimit.RateLimiter
		deps    api.Deps
	)

	if cfg.Redis.Enabled {
		redis, err = redisclient.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Fatal("Failed to create Redis client", zap.Error(err))
		}
		defer redis.Close()

		sender = notify.NewRedisSender(redis, cfg.Redis.Stream)
		deps.Redis = redis
	}

	limiterCfg := ratelimit.Config{
		MaxRequestsPerMinute: cfg.Server.RateLimitPerMinute,
		Logger:               appLogger.GetLogger(),
	}
	if redis != nil {
		limiterCfg.Shared = redis
	}
	limiter = ratelimit.New(limiterCfg)
	defer limiter.Stop()

	provider, err := llm.NewProvider(ctx, cfg.LLM)
	if err != nil {
		appLogger.Fatal("Failed to create LLM provider", zap.Error(err))
	}
	if closer, ok := provider.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	policy, err := cases.ParseCounterPolicy(cfg.Cases.CounterPolicy)
	if err != nil {
		appLogger.Fatal("Invalid counter policy", zap.Error(err))
	}

	deps.Store = store
	deps.Engine = chatbot.NewEngine(store, provider,
		chatbot.WithMaxTokens(cfg.LLM.MaxTokens),
		chatbot.WithMaxQuestionLength(cfg.Server.MaxQuestionLength),
	)
	deps.Cases = cases.NewService(store, policy)
	deps.Accounts = accounts.NewService(store)
	deps.Notifier = notify.NewNotifier(store, sender)
	deps.RateLimiter = limiter
	deps.AccessLog = cfg.Server.Development

	app := api.NewApp(cfg.Server, deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting",
		zap.String("address", addr),
		zap.String("store", cfg.Store.Driver),
		zap.Bool("redis", cfg.Redis.Enabled),
		zap.Bool("provider_configured", provider != nil),
		zap.String("counter_policy", string(policy)),
	)

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Warn("Server shutdown incomplete", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}

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

	"chezben/config"
	"chezben/internal/cache"
	"chezben/internal/database"
	"chezben/internal/events"
	"chezben/internal/logger"
	"chezben/internal/mailer"
	"chezben/internal/metrics"
	"chezben/internal/middleware"
	"chezben/internal/router"
	"chezben/internal/ws"
	"chezben/pkg/cloudinary"
	"chezben/pkg/payment"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: .env not loaded: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zlog, err := logger.New(cfg.Server.Env, cfg.Log.Level)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := middleware.RegisterValidators(); err != nil {
		zlog.Fatal("validators", zap.Error(err))
	}

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		zlog.Fatal("database", zap.Error(err))
	}
	if err := database.AutoMigrate(db); err != nil {
		zlog.Fatal("migrate", zap.Error(err))
	}
	if err := database.SeedAdmin(db, &cfg.Marketplace, zlog); err != nil {
		zlog.Fatal("seed admin", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := router.Deps{
		DB:       db,
		Cooldown: cache.NewMemoryCooldown(),
		Events:   events.Noop{},
		Mailer:   mailer.NewSMTPSender(&cfg.SMTP),
		Payments: &payment.StubProvider{},
		Hub:      ws.NewHub(),
		Metrics:  metrics.New("chezben"),
		Limiter:  middleware.NewInMemoryRateLimiter(cfg.Server.RateLimit, cfg.Server.RateWindow),
		Log:      zlog,
	}
	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			zlog.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
		deps.Redis = rdb
		deps.Cooldown = cache.NewRedisCooldown(rdb, "chezben:")
		zlog.Info("view cooldowns stored in redis", zap.String("addr", cfg.Redis.Addr))
	}
	if cfg.NATS.URL != "" {
		pub, err := events.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix, zlog)
		if err != nil {
			zlog.Fatal("nats", zap.Error(err))
		}
		defer pub.Close()
		deps.Events = pub
	}
	cloud, err := cloudinary.NewClientFromParams(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
	if err != nil {
		zlog.Fatal("cloudinary", zap.Error(err))
	}
	deps.Images = cloud

	svcs := router.NewServices(cfg, deps)
	if err := svcs.Settings.Seed(); err != nil {
		zlog.Fatal("seed settings", zap.Error(err))
	}
	go svcs.Boosts.RunExpiry(ctx, cfg.Marketplace.BoostSweepEvery)
	go deps.Limiter.RunSweeper(ctx)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.Setup(cfg, deps, svcs),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		zlog.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server shutdown", zap.Error(err))
	}
	zlog.Info("server stopped")
}

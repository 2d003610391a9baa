package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bonded.app/memories/internal/config"
	"bonded.app/memories/internal/server"
	"bonded.app/memories/pkg/database"
	"bonded.app/memories/pkg/logger"
	"bonded.app/memories/pkg/metrics"
	"bonded.app/memories/pkg/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	db, err := database.Connect(cfg.DSN(), !cfg.IsProduction())
	if err != nil {
		zlog.Fatal("database connection failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		zlog.Fatal("migration failed", zap.Error(err))
	}

	redisClient := connectRedis(cfg, zlog)
	media := connectStorage(cfg, zlog)

	metrics.InitPrometheus()

	srv, err := server.NewServer(cfg, db, redisClient, media, zlog)
	if err != nil {
		zlog.Fatal("failed to build server", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.SeedAchievements(ctx); err != nil {
		zlog.Fatal("startup seed failed", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	select {
	case err := <-errCh:
		if err != nil {
			zlog.Fatal("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		zlog.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}

// connectRedis returns nil when REDIS_URL is unset or unreachable; the
// service then runs without caching, rate limits or live notifications.
func connectRedis(cfg *config.Config, zlog *zap.Logger) *redis.Client {
	if cfg.RedisURL == "" {
		zlog.Warn("REDIS_URL not set, running without redis")
		return nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		zlog.Fatal("invalid REDIS_URL", zap.Error(err))
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		zlog.Warn("redis unreachable, running without redis", zap.Error(err))
		_ = client.Close()
		return nil
	}
	zlog.Info("redis connected", zap.String("addr", opt.Addr))
	return client
}

func connectStorage(cfg *config.Config, zlog *zap.Logger) storage.MediaStorage {
	if os.Getenv("CLOUDINARY_URL") == "" {
		zlog.Warn("CLOUDINARY_URL not set, media uploads disabled")
		return nil
	}

	media, err := storage.NewCloudinaryStorage(cfg.CloudinaryCloudName, cfg.CloudinaryUploadFolder)
	if err != nil {
		zlog.Fatal("failed to initialize cloudinary storage", zap.Error(err))
	}
	return media
}

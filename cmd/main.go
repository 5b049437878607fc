package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qufit/backend/internal/api/handler"
	"qufit/backend/internal/config"
	"qufit/backend/internal/feed"
	"qufit/backend/internal/roomlock"
	"qufit/backend/internal/search"
	"qufit/backend/internal/storage"
	"qufit/backend/internal/token"
	"qufit/backend/internal/videoroom"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}

func setupDependencies(ctx context.Context, cfg *config.Config) (*gorm.DB, *redis.Client) {
	// 1. PostgreSQL
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		fatal("failed to connect PostgreSQL", "error", err)
	}

	// 2. Redis
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		fatal("invalid REDIS_URL", "error", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		fatal("failed to connect Redis", "error", err)
	}

	// 3. Migrations
	if err := storage.NewStorageService(db, nil).AutoMigrate(ctx); err != nil {
		fatal("failed to run migrations", "error", err)
	}

	slog.Info("database and redis connections established, migrations complete")
	return db, rdb
}

func newLocker(cfg *config.Config, rdb *redis.Client) roomlock.Locker {
	if cfg.LockBackend == config.LockBackendRedis {
		return roomlock.NewRedis(rdb)
	}
	return roomlock.NewLocal()
}

func main() {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		fatal("invalid configuration", "error", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	if err := cfg.ValidateServer(); err != nil {
		fatal("invalid configuration", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting qufit video room backend", "addr", cfg.HTTPAddr, "lock_backend", cfg.LockBackend)

	// 1. Dependencies
	db, rdb := setupDependencies(ctx, cfg)
	defer rdb.Close()
	s := storage.NewStorageService(db, rdb)

	issuer, err := token.NewIssuer(cfg.LiveKitAPIKey, cfg.LiveKitAPISecret, cfg.TokenTTL)
	if err != nil {
		fatal("token issuer misconfigured", "error", err)
	}

	// 2. Room services
	manager := videoroom.NewManager(s, newLocker(cfg, rdb), issuer)
	manager.Events = s
	query := videoroom.NewQueryService(s)

	if cfg.Search.Enabled() {
		client, err := search.NewClient(cfg.Search)
		if err != nil {
			fatal("failed to create search client", "error", err)
		}
		indexer := search.NewRoomIndexer(client, cfg.Search.RoomIndex)
		if err := indexer.EnsureIndex(ctx); err != nil {
			slog.Warn("search index unavailable, rooms will be indexed once it is reachable", "error", err)
		}
		manager.Index = indexer
	} else {
		slog.Info("ELASTICSEARCH_URL not set, room indexing disabled")
	}

	// 3. Room feed
	hub := feed.NewHub()
	go hub.Run(ctx)
	if err := hub.StartPubSubListener(ctx, s); err != nil {
		fatal("failed to subscribe to room events", "error", err)
	}

	// 4. HTTP
	gin.SetMode(gin.ReleaseMode)
	h := handler.NewHandler(manager, query, hub)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown failed", "error", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fatal("http server failed", "error", err)
	}
	<-hub.Done()
	slog.Info("server stopped")
}

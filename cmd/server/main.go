package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"polly-backend/auth"
	"polly-backend/cache"
	"polly-backend/config"
	"polly-backend/database"
	"polly-backend/handlers"
	"polly-backend/logging"
	"polly-backend/migrations"
	"polly-backend/mq"
	"polly-backend/repository"
	"polly-backend/routes"
	"polly-backend/service"
	"polly-backend/websocket"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm/logger"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.IsProduction())
	log := logging.Module("main")

	db, err := database.Open(cfg.Database, gormLogLevel(cfg.LogLevel))
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer database.Close(db)

	if err := migrations.Run(db); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	hub := websocket.NewHub()
	go hub.Run(ctx)

	// Redis is optional; without it the server runs as a single instance.
	var (
		rdb      redis.UniversalClient
		views    *cache.ViewCache
		sessions auth.SessionStore
		fanout   service.Revalidators
		memStore *auth.MemorySessionStore
	)

	client, err := cache.Connect(ctx, cfg.Redis)
	if err != nil {
		log.WithError(err).Warn("redis unavailable, running single-instance")
		views = cache.NewViewCache(nil, nil, cfg.Cache.TTL)
		memStore = auth.NewMemorySessionStore()
		sessions = memStore
		fanout = service.Revalidators{hub}
	} else {
		defer client.Close()
		rdb = client
		views = cache.NewViewCache(client, cache.NewLockService(client), cfg.Cache.TTL)
		sessions = auth.NewRedisSessionStore(client)

		bus := mq.NewRevalidationBus(client, hub)
		if err := bus.Start(ctx); err != nil {
			log.WithError(err).Warn("revalidation bus not started, updates stay local")
		}
		defer bus.Stop()
		fanout = service.Revalidators{views, bus}
	}

	store := repository.NewCachedPollStore(repository.NewGormPollStore(db), views)
	polls := service.NewPollService(store, fanout)
	authService := auth.NewService(db, sessions, cfg.Session.TTL)
	limiter := handlers.NewRateLimiter(cfg.RateLimit.Enabled, cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	go housekeeping(ctx, limiter, memStore)

	router := routes.SetupRouter(routes.Dependencies{
		Config:      cfg,
		DB:          db,
		Redis:       rdb,
		Polls:       polls,
		Auth:        authService,
		Hub:         hub,
		RateLimiter: limiter,
	})
	srv := routes.StartServer(router, cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shut down")
	}
	stop()

	log.Info("server stopped")
}

// housekeeping drops idle rate limiter buckets and expired in-memory sessions
func housekeeping(ctx context.Context, limiter *handlers.RateLimiter, sessions *auth.MemorySessionStore) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	log := logging.Module("main")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fields := logrus.Fields{"rate_limit_clients": limiter.Sweep(10 * time.Minute)}
			if sessions != nil {
				fields["sessions"] = sessions.Sweep()
			}
			log.WithFields(fields).Debug("housekeeping done")
		}
	}
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug", "trace":
		return logger.Info
	case "error", "fatal", "panic":
		return logger.Error
	default:
		return logger.Warn
	}
}

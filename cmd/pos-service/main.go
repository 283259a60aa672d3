package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cafe-pos/internal/auth"
	"cafe-pos/internal/cache"
	"cafe-pos/internal/config"
	"cafe-pos/internal/database"
	"cafe-pos/internal/database/migrations"
	"cafe-pos/internal/kafka"
	"cafe-pos/internal/logger"
	"cafe-pos/internal/order/feed"
	rediswrap "cafe-pos/internal/order/redis"
	"cafe-pos/internal/server"

	"github.com/go-redis/redis/v8"
)

func connectRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("REDIS", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("REDIS", fmt.Sprintf("✅ Redis connection successful to %s (DB: %d)", cfg.Addr, cfg.DB))
	return client
}

func newFeed(cfg *config.Config, redisClient *redis.Client, producer *kafka.Producer, log *logger.Logger) feed.Feed {
	switch cfg.Notifier.Feed {
	case "redis":
		return feed.NewRedis(redisClient, cfg.Notifier.Channel, log)
	case "kafka":
		if producer == nil {
			log.Fatal("CONFIG", "ORDER_FEED=kafka requires KAFKA_ENABLED=true")
		}
		return feed.NewKafka(producer, cfg.Kafka.Brokers, cfg.Kafka.Topics.OrderChanged, cfg.Kafka.GroupID, log)
	case "local", "":
		return feed.NewLocal()
	default:
		log.Fatal("CONFIG", fmt.Sprintf("unknown ORDER_FEED %q", cfg.Notifier.Feed))
		return nil
	}
}

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Dir, cfg.Log.Level)
	if err != nil {
		log = logger.NewLogger()
	}
	defer log.Close()

	log.Info("APP", "Starting cafe POS service")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bunDB, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	if cfg.Database.AutoMigrate && cfg.Database.Driver != "sqlite" {
		runner := migrations.NewRunner(bunDB, migrations.Options{MigrationsDir: cfg.Database.MigrationsDir}, log)
		if err := runner.Run(); err != nil {
			log.Fatal("MIGRATE", err.Error())
		}
		runner.Close()
	}

	var redisClient *redis.Client
	if cfg.Cache.Backend == "redis" || cfg.Notifier.Feed == "redis" {
		redisClient = connectRedis(ctx, cfg.Redis, log)
		defer redisClient.Close()
	}

	var store cache.Store = cache.NewLocal(cfg.Cache.TTL)
	if cfg.Cache.Backend == "redis" {
		store = cache.NewRedis(redisClient, cfg.Cache.TTL)
	}
	appCache := cache.New(store, log, cfg.Cache.TTL)
	defer appCache.Close()
	log.Info("CACHE", fmt.Sprintf("Using %s cache (TTL %s)", cfg.Cache.Backend, cfg.Cache.TTL))

	var events server.EventPublisher = kafka.NopPublisher{}
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer producer.Close()
		events = producer

		topics := cfg.Kafka.Topics
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{topics.OrderCreated, topics.OrderUpdated, topics.OrderChanged, topics.TicketCreated}, log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		log.Info("KAFKA", "Kafka producer initialized successfully")
	}

	deps := server.Deps{
		DB:     bunDB,
		Cache:  appCache,
		Feed:   newFeed(cfg, redisClient, producer, log),
		Events: events,
		Config: cfg,
		Logger: log,
	}
	if redisClient != nil {
		deps.Guard = rediswrap.NewSubmissionGuard(redisClient, 0)
	}

	app, err := server.Wire(deps)
	if err != nil {
		log.Fatal("APP", err.Error())
	}

	if err := app.Counter.Initialize(ctx, cfg.Counter.StartFrom); err != nil {
		log.Warn("COUNTER", fmt.Sprintf("Ticket counter not initialized: %v", err))
	}
	if err := app.Board.Start(ctx); err != nil {
		log.Fatal("NOTIFIER", fmt.Sprintf("Failed to start pending orders board: %v", err))
	}
	defer app.Board.Stop()

	verifier, err := auth.NewVerifier(ctx, cfg.Auth)
	if err != nil {
		log.Fatal("AUTH", err.Error())
	}
	verifier = auth.NewCachingVerifier(verifier, appCache.Store())

	checks := map[string]server.HealthCheck{
		"database": func(ctx context.Context) error { return bunDB.PingContext(ctx) },
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      server.NewRouter(cfg.Server, verifier, app.Handlers, checks, log),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Cafe POS running on %s", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	<-ctx.Done()
	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Cafe POS shutdown complete")
	}
}

// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/eventhub/internal/auth"
	"github.com/Shivanand-hulikatti/eventhub/internal/config"
	"github.com/Shivanand-hulikatti/eventhub/internal/database"
	"github.com/Shivanand-hulikatti/eventhub/internal/handler"
	"github.com/Shivanand-hulikatti/eventhub/internal/lock"
	"github.com/Shivanand-hulikatti/eventhub/internal/logging"
	"github.com/Shivanand-hulikatti/eventhub/internal/notify"
	"github.com/Shivanand-hulikatti/eventhub/internal/repository"
	"github.com/Shivanand-hulikatti/eventhub/internal/service"
)

func main() {
	ctx := context.Background()

	// ── 1. Configuration and logging ─────────────────────────────────────
	cfg, err := config.Load(getEnv("CONFIG_FILE", "config.yaml"))
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logging.New(cfg.Log)

	// ── 2. Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}
	log.Info().Str("db", cfg.Database.DBName).Msg("connected to PostgreSQL")

	// ── 3. Per-event lock and notifications ──────────────────────────────
	var locker lock.Locker = lock.NewKeyedLocker()
	if cfg.Redis.Enabled {
		rdb, err := lock.NewRedisClient(ctx, cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("redis")
		}
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, cfg.Redis.LockTTL, log)
		log.Info().Str("addr", cfg.Redis.Addr()).Msg("using redis event locks")
	}

	var notifier notify.Publisher = notify.Noop{}
	if cfg.RabbitMQ.URL != "" {
		rmq, err := notify.NewRabbitPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			log.Fatal().Err(err).Msg("rabbitmq")
		}
		defer rmq.Close()
		notifier = rmq
	}

	// ── 4. Wire up layers ────────────────────────────────────────────────
	eventRepo := repository.NewEventRepository(pool)
	eventSvc := service.NewEventService(eventRepo, locker, notifier, log, service.Options{
		MaxRetries:  cfg.Mutation.MaxRetries,
		LockTimeout: cfg.Mutation.LockTimeout,
	})
	eventHandler := handler.NewEventHandler(eventSvc, log)
	router := handler.NewRouter(eventHandler, handler.RouterConfig{
		Verifier:       auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Log:            log,
	})

	// ── 5. Start server with graceful shutdown ───────────────────────────
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		return
	}
	log.Info().Msg("server stopped")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

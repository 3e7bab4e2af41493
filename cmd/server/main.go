// cmd/server/main.go
// Entry point for the pickup-run API server.
// cmd/ holds the executables; internal/ holds the packages they are built from.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/trentd187/pickup-run/internal/auth"
	"github.com/trentd187/pickup-run/internal/config"
	"github.com/trentd187/pickup-run/internal/database"
	"github.com/trentd187/pickup-run/internal/handlers"
	"github.com/trentd187/pickup-run/internal/store"
	"github.com/trentd187/pickup-run/internal/websocket"
)

func main() {
	log := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	configureLogger(log, cfg)

	// Connect to PostgreSQL and bring the schema up to date before serving anything.
	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	if err := database.RunMigrations(cfg.MigrationsPath, cfg.DatabaseURL); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	revoker, closeRevoker := newRevoker(ctx, cfg, log)
	defer closeRevoker()

	// The hub owns every live roster connection; it stops when ctx is cancelled.
	hub := websocket.NewHub()
	go hub.Run(ctx)

	app := handlers.NewApp(handlers.Deps{
		Store:   store.New(db, log),
		Issuer:  auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Revoker: revoker,
		Hub:     hub,
		Log:     log,
	})

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Error("shutdown")
		}
	}()

	log.WithFields(logrus.Fields{"port": cfg.Port, "env": cfg.Env}).Info("starting server")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

// configureLogger applies LOG_LEVEL and picks JSON output everywhere but development.
func configureLogger(log *logrus.Logger, cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("log_level", cfg.LogLevel).Warn("unknown LOG_LEVEL, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	if cfg.IsDevelopment() {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
}

// newRevoker uses Redis when REDIS_ADDR is set, so logouts are shared by every instance.
// Without it, revocations live in this process only.
func newRevoker(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (auth.Revoker, func()) {
	if cfg.RedisAddr == "" {
		log.Warn("REDIS_ADDR not set; token revocations are kept in memory")
		return auth.NewMemoryRevoker(), func() {}
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.WithError(err).WithField("addr", cfg.RedisAddr).Fatal("failed to connect to redis")
	}
	return auth.NewRedisRevoker(rdb), func() { _ = rdb.Close() }
}

package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"attendance-portal/internal/attendance"
	"attendance-portal/internal/auth"
	"attendance-portal/internal/config"
	"attendance-portal/internal/handler"
	"attendance-portal/internal/httpmiddleware"
	"attendance-portal/internal/identity"
	"attendance-portal/internal/leave"
	"attendance-portal/internal/store"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "optional YAML config; environment variables override it")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	if cfg.Env == config.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, log); err != nil {
		log.Error("http server failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg config.App, log *slog.Logger) error {
	ctx := context.Background()

	backend, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close() }()
	log.Info("store ready", slog.String("backend", backend.Name))

	health := map[string]handler.HealthCheck{
		"store": func(ctx context.Context) bool { return backend.Ping(ctx) == nil },
	}

	var (
		revoked auth.RevocationList
		limiter httpmiddleware.Limiter
	)
	switch cfg.Cache.Backend {
	case config.CacheRedis:
		redisClient, err := store.NewRedis(ctx, cfg.Cache.RedisAddr)
		if err != nil {
			return err
		}
		defer func() { _ = redisClient.Close() }()
		revoked = auth.NewRedisRevocations(redisClient.Client, "")
		limiter = httpmiddleware.NewRedisWindow(redisClient.Client, "", cfg.RateLimitPerMin)
		health["redis"] = redisClient.Healthy
	default:
		revoked = auth.NewMemoryRevocations()
		limiter = httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
	}
	if cfg.RateLimitPerMin == 0 {
		limiter = nil
	}

	tokens := auth.NewTokenService(cfg.Auth.SigningKey, cfg.Auth.Issuer, cfg.Auth.AccessTTL)
	h := handler.NewHandler(handler.Deps{
		Identity:    identity.NewService(backend.Users, auth.NewBcryptHasher(bcrypt.DefaultCost), tokens, revoked),
		Ledger:      attendance.NewLedger(backend.Attendance),
		Leave:       leave.NewWorkflow(backend.Leave, leave.Policy{AllowRedecide: cfg.Leave.AllowRedecide}),
		Gate:        auth.NewGate(tokens, revoked, log),
		Limiter:     limiter,
		Health:      health,
		CORSOrigins: cfg.CORSAllowOrigins,
		Log:         log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      h.InitRoutes(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting server", slog.String("addr", srv.Addr), slog.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return err
	case <-quit:
	}
	log.Info("shutting down server")

	// Give outstanding requests 10 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced shutdown", slog.Any("error", err))
	}

	log.Info("server exited")
	return nil
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case config.EnvLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case config.EnvDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}
	return log
}

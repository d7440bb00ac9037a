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

	"github.com/joho/godotenv"

	"github.com/fortify/fortify-go/internal/config"
	"github.com/fortify/fortify-go/internal/crypto"
	"github.com/fortify/fortify-go/internal/logger"
	"github.com/fortify/fortify-go/internal/repository"
	"github.com/fortify/fortify-go/internal/repository/memory"
	"github.com/fortify/fortify-go/internal/server"
	"github.com/fortify/fortify-go/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New("fortify", cfg.LogLevel)
	slog.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	users, closeStore, err := openUserStore(ctx, cfg, log)
	if err != nil {
		log.Error("user store unavailable", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	hasher := crypto.NewPasswordHasher(crypto.DefaultHashParams())
	tokens := crypto.NewTokenIssuer(cfg.JWTSecret, cfg.AccessLifetime, cfg.RefreshLifetime)
	authService, err := service.NewAuthService(users, hasher, tokens)
	if err != nil {
		log.Error("building auth service", "error", err)
		os.Exit(1)
	}

	router, err := server.NewRouter(ctx, cfg, authService, log)
	if err != nil {
		log.Error("building router", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

// openUserStore returns the configured user store and a function releasing it.
func openUserStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (service.UserStore, func(), error) {
	if cfg.StoreDriver == "memory" {
		log.Warn("using in-memory user store; accounts are lost on restart")
		return memory.NewUserStore(), func() {}, nil
	}

	db, err := repository.NewDB(cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}

	if cfg.DBMigrate {
		if err := repository.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
	}

	return repository.NewUserRepository(db), func() { db.Close() }, nil
}

// @title                      Task Manager API
// @version                    1.0
// @description                Authentication and role-based user management for the task board.
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
// @description                Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/taskboard/task-manager/internal/api"
	"github.com/taskboard/task-manager/internal/api/handler"
	"github.com/taskboard/task-manager/internal/core/ports"
	"github.com/taskboard/task-manager/internal/core/security"
	"github.com/taskboard/task-manager/internal/core/service"
	"github.com/taskboard/task-manager/internal/infrastructure/config"
	mongostore "github.com/taskboard/task-manager/internal/infrastructure/db/mongo"
	pgstore "github.com/taskboard/task-manager/internal/infrastructure/db/postgres"
	redisstore "github.com/taskboard/task-manager/internal/infrastructure/db/redis"
	"github.com/taskboard/task-manager/pkg/logger"
)

const serviceName = "task-manager"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
	})
	if cfg.UsingDevSecret {
		log.Warn().Msg("JWT_SECRET not set, signing tokens with the development secret")
	}

	repo, pingers, closeStore, err := openUserStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	var opts []service.AuthOption
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()

		throttle := redisstore.NewLoginThrottle(rdb, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginLockoutAfter)
		opts = append(opts, service.WithLoginThrottle(throttle))
		pingers = append(pingers, redisstore.NewPinger(rdb))
		log.Info().Str("addr", cfg.Redis.Addr).Msg("login throttling enabled")
	}

	tokens, err := security.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	authService := service.NewAuthService(
		repo,
		security.NewBcryptHasher(cfg.Auth.BcryptCost),
		tokens,
		log.With().Str("component", "auth").Logger(),
		opts...,
	)

	if cfg.Admin.Email != "" {
		created, err := authService.BootstrapAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		if !created {
			log.Debug().Msg("initial admin already present")
		}
	}

	e := api.NewRouter(api.Dependencies{
		AuthService: authService,
		Pingers:     pingers,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddress()).Str("store", cfg.StoreDriver).Msg("http server listening")
		if err := e.Start(cfg.HTTPAddress()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	return nil
}

// openUserStore connects the repository selected by STORE_DRIVER.
func openUserStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.UserRepository, []handler.Pinger, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		repo, err := pgstore.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, nil, err
		}
		log.Info().Msg("connected to postgres")
		return repo, []handler.Pinger{repo}, repo.Close, nil

	default:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  serviceName,
		})
		if err != nil {
			return nil, nil, nil, err
		}

		repo := mongostore.NewUserRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")

		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Error().Err(err).Msg("mongo disconnect")
			}
		}
		return repo, []handler.Pinger{mongostore.NewPinger(client)}, closeFn, nil
	}
}

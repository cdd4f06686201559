// Command server runs the earnings ledger HTTP API.
//
// @title                       Earnings Ledger API
// @version                     1.0
// @description                 Tracks investment applications and their dated earnings, with per-owner dashboards.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
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

	"github.com/rs/zerolog"

	"github.com/earnings-tracker/ledger-api/internal/api"
	"github.com/earnings-tracker/ledger-api/internal/api/handler"
	"github.com/earnings-tracker/ledger-api/internal/core/ports"
	"github.com/earnings-tracker/ledger-api/internal/core/service"
	"github.com/earnings-tracker/ledger-api/internal/infrastructure/config"
	"github.com/earnings-tracker/ledger-api/internal/infrastructure/db/memory"
	mongostore "github.com/earnings-tracker/ledger-api/internal/infrastructure/db/mongo"
	"github.com/earnings-tracker/ledger-api/internal/infrastructure/db/postgres"
	rediscache "github.com/earnings-tracker/ledger-api/internal/infrastructure/db/redis"
	"github.com/earnings-tracker/ledger-api/internal/infrastructure/http/handlers"
	"github.com/earnings-tracker/ledger-api/internal/infrastructure/queue"
	"github.com/earnings-tracker/ledger-api/internal/infrastructure/seed"
	"github.com/earnings-tracker/ledger-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// store is what every backend provides.
type store interface {
	ports.UserRepository
	ports.LedgerRepository
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "ledger-api",
	})

	st, closeStore, err := openStore(ctx, cfg, logger.Component("store"))
	if err != nil {
		return err
	}
	defer closeStore()

	var (
		cache ports.StatsCache
		deps  = map[string]handlers.Pinger{"store": st}
	)
	if cfg.Redis.Addr != "" {
		client, err := rediscache.Connect(ctx, rediscache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer client.Close()

		statsCache := rediscache.NewStatsCache(client, "ledger")
		cache = statsCache
		deps["redis"] = statsCache
		log.Info().Str("addr", cfg.Redis.Addr).Msg("stats cache enabled")
	}

	// The serializer outlives the signal context so in-flight requests can
	// finish their writes during e.Shutdown.
	writesCtx, stopWrites := context.WithCancel(context.Background())
	defer stopWrites()
	writes := queue.NewSerializer(cfg.WriteWorkers, logger.Component("serializer"))
	writes.Start(writesCtx)

	tokens := service.NewJWTIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authService := service.NewAuthService(st, tokens, logger.Component("auth"))
	ledgerService := service.NewLedgerService(st, writes, cache, logger.Component("ledger"))
	statsService := service.NewStatsService(st, cache, cfg.Redis.StatsTTL, logger.Component("stats"))

	if cfg.SeedUsersPath != "" {
		n, err := seed.FromFile(ctx, cfg.SeedUsersPath, authService, logger.Component("seed"))
		if err != nil {
			return err
		}
		log.Info().Int("created", n).Str("path", cfg.SeedUsersPath).Msg("users seeded")
	}

	e := api.NewRouter(api.Deps{
		Auth:   authService,
		Ledger: ledgerService,
		Stats:  statsService,
		Tokens: tokens,
		Cookie: handler.CookieConfig{Name: cfg.Auth.SessionCookie, Secure: cfg.Auth.CookieSecure},
		Health: deps,
		Log:    logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("driver", cfg.Store.Driver).Msg("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err = e.Shutdown(shutdownCtx)
	stopWrites()
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openStore connects the backend selected by STORE_DRIVER. The returned func
// releases it.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.Store.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		log.Info().Msg("postgres store ready")
		return postgres.New(db), func() { _ = db.Close() }, nil

	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, nil, err
		}
		disconnect := func() {
			dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = client.Disconnect(dctx)
		}
		s := mongostore.New(client, db)
		if err := s.EnsureIndexes(ctx); err != nil {
			disconnect()
			return nil, nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongo store ready")
		return s, disconnect, nil

	default:
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return memory.New(), func() {}, nil
	}
}

// Command server runs the bookmarket identity API.
//
//	@title						Bookmarket Identity API
//	@version					1.0
//	@description				Registration, login and role-gated access for the bookmarket marketplace.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the token.
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

	"github.com/bookmarket/identity/internal/api"
	"github.com/bookmarket/identity/internal/core/domain"
	"github.com/bookmarket/identity/internal/core/ports"
	"github.com/bookmarket/identity/internal/core/service"
	"github.com/bookmarket/identity/internal/infrastructure/db/memory"
	mongostore "github.com/bookmarket/identity/internal/infrastructure/db/mongo"
	sqlitestore "github.com/bookmarket/identity/internal/infrastructure/db/sqlite"
	"github.com/bookmarket/identity/internal/infrastructure/security"
	"github.com/bookmarket/identity/internal/pkg/config"
	"github.com/bookmarket/identity/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// store is what the server needs from a storage backend.
type store interface {
	ports.IdentityRepository
	ports.HealthChecker
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "identity",
	})

	repo, closeStore, err := openStore(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}
	defer closeStore()

	role, ok := domain.ParseRole(cfg.Auth.DefaultRole)
	if !ok || !role.ClientSettable() {
		log.Warn().Str("default_role", cfg.Auth.DefaultRole).Msg("DEFAULT_ROLE is not client-settable, using buyer")
		role = domain.RoleBuyer
	}

	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost, cfg.Auth.HashConcurrency)
	codec := security.NewJWTCodec(cfg.Auth)

	e := api.NewRouter(api.Dependencies{
		AuthService:     service.NewAuthService(repo, hasher, codec, role, logger.Component("auth")),
		IdentityService: service.NewIdentityService(repo, hasher, logger.Component("identity")),
		Tokens:          codec,
		Identities:      repo,
		HealthCheckers:  []ports.HealthChecker{repo},
		CORSOrigins:     cfg.CORSOrigins,
		Logger:          logger.Component("http"),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("storage", repo.Name()).Str("env", cfg.Env).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server exited")
	return nil
}

// openStore connects the configured backend and prepares its schema.
func openStore(ctx context.Context, cfg config.Storage, log zerolog.Logger) (store, func(), error) {
	switch cfg.Driver {
	case config.DriverMemory:
		log.Warn().Msg("using in-memory storage, identities are lost on restart")
		return memory.NewIdentityRepository(), func() {}, nil

	case config.DriverSQLite:
		db, err := sqlitestore.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := db.Close(); err != nil {
				log.Error().Err(err).Msg("close sqlite")
			}
		}
		return sqlitestore.NewIdentityRepository(db), closeFn, nil

	default:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.MongoURI, Database: cfg.MongoDatabase})
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := mongostore.Disconnect(context.Background(), client); err != nil {
				log.Error().Err(err).Msg("disconnect mongo")
			}
		}
		repo := mongostore.NewIdentityRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("ensure indexes: %w", err)
		}
		return repo, closeFn, nil
	}
}

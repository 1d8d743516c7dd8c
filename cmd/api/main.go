package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/usersmanager/account-service/internal/api"
	"github.com/usersmanager/account-service/internal/api/metrics"
	"github.com/usersmanager/account-service/internal/core/service"
	"github.com/usersmanager/account-service/internal/infrastructure/queue"
	"github.com/usersmanager/account-service/internal/pkg/config"
	"github.com/usersmanager/account-service/pkg/logger"
)

// @title                       Account Service API
// @version                     1.0
// @description                 Account lifecycle management: creation with delayed activation, soft deletion, lookup, listing and basic authentication.
// @BasePath                    /
// @securityDefinitions.basic   BasicAuth
func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Env == "development",
		Service: "account-service",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("account service stopped")
	}
	log.Info().Msg("account service stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.close()

	locker, err := openLocker(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer locker.close()

	hasher, err := service.NewPasswordHasher(cfg.PasswordScheme)
	if err != nil {
		return err
	}

	recorder := metrics.NewRecorder(prometheus.DefaultRegisterer)
	runner := queue.NewRunner(recorder.PendingActivations(), log)

	svc, err := service.NewAccountService(service.Dependencies{
		Store:           store.store,
		Locker:          locker.locker,
		Runner:          runner,
		Hasher:          hasher,
		Metrics:         recorder,
		ActivationDelay: cfg.ActivationDelay,
	}, log)
	if err != nil {
		return err
	}

	if err := bootstrapAdmin(ctx, svc, cfg.Bootstrap, log); err != nil {
		return err
	}

	readiness := store.pingers()
	for name, p := range locker.pingers() {
		readiness[name] = p
	}

	e := api.NewRouter(api.RouterConfig{
		Service:   svc,
		Readiness: readiness,
		Metrics:   recorder,
		Log:       log,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().
			Str("port", cfg.Port).
			Str("store", cfg.StoreDriver).
			Str("locker", cfg.Locker).
			Dur("activation_delay", cfg.ActivationDelay).
			Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := e.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		if err := runner.Wait(shutdownCtx); err != nil {
			log.Warn().Err(err).Int64("pending", runner.Pending()).Msg("activations still pending at shutdown")
		}
		return nil
	})

	return g.Wait()
}

package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/usersmanager/account-service/internal/core/domain"
	"github.com/usersmanager/account-service/internal/core/ports"
	"github.com/usersmanager/account-service/internal/infrastructure/db/memory"
	mongostore "github.com/usersmanager/account-service/internal/infrastructure/db/mongo"
	"github.com/usersmanager/account-service/internal/infrastructure/db/postgres"
	redislock "github.com/usersmanager/account-service/internal/infrastructure/db/redis"
	"github.com/usersmanager/account-service/internal/pkg/config"
)

type storeBackend struct {
	store  ports.UserStore
	pinger ports.Pinger
	close  func()
}

func (b storeBackend) pingers() map[string]ports.Pinger {
	return map[string]ports.Pinger{"store": b.pinger}
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storeBackend, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			return storeBackend{}, err
		}
		store := mongostore.NewAccountStore(db)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return storeBackend{}, fmt.Errorf("mongo indexes: %w", err)
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")
		return storeBackend{
			store:  store,
			pinger: store,
			close:  func() { _ = client.Disconnect(context.Background()) },
		}, nil

	case config.StorePostgres:
		db, err := postgres.Open(ctx, postgres.Config{DSN: cfg.Postgres.DSN})
		if err != nil {
			return storeBackend{}, err
		}
		store := postgres.NewAccountStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return storeBackend{}, err
		}
		log.Info().Msg("connected to postgres")
		return storeBackend{
			store:  store,
			pinger: store,
			close:  func() { _ = db.Close() },
		}, nil

	case config.StoreMemory:
		log.Warn().Msg("using in-memory account store, data is lost on restart")
		store := memory.NewAccountStore()
		return storeBackend{store: store, pinger: store, close: func() {}}, nil
	}
	return storeBackend{}, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

type lockerBackend struct {
	locker ports.Locker
	pinger ports.Pinger
	close  func()
}

func (b lockerBackend) pingers() map[string]ports.Pinger {
	if b.pinger == nil {
		return nil
	}
	return map[string]ports.Pinger{"redis": b.pinger}
}

func openLocker(ctx context.Context, cfg *config.Config, log zerolog.Logger) (lockerBackend, error) {
	switch cfg.Locker {
	case config.LockerRedis:
		client, err := redislock.Connect(ctx, redislock.Config{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		if err != nil {
			return lockerBackend{}, err
		}
		locker := redislock.NewLocker(client, cfg.Redis.LockTTL, log)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")
		return lockerBackend{
			locker: locker,
			pinger: locker,
			close:  func() { _ = client.Close() },
		}, nil

	case config.LockerMemory:
		return lockerBackend{locker: memory.NewKeyedLocker(), close: func() {}}, nil
	}
	return lockerBackend{}, fmt.Errorf("unknown locker %q", cfg.Locker)
}

// bootstrapAdmin creates the configured administrator. An existing admin or
// login is not an error, so restarts are harmless.
func bootstrapAdmin(ctx context.Context, svc ports.AccountService, cfg config.BootstrapConfig, log zerolog.Logger) error {
	if cfg.AdminLogin == "" {
		return nil
	}

	res, err := svc.CreateAccount(ctx, ports.CreateAccountInput{
		Login:    cfg.AdminLogin,
		Password: cfg.AdminPassword,
		Role:     domain.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	switch res.Outcome {
	case ports.OutcomeCreated:
		log.Info().Str("login", cfg.AdminLogin).Msg("bootstrap admin created")
	default:
		log.Info().Str("login", cfg.AdminLogin).Str("outcome", res.Outcome.String()).Msg("bootstrap admin skipped")
	}
	return nil
}

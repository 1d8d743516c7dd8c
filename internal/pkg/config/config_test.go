package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %q", cfg.Port)
	}
	if cfg.StoreDriver != StoreMongo || cfg.Locker != LockerRedis {
		t.Errorf("unexpected drivers: %q / %q", cfg.StoreDriver, cfg.Locker)
	}
	if cfg.PasswordScheme != "sha256" {
		t.Errorf("expected sha256 scheme, got %q", cfg.PasswordScheme)
	}
	if cfg.ActivationDelay != 0 {
		t.Errorf("expected no activation delay, got %v", cfg.ActivationDelay)
	}
	if cfg.ShutdownTimeout != 15*time.Second {
		t.Errorf("expected 15s shutdown timeout, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Mongo.Database != "accounts" {
		t.Errorf("expected accounts database, got %q", cfg.Mongo.Database)
	}
	if cfg.Redis.LockTTL != 30*time.Second {
		t.Errorf("expected 30s lock ttl, got %v", cfg.Redis.LockTTL)
	}
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"STORE_DRIVER":             "postgres",
		"LOCKER":                   "memory",
		"ACTIVATION_DELAY":         "1500ms",
		"PASSWORD_SCHEME":          "bcrypt",
		"BOOTSTRAP_ADMIN_LOGIN":    "root1",
		"BOOTSTRAP_ADMIN_PASSWORD": "secret",
		"REDIS_DB":                 "3",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.StoreDriver != StorePostgres || cfg.Locker != LockerMemory {
		t.Errorf("unexpected drivers: %q / %q", cfg.StoreDriver, cfg.Locker)
	}
	if cfg.ActivationDelay != 1500*time.Millisecond {
		t.Errorf("expected 1.5s delay, got %v", cfg.ActivationDelay)
	}
	if cfg.Bootstrap.AdminLogin != "root1" || cfg.Redis.DB != 3 {
		t.Errorf("unexpected overrides: %+v", cfg)
	}
}

func TestLoadWith_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown store":      {"STORE_DRIVER": "sqlite"},
		"unknown locker":     {"LOCKER": "etcd"},
		"unknown scheme":     {"PASSWORD_SCHEME": "md5"},
		"negative delay":     {"ACTIVATION_DELAY": "-1s"},
		"half bootstrap":     {"BOOTSTRAP_ADMIN_LOGIN": "root1"},
		"malformed duration": {"SHUTDOWN_TIMEOUT": "soon"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadWith(context.Background(), envconfig.MapLookuper(env))
			if err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestLoad_PanicsOnInvalidEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected Load to panic")
		}
		if msg, _ := r.(string); !strings.Contains(msg, "STORE_DRIVER") {
			t.Errorf("unexpected panic message: %v", r)
		}
	}()
	Load()
}

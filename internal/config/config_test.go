package config

import (
	"testing"
	"time"

	"github.com/Ridhim15/Danam-Application/internal/donation"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("REALTIME_SOURCE", "")
	t.Setenv("DONATION_TRANSITION_MODE", "")
	t.Setenv("DANAM_PORT", "")
	t.Setenv("DB_PORT", "")
	t.Setenv("CORS_ORIGIN", "")
	t.Setenv("SESSION_SWEEP_MINUTES", "")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "8085" || cfg.StoreBackend != StorePostgres || cfg.RealtimeSource != RealtimePostgres {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.TransitionMode != donation.ModeStrict {
		t.Fatalf("TransitionMode = %q", cfg.TransitionMode)
	}
	if cfg.Database.Port != 5432 || cfg.SessionSweep != 10*time.Minute {
		t.Fatalf("cfg = %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ALLOW_DEV_TOKEN", "true")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("REALTIME_SOURCE", "")
	t.Setenv("DONATION_TRANSITION_MODE", "legacy")
	t.Setenv("CORS_ORIGIN", "https://danam.app, http://localhost:8081")
	t.Setenv("DB_PORT", "not-a-number")
	t.Setenv("REDIS_DB", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RealtimeSource != RealtimeMemory {
		t.Fatalf("memory store should fall back to memory realtime, got %q", cfg.RealtimeSource)
	}
	if cfg.TransitionMode != donation.ModeLegacy {
		t.Fatalf("TransitionMode = %q", cfg.TransitionMode)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://localhost:8081" {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.Database.Port != 5432 || cfg.RedisDB != 2 {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"no secret":      {"JWT_SECRET": "", "ALLOW_DEV_TOKEN": ""},
		"bad mode":       {"JWT_SECRET": "s", "DONATION_TRANSITION_MODE": "eventual"},
		"bad store":      {"JWT_SECRET": "s", "STORE_BACKEND": "sqlite"},
		"bad real-time":  {"JWT_SECRET": "s", "REALTIME_SOURCE": "kafka"},
		"zero sweep":     {"JWT_SECRET": "s", "SESSION_SWEEP_MINUTES": "0"},
		"negative sweep": {"JWT_SECRET": "s", "SESSION_SWEEP_MINUTES": "-5"},
		"zero max conns": {"JWT_SECRET": "s", "DB_MAX_CONNS": "0"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for _, k := range []string{"JWT_SECRET", "ALLOW_DEV_TOKEN", "DONATION_TRANSITION_MODE", "STORE_BACKEND", "REALTIME_SOURCE", "SESSION_SWEEP_MINUTES", "DB_MAX_CONNS"} {
				t.Setenv(k, "")
			}
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

// Package config reads the service configuration from the environment.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Ridhim15/Danam-Application/internal/db"
	"github.com/Ridhim15/Danam-Application/internal/donation"
)

// Store backends
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Realtime sources
const (
	RealtimePostgres = "postgres"
	RealtimeRedis    = "redis"
	RealtimeMemory   = "memory"
)

// Config holds everything the server needs at startup
type Config struct {
	Port string

	StoreBackend      string
	Database          db.Config
	DatabaseSecretARN string

	JWTSecret     string
	AllowDevToken bool
	SessionSweep  time.Duration

	CORSOrigins []string

	RealtimeSource string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisChannel   string

	TransitionMode donation.TransitionMode
	SMSEnabled     bool
	AWSRegion      string

	SeedNGOs bool
}

// Load reads the environment and applies defaults
func Load() (*Config, error) {
	mode, err := donation.ParseTransitionMode(getEnv("DONATION_TRANSITION_MODE", string(donation.ModeStrict)))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:         getEnv("DANAM_PORT", "8085"),
		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", StorePostgres)),
		Database: db.Config{
			URL:            os.Getenv("DATABASE_URL"),
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnvInt("DB_PORT", 5432),
			User:           getEnv("DB_USER", "danam"),
			Password:       getEnv("DB_PASSWORD", ""),
			DBName:         getEnv("DB_NAME", "danam"),
			SSLMode:        getEnv("DB_SSLMODE", "prefer"),
			MaxConns:       int32(getEnvInt("DB_MAX_CONNS", 20)),
			SimpleProtocol: getEnvBool("DB_SIMPLE_PROTOCOL", false),
			PreferIPv4:     getEnvBool("DB_PREFER_IPV4", false),
		},
		DatabaseSecretARN: os.Getenv("DATABASE_SECRET_ARN"),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		AllowDevToken: getEnvBool("ALLOW_DEV_TOKEN", false),
		SessionSweep:  time.Duration(getEnvInt("SESSION_SWEEP_MINUTES", 10)) * time.Minute,

		CORSOrigins: splitList(getEnv("CORS_ORIGIN", "*")),

		RealtimeSource: strings.ToLower(getEnv("REALTIME_SOURCE", RealtimePostgres)),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		RedisChannel:   getEnv("REDIS_CHANNEL", "danam:donation_changes"),

		TransitionMode: mode,
		SMSEnabled:     getEnvBool("SMS_NOTIFICATIONS", false),
		AWSRegion:      getEnv("AWS_REGION", "ap-south-1"),

		SeedNGOs: getEnvBool("SEED_NGOS", true),
	}

	switch cfg.StoreBackend {
	case StorePostgres, StoreMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
	switch cfg.RealtimeSource {
	case RealtimePostgres, RealtimeRedis, RealtimeMemory:
	default:
		return nil, fmt.Errorf("unknown REALTIME_SOURCE %q", cfg.RealtimeSource)
	}
	if cfg.StoreBackend == StoreMemory && cfg.RealtimeSource == RealtimePostgres {
		// nothing to LISTEN on without a database
		cfg.RealtimeSource = RealtimeMemory
	}
	if cfg.SessionSweep <= 0 {
		return nil, fmt.Errorf("SESSION_SWEEP_MINUTES must be positive, got %v", cfg.SessionSweep)
	}
	if cfg.Database.MaxConns <= 0 {
		return nil, fmt.Errorf("DB_MAX_CONNS must be positive, got %d", cfg.Database.MaxConns)
	}
	if cfg.JWTSecret == "" && !cfg.AllowDevToken {
		return nil, fmt.Errorf("JWT_SECRET is required unless ALLOW_DEV_TOKEN=true")
	}
	return cfg, nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Invalid %s value: %s, using default %d", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("Invalid %s value: %s, using default %v", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

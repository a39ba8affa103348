package db

import (
	"context"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Database holds the database connection pool
type Database struct {
	Pool *pgxpool.Pool
}

// Config holds database configuration
type Config struct {
	// URL is a full DSN; when set the discrete fields are ignored
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxConns int32
	// SimpleProtocol avoids prepared statements, which transaction poolers reject
	SimpleProtocol bool
	// PreferIPv4 dials the first A record of the host when one exists
	PreferIPv4 bool
}

// ConnString renders the configuration as a pgx connection string
func (c Config) ConnString() string {
	if c.URL != "" {
		return c.URL
	}
	if c.Password == "" {
		return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.DBName, c.SSLMode)
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// NewDatabase connects with the default retry policy and verifies the schema
func NewDatabase(ctx context.Context, cfg Config) (*Database, error) {
	return NewDatabaseWithRetry(ctx, cfg, 5, time.Second)
}

// NewDatabaseWithRetry connects with exponential backoff between attempts, then runs InitSchema
func NewDatabaseWithRetry(ctx context.Context, cfg Config, maxRetries int, initialDelay time.Duration) (*Database, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = 20
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	poolConfig.MinConns = 0
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	if cfg.SimpleProtocol {
		poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}
	if cfg.PreferIPv4 {
		poolConfig.ConnConfig.DialFunc = dialPreferIPv4
	}

	var pool *pgxpool.Pool
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		log.Printf("[DANAM-DB] Connection attempt %d/%d to %s@%s:%d",
			attempt, maxRetries, poolConfig.ConnConfig.User, poolConfig.ConnConfig.Host, poolConfig.ConnConfig.Port)

		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err = pool.Ping(pingCtx)
			cancel()
			if err == nil {
				log.Printf("[DANAM-DB] Connected on attempt %d", attempt)
				break
			}
			pool.Close()
			pool = nil
		}

		lastErr = err
		log.Printf("[DANAM-DB] Connection failed (attempt %d): %v", attempt, err)
		if attempt < maxRetries {
			delay := initialDelay * time.Duration(1<<(attempt-1))
			log.Printf("[DANAM-DB] Retrying in %v...", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	if pool == nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, lastErr)
	}

	db := &Database{Pool: pool}
	schemaCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.InitSchema(schemaCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// NewFromPool wraps an existing pool without touching the schema
func NewFromPool(pool *pgxpool.Pool) *Database {
	return &Database{Pool: pool}
}

// Close closes the database connection pool
func (db *Database) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		log.Println("[DANAM-DB] Connection pool closed")
	}
}

// Health checks if the database is reachable
func (db *Database) Health(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// dialPreferIPv4 resolves the host and dials an IPv4 address when one is available
func dialPreferIPv4(ctx context.Context, network, address string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return (&net.Dialer{}).DialContext(ctx, network, address)
	}
	ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil || len(ips) == 0 {
		return (&net.Dialer{}).DialContext(ctx, network, address)
	}
	for _, ipa := range ips {
		if v4 := ipa.IP.To4(); v4 != nil {
			return (&net.Dialer{}).DialContext(ctx, "tcp4", net.JoinHostPort(v4.String(), port))
		}
	}
	return (&net.Dialer{}).DialContext(ctx, "tcp", net.JoinHostPort(ips[0].IP.String(), port))
}

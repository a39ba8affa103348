package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ridhim15/Danam-Application/internal/api"
	"github.com/Ridhim15/Danam-Application/internal/auth"
	"github.com/Ridhim15/Danam-Application/internal/config"
	"github.com/Ridhim15/Danam-Application/internal/db"
	"github.com/Ridhim15/Danam-Application/internal/donation"
	"github.com/Ridhim15/Danam-Application/internal/memstore"
	"github.com/Ridhim15/Danam-Application/internal/ngo"
	"github.com/Ridhim15/Danam-Application/internal/notify"
	"github.com/Ridhim15/Danam-Application/internal/realtime"
	"github.com/Ridhim15/Danam-Application/internal/session"
	"github.com/Ridhim15/Danam-Application/internal/store"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	log.SetOutput(os.Stdout)
	log.Printf("Danam starting (GIT_SHA=%s BUILD_TIME=%s)", os.Getenv("GIT_SHA"), os.Getenv("BUILD_TIME"))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.AllowDevToken {
		log.Printf("[WARN] ALLOW_DEV_TOKEN is set; %q is accepted as a bearer token", auth.DevToken)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var awsCfg aws.Config
	if cfg.SMSEnabled || cfg.DatabaseSecretARN != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			log.Fatalf("Failed to load AWS config: %v", err)
		}
	}

	st, database := openStore(ctx, cfg, awsCfg)
	defer st.Close()

	if cfg.SeedNGOs {
		if err := ngo.NewDirectory(st).Seed(ctx); err != nil {
			log.Printf("[WARN] NGO seeding failed: %v", err)
		}
	}

	sessions := session.NewStore()
	sweeper := session.NewSweeper(sessions, cfg.SessionSweep)
	sweeper.Start()
	defer sweeper.Stop()

	bus := openBus(ctx, cfg, database)

	var notifier donation.Notifier
	if cfg.SMSEnabled {
		notifier = notify.NewSMSNotifier(awsCfg, st)
		log.Printf("[DANAM-SMS] Donor notifications enabled (region=%s)", cfg.AWSRegion)
	}

	handler := api.NewHandler(api.Options{
		Store:          st,
		Sessions:       sessions,
		Verifier:       auth.NewVerifier(cfg.JWTSecret, cfg.AllowDevToken),
		Bus:            bus,
		Notifier:       notifier,
		TransitionMode: cfg.TransitionMode,
	})

	// Set Gin mode based on environment
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.SetupRouter(handler, cfg.CORSOrigins)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting danam on port %s (store=%s realtime=%s transitions=%s)",
			cfg.Port, cfg.StoreBackend, cfg.RealtimeSource, cfg.TransitionMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down danam...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] Server shutdown: %v", err)
	}
	handler.Wait()
}

// openStore returns the configured store, and the Postgres handle when there is one
func openStore(ctx context.Context, cfg *config.Config, awsCfg aws.Config) (store.Store, *db.Database) {
	if cfg.StoreBackend == config.StoreMemory {
		log.Println("[DANAM-STORE] Using in-memory store; data is lost on restart")
		return memstore.New(), nil
	}

	dbCfg := cfg.Database
	if dbCfg.URL == "" && cfg.DatabaseSecretARN != "" {
		url, err := db.URLFromSecret(ctx, secretsmanager.NewFromConfig(awsCfg), cfg.DatabaseSecretARN)
		if err != nil {
			log.Fatalf("Failed to read database secret: %v", err)
		}
		dbCfg.URL = url
	}

	database, err := db.NewDatabase(ctx, dbCfg)
	if err != nil {
		log.Fatalf("Database initialization failed: %v", err)
	}
	return database, database
}

// openBus returns the change feed handlers subscribe to. Postgres and Redis
// sources relay into an in-process hub from a background goroutine.
func openBus(ctx context.Context, cfg *config.Config, database *db.Database) realtime.Bus {
	hub := realtime.NewMemoryBus(realtime.DefaultBuffer)

	switch cfg.RealtimeSource {
	case config.RealtimePostgres:
		bus := realtime.NewPostgresBus(database.Pool, db.NotifyChannel, hub)
		go bus.Run(ctx)
		return bus
	case config.RealtimeRedis:
		client, err := realtime.ConnectRedis(ctx, realtime.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Printf("[WARN] %v; falling back to in-process events", err)
			return hub
		}
		go func() {
			<-ctx.Done()
			_ = client.Close()
		}()
		bus := realtime.NewRedisBus(client, cfg.RedisChannel, hub)
		go bus.Run(ctx)
		return bus
	default:
		return hub
	}
}

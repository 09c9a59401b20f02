package main

import (
	"context"   // Shutdown and dependency pings
	"errors"    // Error inspection
	"net/http"  // HTTP server
	"os"        // Signals
	"os/signal" // Graceful shutdown
	"syscall"   // SIGTERM
	"time"      // Timeouts

	"ledger_service/internal/api"      // Custom package for API handlers
	"ledger_service/internal/config"   // Custom package for configuration
	"ledger_service/internal/db"       // GORM store
	"ledger_service/internal/events"   // Post-commit event publishing
	"ledger_service/internal/ledger"   // Ledger services
	"ledger_service/internal/memstore" // In-memory store
	"ledger_service/internal/utils"    // Cache, JWT and password helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/nats-io/nats.go"   // NATS client
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg, err := config.LoadConfig() // Load configuration
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("invalid config: %v", err)
	}

	log := newLogger(cfg) // Setup logger

	// Setup storage
	var store ledger.Store
	checks := map[string]api.Pinger{}
	switch cfg.DBDriver {
	case config.DriverMemory:
		store = memstore.New()
		log.Warn("Using in-memory store; data is lost on restart")
	default:
		gdb, err := db.Open(cfg.DBDriver, cfg.DSN(), log.WithField("component", "gorm"))
		if err != nil {
			log.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
		}
		if cfg.DBAutoMigrate {
			if err := db.Migrate(gdb); err != nil {
				log.Fatalf("failed to migrate DB: %v", err)
			}
			log.Info("Database migrated")
		}
		store = db.NewStore(gdb)
	}
	checks["database"] = store.Ping

	var hooks []ledger.Hook       // Post-commit transfer hooks
	var cache ledger.BalanceCache // Nil disables balance caching

	// Setup Redis client
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		defer redisClient.Close()

		// Test Redis connection
		if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
			log.Fatalf("failed to connect to Redis: %v", err)
		}
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }

		cache = utils.NewBalanceCache(redisClient, cfg.BalanceCacheTTL, log.WithField("component", "cache"))

		if cfg.EventsBackend == config.EventsRedis {
			hooks = append(hooks, events.TransferHook(events.NewRedisPublisher(redisClient, 100000), log.WithField("component", "events")))
		}
	}

	// Setup NATS connection
	if cfg.EventsBackend == config.EventsNATS {
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("ledger_service"))
		if err != nil {
			log.Fatalf("failed to connect to NATS: %v", err)
		}
		defer nc.Drain()
		checks["nats"] = func(context.Context) error {
			if !nc.IsConnected() {
				return nats.ErrConnectionClosed
			}
			return nil
		}
		hooks = append(hooks, events.TransferHook(events.NewNATSPublisher(nc), log.WithField("component", "events")))
	}

	// Setup ledger services
	engine := ledger.NewEngine(store,
		ledger.WithLogger(log.WithField("component", "transfer")),
		ledger.WithMaxAttempts(cfg.TransferMaxAttempts),
		ledger.WithHooks(hooks...),
		ledger.WithBalanceCache(cache), // Write marks keep cached balances in step with commits
	)
	queries := ledger.NewQueryService(store, cache, log.WithField("component", "query"))
	users := ledger.NewUserService(store,
		utils.BcryptHasher{},
		utils.JWTIssuer{Secret: cfg.JWTSecret, TTL: utils.DefaultTokenTTL},
		log.WithField("component", "users"),
	)

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	r := api.NewRouter(api.Deps{
		Transfers:    engine,
		Queries:      queries,
		Users:        users,
		Checks:       checks,
		Log:          log,
		JWTSecret:    cfg.JWTSecret,
		AuthRequired: cfg.AuthRequired,
	})

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		log.Fatalf("failed to set trusted proxies: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("Server running on " + cfg.AppPort) // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done() // Wait for SIGINT or SIGTERM
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}

// newLogger builds the process logger from config
func newLogger(cfg *config.Config) *logrus.Entry {
	logger := logrus.New()
	if cfg.IsProd {
		logger.SetFormatter(&logrus.JSONFormatter{}) // Machine-readable in production
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger.WithField("service", "ledger_service")
}

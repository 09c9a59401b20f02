package config

import (
	"errors"  // Validation errors
	"fmt"     // DSN formatting
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // Case folding
	"time"    // Durations

	mysqldriver "github.com/go-sql-driver/mysql" // MySQL DSN builder
	"github.com/joho/godotenv"                   // For loading .env files
)

// Storage drivers
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Event backends
const (
	EventsNone  = "none"
	EventsRedis = "redis"
	EventsNATS  = "nats"
)

// Config holds the application configuration
type Config struct {
	AppPort             string        // Application port
	DBDriver            string        // mysql, postgres or memory
	DBUser              string        // Database user
	DBPassword          string        // Database password
	DBHost              string        // Database host
	DBPort              string        // Database port
	DBName              string        // Database name
	DBSSLMode           string        // Postgres sslmode
	DBAutoMigrate       bool          // Run AutoMigrate on startup
	JWTSecret           string        // JWT secret key
	AuthRequired        bool          // Require JWT on ledger routes
	RedisAddr           string        // Redis server address; empty disables Redis
	RedisPass           string        // Redis password
	RedisDB             int           // Redis database number
	BalanceCacheTTL     time.Duration // Balance cache entry lifetime
	EventsBackend       string        // none, redis or nats
	NATSURL             string        // NATS server URL
	TransferMaxAttempts int           // Units of work per transfer on conflict
	LogLevel            string        // Logrus level name
	IsProd              bool          // Is production environment
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // Load .env file if present

	var errs []error
	driver := strings.ToLower(getEnv("DB_DRIVER", DriverMySQL))
	cfg := &Config{
		AppPort:             getEnv("APP_PORT", "8080"),
		DBDriver:            driver,
		DBUser:              os.Getenv("DB_USER"),
		DBPassword:          os.Getenv("DB_PASSWORD"),
		DBHost:              getEnv("DB_HOST", "localhost"),
		DBPort:              getEnv("DB_PORT", defaultDBPort(driver)),
		DBName:              getEnv("DB_NAME", "ledger"),
		DBSSLMode:           getEnv("DB_SSLMODE", "disable"),
		DBAutoMigrate:       getBool("DB_AUTO_MIGRATE", false, &errs),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		AuthRequired:        getBool("AUTH_REQUIRED", false, &errs),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPass:           os.Getenv("REDIS_PASS"),
		RedisDB:             getInt("REDIS_DB", 0, &errs),
		BalanceCacheTTL:     getDuration("BALANCE_CACHE_TTL", 30*time.Second, &errs),
		EventsBackend:       strings.ToLower(getEnv("EVENTS_BACKEND", EventsNone)),
		NATSURL:             getEnv("NATS_URL", "nats://127.0.0.1:4222"),
		TransferMaxAttempts: getInt("TRANSFER_MAX_ATTEMPTS", 3, &errs),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		IsProd:              os.Getenv("IS_PROD") == "true",
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	var errs []error
	switch c.DBDriver {
	case DriverMySQL, DriverPostgres, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER: unsupported driver %q", c.DBDriver))
	}
	switch c.EventsBackend {
	case EventsNone, EventsNATS:
	case EventsRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("EVENTS_BACKEND=redis requires REDIS_ADDR"))
		}
	default:
		errs = append(errs, fmt.Errorf("EVENTS_BACKEND: unsupported backend %q", c.EventsBackend))
	}
	if c.TransferMaxAttempts < 1 {
		errs = append(errs, errors.New("TRANSFER_MAX_ATTEMPTS must be at least 1"))
	}
	if c.IsProd && c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}
	if c.AuthRequired && c.JWTSecret == "" {
		errs = append(errs, errors.New("AUTH_REQUIRED=true requires JWT_SECRET"))
	}
	return errors.Join(errs...)
}

// DSN builds the data source name for the configured SQL driver
func (c *Config) DSN() string {
	switch c.DBDriver {
	case DriverPostgres:
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
	case DriverMySQL:
		mc := mysqldriver.NewConfig()
		mc.User = c.DBUser
		mc.Passwd = c.DBPassword
		mc.Net = "tcp"
		mc.Addr = c.DBHost + ":" + c.DBPort
		mc.DBName = c.DBName
		mc.ParseTime = true // Scan DATETIME into time.Time
		mc.Loc = time.UTC   // Read and write timestamps as UTC
		return mc.FormatDSN()
	default:
		return ""
	}
}

func defaultDBPort(driver string) string {
	if driver == DriverPostgres {
		return "5432"
	}
	return "3306"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool, errs *[]error) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return b
}

func getInt(key string, fallback int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}

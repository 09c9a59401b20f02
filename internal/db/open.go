package db

import (
	"context" // Context for the startup ping
	"fmt"     // Error wrapping
	"time"    // Pool lifetimes and UTC clock

	"github.com/sirupsen/logrus"     // Logrus for structured logging
	"gorm.io/driver/mysql"           // MySQL driver for GORM
	"gorm.io/driver/postgres"        // Postgres driver for GORM
	"gorm.io/gorm"                   // GORM ORM library
	gormlogger "gorm.io/gorm/logger" // GORM logger bridged to logrus
)

// Supported SQL drivers.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// datetimePrecision matches the microsecond timestamps the engine writes.
// The MySQL driver would otherwise create datetime(3) columns.
const datetimePrecision = 6

// dialectorFor returns the GORM dialector for driver
func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case DriverMySQL:
		precision := datetimePrecision
		return mysql.New(mysql.Config{
			DSN:                      dsn,
			DefaultDatetimePrecision: &precision, // datetime(6)
		}), nil
	case DriverPostgres:
		return postgres.Open(dsn), nil // timestamptz keeps microseconds
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Open connects to the database behind dsn with the named driver and
// checks the connection.
func Open(driver, dsn string, log *logrus.Entry) (*gorm.DB, error) {
	dialector, err := dialectorFor(driver, dsn) // Driver-specific dialector
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,                                         // Map duplicate-key and FK errors to gorm sentinels
		NowFunc:        func() time.Time { return time.Now().UTC() }, // All timestamps in UTC
		Logger: gormlogger.New(log, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond, // Log queries slower than this
			LogLevel:                  gormlogger.Warn,        // Only warnings and errors
			IgnoreRecordNotFoundError: true,                   // Missing rows are expected outcomes
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	sqlDB, err := db.DB() // Underlying connection pool
	if err != nil {
		return nil, fmt.Errorf("failed to get connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping %s: %w", driver, err)
	}
	return db, nil
}

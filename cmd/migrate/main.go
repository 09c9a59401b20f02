package main

import (
	"ledger_service/internal/config" // Custom import path (Config)
	"ledger_service/internal/db"     // Custom import path (Database)

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Main entry point for migration
func main() {
	cfg, err := config.LoadConfig() // Load configuration
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	if cfg.DBDriver == config.DriverMemory {
		logrus.Fatal("nothing to migrate for the memory driver")
	}

	log := logrus.WithField("component", "migrate")
	gdb, err := db.Open(cfg.DBDriver, cfg.DSN(), log)
	if err != nil {
		log.Fatalf("failed to connect to DB: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("%v", err)
	}
	log.Info("Migration completed")
}

package main

import (
	"context"
	"log"

	"prompt-manager-core/internal/bootstrap"
	"prompt-manager-core/internal/config"
	"prompt-manager-core/internal/pkg/logger"
)

// Standalone migrator for deployments that upgrade the store before starting
// anything else.
func main() {
	cfg := config.Load()
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer sysLogger.Sync()

	db, engine, err := bootstrap.NewMigrator(cfg, sysLogger)
	if err != nil {
		log.Fatal("Error: Failed to open store:", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	ctx := context.Background()
	before, err := engine.Generation(ctx)
	if err != nil {
		log.Fatal("Error: Failed to read schema generation:", err)
	}

	log.Printf("Store at generation %d, latest is %d", before, engine.Latest())
	if err := engine.Open(ctx); err != nil {
		state, stage := engine.State()
		log.Fatalf("Error: Migration failed in state %s (stage %d): %v", state, stage, err)
	}

	log.Println("Migration completed successfully.")
}

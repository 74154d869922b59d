// Copyright (c) 2026 Kritika. All rights reserved.

// Command importer loads the legacy CSV seed files into the database.
//
// It runs migrations first so the schema exists, then performs the load
// and exits. Intended for one-shot use against a fresh or existing
// database; rows whose natural keys already exist are skipped.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/kritika-app/kritika/internal/importer"
	"github.com/kritika-app/kritika/internal/platform/config"
	"github.com/kritika-app/kritika/internal/platform/migration"
	pgstore "github.com/kritika-app/kritika/internal/platform/postgres"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})).With(slog.String("app", "kritika-importer"))

	cfg, err := config.Load()
	must(log, err, "load configuration")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer pool.Close()

	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	loader := importer.New(pool, log, cfg.ImportDataPath)
	must(log, loader.Run(ctx), "import csv data")

	log.Info("import complete")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("importer failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"flag"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/logger"
	"storefront/internal/migrations"
)

func main() {
	seedMenu := flag.Bool("menu", true, "create the sample menu when the menu is empty")
	flag.Parse()

	cfg := config.Load()
	log := logger.New(cfg.LogLevel, "text")

	log.Info("Initializing database...")
	db, err := database.Initialize(cfg.DatabaseURL, cfg.LogLevel, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer database.Close(db)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	opts := migrations.Options{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
		SeedMenu:      *seedMenu,
	}
	if err := migrations.RunMigrations(ctx, db, opts, log); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}
	log.Info("Database initialized")
}

package main

import (
	"flag"
	"fmt"
	"os"

	"storefront/internal/config"
	"storefront/internal/database"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	source := flag.String("source", "file://migrations", "migration source URL")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		return fmt.Errorf("usage: migrate [-source url] <up|down|version>")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := config.NewLogger(cfg.Logger)

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		databaseURL = cfg.Database.ConnectionString()
	}

	m, err := database.NewMigrator(*source, databaseURL, logger)
	if err != nil {
		return err
	}
	defer m.Close()

	switch command := args[0]; command {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "version":
		version, dirty, ok, err := m.Version()
		if err != nil {
			return err
		}
		if !ok {
			logger.Info().Msg("no migrations applied yet")
			return nil
		}
		logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("current migration version")
		return nil
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

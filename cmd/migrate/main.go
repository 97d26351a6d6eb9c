package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"heartgram/internal/config"
	"heartgram/pkg/database"
	"heartgram/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: migrate up|down|version")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(&logger.Config{
		Level:       cfg.Log.Level,
		ServiceName: cfg.App.Name + "-migrate",
		Development: !cfg.App.IsProduction(),
		OutputPath:  "stdout",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.Get()
	defer log.Sync()

	switch cmd := os.Args[1]; cmd {
	case "up", "down":
		if err := database.Migrate(cfg.Database.URL, cmd); err != nil {
			log.Fatal("Migration failed", zap.String("direction", cmd), zap.Error(err))
		}
		log.Info("Migration complete", zap.String("direction", cmd))
	case "version":
		version, dirty, err := database.Version(cfg.Database.URL)
		if err != nil {
			log.Fatal("Failed to read schema version", zap.Error(err))
		}
		log.Info("Schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q; usage: migrate up|down|version\n", cmd)
		os.Exit(2)
	}
}

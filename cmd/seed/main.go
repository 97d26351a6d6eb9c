package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"heartgram/internal/common"
	"heartgram/internal/config"
	"heartgram/internal/models"
	"heartgram/internal/repositories"
	"heartgram/internal/services"
	"heartgram/pkg/database"
	"heartgram/pkg/logger"
)

// seed creates the platform administrator. Running it again is a no-op.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(&logger.Config{
		Level:       cfg.Log.Level,
		ServiceName: cfg.App.Name + "-seed",
		Development: !cfg.App.IsProduction(),
		OutputPath:  "stdout",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.Get()
	defer log.Sync()

	if cfg.Admin.Password == "" {
		log.Fatal("ADMIN_PASSWORD must be set to seed the administrator")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database.URL, 2)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	identity := services.NewIdentityService(
		repositories.NewOperatorRepo(pool),
		repositories.NewMemberRepo(pool),
		services.NewHasher(cfg.Security.BcryptCost),
	)

	admin, err := identity.CreateOperator(ctx, cfg.Admin.Email, cfg.Admin.Password, models.RoleAdmin, cfg.Admin.Name)
	switch {
	case errors.Is(err, common.ErrConflict):
		log.Info("Administrator already exists", zap.String("email", cfg.Admin.Email))
	case err != nil:
		log.Fatal("Failed to seed administrator", zap.Error(err))
	default:
		log.Info("Administrator created", zap.String("email", admin.Email), zap.String("id", admin.ID.String()))
	}
}

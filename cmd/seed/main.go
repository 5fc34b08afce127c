package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/flowershop/storefront/internal/infrastructure/config"
	"github.com/flowershop/storefront/internal/infrastructure/logger"
	"github.com/flowershop/storefront/internal/infrastructure/persistence"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	var (
		adminPassword string
		logLevel      string
	)
	flag.StringVar(&adminPassword, "admin-password", "admin123", "Password of the seeded admin account")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, gormlogger.Warn)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	s := &seeder{
		users:      persistence.NewGormUserRepository(db.DB),
		categories: persistence.NewGormCategoryRepository(db.DB),
		products:   persistence.NewGormProductRepository(db.DB),
		logger:     log,
	}
	report, err := s.Run(ctx, adminPassword)
	if err != nil {
		log.Fatal("Seeding failed", zap.Error(err))
	}
	log.Info("Demo data ready",
		zap.Bool("admin_created", report.AdminCreated),
		zap.Int("categories_created", report.CategoriesCreated),
		zap.Int("products_created", report.ProductsCreated),
	)
}

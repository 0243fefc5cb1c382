// Package stockimporter содержит приложение ежедневного импорта котировок.
package stockimporter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/flexbit-dev/flexbit-api/internal/config"
	"github.com/flexbit-dev/flexbit-api/internal/cache"
	importerservice "github.com/flexbit-dev/flexbit-api/internal/services/importer"
	"github.com/flexbit-dev/flexbit-api/internal/storage/mongo"
	"github.com/flexbit-dev/flexbit-api/internal/storage/mysqlsource"
)

// App представляет приложение импортера.
type App struct {
	importerService *importerservice.Service
	db              *mongo.Storage
	source          *mysqlsource.Source
	hourOfDay       int
	location        *time.Location
	logger          *slog.Logger
}

// New создает новый экземпляр приложения импортера.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", cfg.Timezone, err)
	}

	db, err := mongo.New(ctx, cfg.MongoConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}

	source, err := mysqlsource.New(ctx, cfg.MySQLDSN)
	if err != nil {
		closeResources(ctx, db, nil, logger)
		return nil, fmt.Errorf("failed to connect source database: %w", err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		closeResources(ctx, db, source, logger)
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	importerService := importerservice.New(logger, source, db, cacheRedis)

	return &App{
		importerService: importerService,
		db:              db,
		source:          source,
		hourOfDay:       cfg.HourOfDay,
		location:        loc,
		logger:          logger,
	}, nil
}

func closeResources(ctx context.Context, db *mongo.Storage, source *mysqlsource.Source, logger *slog.Logger) {
	if source != nil {
		if err := source.Close(); err != nil {
			logger.Error("failed to close source database", "error", err)
		}
	}
	if db != nil {
		if err := db.Close(ctx); err != nil {
			logger.Error("failed to close storage", "error", err)
		}
	}
}

// Run запускает ежедневный цикл импорта и блокируется до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	go a.importerService.RunDaily(ctx, a.hourOfDay, a.location)

	<-ctx.Done()

	a.logger.Info("shutting down stock importer service")

	closeResources(context.Background(), a.db, a.source, a.logger)

	return nil
}

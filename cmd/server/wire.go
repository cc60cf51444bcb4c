//go:build wireinject

package main

import (
	"context"
	"time"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vishalbarai007/videoresizer/internal/config"
	"github.com/vishalbarai007/videoresizer/internal/domain/conversion"
	"github.com/vishalbarai007/videoresizer/internal/domain/delivery"
	"github.com/vishalbarai007/videoresizer/internal/domain/history"
	"github.com/vishalbarai007/videoresizer/internal/domain/profile"
	"github.com/vishalbarai007/videoresizer/internal/domain/upload"
	"github.com/vishalbarai007/videoresizer/internal/infrastructure/database"
	"github.com/vishalbarai007/videoresizer/internal/infrastructure/logger"
	historyrepo "github.com/vishalbarai007/videoresizer/internal/infrastructure/repository/history"
	"github.com/vishalbarai007/videoresizer/internal/infrastructure/sessionstore"
	"github.com/vishalbarai007/videoresizer/internal/infrastructure/transcoder"
	"github.com/vishalbarai007/videoresizer/internal/interfaces/httpserver"
	"github.com/vishalbarai007/videoresizer/internal/interfaces/httpserver/handlers"
)

var pipelineSet = wire.NewSet(
	historyrepo.NewRepository,
	wire.Bind(new(history.Repository), new(*historyrepo.Repository)),
	wire.Bind(new(conversion.Recorder), new(*historyrepo.Repository)),
	provideStorage,
	wire.Bind(new(upload.Storage), new(ObjectStorage)),
	wire.Bind(new(conversion.Storage), new(ObjectStorage)),
	wire.Bind(new(delivery.Storage), new(ObjectStorage)),
	profile.NewRegistry,
	provideProfileStore,
	profile.NewSessions,
	upload.NewService,
	transcoder.NewClient,
	wire.Bind(new(conversion.Transcoder), new(*transcoder.Client)),
	conversion.NewOrchestrator,
	provideShareTTL,
	delivery.NewService,
	history.NewService,
	provideAuthValidator,
	wire.Bind(new(handlers.HistoryStorage), new(ObjectStorage)),
	wire.Struct(new(handlers.Deps), "*"),
)

// BuildApplication assembles the pipeline API with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		newDatabaseConfig,
		newGormDB,
		pipelineSet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.DatabaseDSN,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newGormDB(ctx context.Context, cfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func provideShareTTL(cfg *config.Config) time.Duration {
	return cfg.S3PresignTTL
}

func provideProfileStore(cfg *config.Config, log zerolog.Logger) profile.Store {
	if cfg.SessionStoreEnabled() {
		return sessionstore.NewRedisStore(cfg, log)
	}
	return sessionstore.NewMemoryStore()
}

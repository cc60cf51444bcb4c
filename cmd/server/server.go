package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vishalbarai007/videoresizer/internal/config"
	"github.com/vishalbarai007/videoresizer/internal/domain/conversion"
	"github.com/vishalbarai007/videoresizer/internal/domain/delivery"
	"github.com/vishalbarai007/videoresizer/internal/domain/history"
	"github.com/vishalbarai007/videoresizer/internal/domain/profile"
	"github.com/vishalbarai007/videoresizer/internal/domain/upload"
	"github.com/vishalbarai007/videoresizer/internal/infrastructure/auth"
	"github.com/vishalbarai007/videoresizer/internal/infrastructure/database"
	"github.com/vishalbarai007/videoresizer/internal/infrastructure/logger"
	"github.com/vishalbarai007/videoresizer/internal/infrastructure/observability"
	historyrepo "github.com/vishalbarai007/videoresizer/internal/infrastructure/repository/history"
	"github.com/vishalbarai007/videoresizer/internal/infrastructure/sessionstore"
	"github.com/vishalbarai007/videoresizer/internal/infrastructure/storage"
	"github.com/vishalbarai007/videoresizer/internal/infrastructure/transcoder"
	"github.com/vishalbarai007/videoresizer/internal/interfaces/httpserver"
	"github.com/vishalbarai007/videoresizer/internal/interfaces/httpserver/handlers"
)

// ObjectStorage is the full surface both storage backends provide.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, string, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Copy(ctx context.Context, srcKey, dstKey string) error
	Health(ctx context.Context) error
}

type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseDSN,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	objectStorage, err := provideStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize storage")
	}

	var profileStore profile.Store
	if cfg.SessionStoreEnabled() {
		profileStore = sessionstore.NewRedisStore(cfg, log)
	} else {
		profileStore = sessionstore.NewMemoryStore()
	}

	authValidator, err := provideAuthValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth")
	}

	repo := historyrepo.NewRepository(db)
	historyService := history.NewService(repo, log)

	registry := profile.NewRegistry()
	sessions := profile.NewSessions(registry, profileStore, log)

	uploadService := upload.NewService(cfg, objectStorage, log)
	transcoderClient := transcoder.NewClient(cfg, log)
	orchestrator := conversion.NewOrchestrator(cfg, objectStorage, transcoderClient, repo, log)
	deliveryService := delivery.NewService(objectStorage, cfg.S3PresignTTL, log)

	httpServer := httpserver.New(cfg, log, handlers.Deps{
		Uploads:      uploadService,
		Registry:     registry,
		Sessions:     sessions,
		Orchestrator: orchestrator,
		Delivery:     deliveryService,
		History:      historyService,
		Storage:      objectStorage,
	}, authValidator)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

// provideStorage creates the appropriate storage backend based on configuration.
func provideStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ObjectStorage, error) {
	if cfg.IsLocalStorage() {
		localStorage, err := storage.NewLocalStorage(cfg, log)
		if err != nil {
			return nil, err
		}
		return localStorage, nil
	}

	// Default to S3 storage
	s3Storage, err := storage.NewS3Storage(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return s3Storage, nil
}

// provideAuthValidator builds the JWT validator, or nil when auth is off.
func provideAuthValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Validator, error) {
	if !cfg.AuthEnabled {
		return nil, nil
	}
	return auth.NewValidator(ctx, cfg.AuthJWKSURL, cfg.AuthIssuer, log)
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}

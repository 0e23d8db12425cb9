// Package app assembles the process: logging, database, cache, infrastructure
// adapters and the service manager. Both the HTTP server and examctl start here.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/exam-service/internal/cache"
	"github.com/SAP-F-2025/exam-service/internal/config"
	"github.com/SAP-F-2025/exam-service/internal/events"
	"github.com/SAP-F-2025/exam-service/internal/importer"
	"github.com/SAP-F-2025/exam-service/internal/llm"
	"github.com/SAP-F-2025/exam-service/internal/lock"
	"github.com/SAP-F-2025/exam-service/internal/logging"
	"github.com/SAP-F-2025/exam-service/internal/metrics"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/repositories/casdoor"
	"github.com/SAP-F-2025/exam-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/exam-service/internal/services"
	"github.com/SAP-F-2025/exam-service/internal/storage"
	"github.com/SAP-F-2025/exam-service/internal/validator"
	"github.com/SAP-F-2025/exam-service/pkg"
)

type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	DB       *gorm.DB
	Redis    *redis.Client
	Metrics  *metrics.Metrics
	Services services.ServiceManager

	repoManager repositories.RepositoryManager
	logCloser   io.Closer
}

type Options struct {
	// Migrate runs AutoMigrate before the services start.
	Migrate bool
}

// New connects every backing store and initializes the services. A Redis
// failure is logged and the process continues without cache and with local locks.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	logger, logCloser, err := logging.New(logging.Options{Level: cfg.LogLevel, Dir: cfg.LogDir})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	a := &App{Config: cfg, Logger: logger, logCloser: logCloser, Metrics: metrics.New()}

	if err := a.init(ctx, opts); err != nil {
		a.Close(ctx)
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context, opts Options) error {
	cfg, logger := a.Config, a.Logger

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}
	a.DB = db
	if opts.Migrate {
		if err := pkg.AutoMigrate(db); err != nil {
			return err
		}
		logger.Info("Database schema migrated")
	}

	if cfg.RedisURL != "" {
		client, err := pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, continuing without cache", "error", err)
		} else {
			a.Redis = client
		}
	}

	a.repoManager = postgres.NewRepositoryManager(postgres.RepositoryConfig{DB: db, RedisClient: a.Redis})
	if err := a.repoManager.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	var locker lock.Locker = lock.NewLocalLocker()
	if a.Redis != nil {
		locker = lock.NewRedisLocker(a.Redis, "exam-service:lock:", cfg.LockTTL)
	}

	publisher, err := events.NewPublisher(events.Config{Brokers: cfg.Events.KafkaBrokers, Topic: cfg.Events.Topic}, logger)
	if err != nil {
		return err
	}

	store, err := storage.New(ctx, storage.Config{
		Type:           cfg.Storage.Type,
		LocalPath:      cfg.Storage.LocalPath,
		MinioEndpoint:  cfg.Storage.MinioEndpoint,
		MinioAccessKey: cfg.Storage.MinioAccessKey,
		MinioSecretKey: cfg.Storage.MinioSecretKey,
		MinioBucket:    cfg.Storage.MinioBucket,
		MinioUseSSL:    cfg.Storage.MinioUseSSL,
	})
	if err != nil {
		publisher.Close()
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	var structurer importer.Structurer
	client, err := llm.New(llm.Config{
		BaseURL: cfg.AI.BaseURL,
		APIKey:  cfg.AI.APIKey,
		Model:   cfg.AI.Model,
		Timeout: cfg.AI.Timeout,
	}, logger)
	switch {
	case err == nil:
		structurer = metrics.NewTimedStructurer(client, a.Metrics)
	case errors.Is(err, llm.ErrMissingAPIKey):
		logger.Warn("AI_API_KEY not set, question import is disabled")
	default:
		publisher.Close()
		return fmt.Errorf("failed to initialize completion client: %w", err)
	}

	var verifier casdoor.TokenVerifier
	if cfg.Casdoor.Enabled() {
		verifier = casdoor.NewUserCasdoor(casdoor.CasdoorConfig{
			Endpoint:         cfg.Casdoor.Endpoint,
			ClientID:         cfg.Casdoor.ClientID,
			ClientSecret:     cfg.Casdoor.ClientSecret,
			Certificate:      cfg.Casdoor.Cert,
			OrganizationName: cfg.Casdoor.Organization,
			ApplicationName:  cfg.Casdoor.Application,
		})
		logger.Info("Casdoor token verification enabled", "endpoint", cfg.Casdoor.Endpoint)
	}

	a.Services = services.NewServiceManager(services.Dependencies{
		Repo:       a.repoManager.GetRepository(),
		Logger:     logger,
		Validator:  validator.New(),
		Cache:      cache.NewCacheManager(a.Redis),
		Locker:     locker,
		Events:     publisher,
		Storage:    store,
		Structurer: structurer,
		Metrics:    a.Metrics,
		Auth: services.AuthConfig{
			Secret:   cfg.JWT.Secret,
			Expiry:   cfg.JWT.Expiry,
			Verifier: verifier,
		},
		Import: services.ImportConfig{
			SkipHeader:  cfg.Import.SkipHeader,
			MaxFileSize: cfg.Import.MaxFileSize,
		},
		LogDir: cfg.LogDir,
	})
	if err := a.Services.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	return nil
}

// Close releases everything New opened, in reverse order. The log file is
// flushed last so shutdown messages reach it.
func (a *App) Close(ctx context.Context) {
	if a.Services != nil {
		if err := a.Services.Shutdown(ctx); err != nil {
			a.Logger.Error("Failed to shutdown services", "error", err)
		}
	}
	if a.repoManager != nil && a.repoManager.GetRepository() != nil {
		// Closes the database pool and the redis client.
		if err := a.repoManager.Shutdown(ctx); err != nil {
			a.Logger.Error("Failed to close repositories", "error", err)
		}
	} else {
		if a.DB != nil {
			if sqlDB, err := a.DB.DB(); err == nil {
				sqlDB.Close()
			}
		}
		if a.Redis != nil {
			a.Redis.Close()
		}
	}
	if err := a.logCloser.Close(); err != nil {
		a.Logger.Error("Failed to flush log file", "error", err)
	}
}

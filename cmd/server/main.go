// Command server runs the refund API.
//
//	@title						Refund API
//	@version					1.0
//	@description				Expense refund requests for employees and managers.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/expensehub/refund-api/internal/api"
	"github.com/expensehub/refund-api/internal/api/handler"
	"github.com/expensehub/refund-api/internal/core/ports"
	"github.com/expensehub/refund-api/internal/core/service"
	"github.com/expensehub/refund-api/internal/infrastructure/config"
	"github.com/expensehub/refund-api/internal/infrastructure/crypto"
	mongostore "github.com/expensehub/refund-api/internal/infrastructure/db/mongo"
	redisstore "github.com/expensehub/refund-api/internal/infrastructure/db/redis"
	sqlstore "github.com/expensehub/refund-api/internal/infrastructure/db/sql"
	"github.com/expensehub/refund-api/internal/infrastructure/queue"
	"github.com/expensehub/refund-api/internal/infrastructure/storage"
	"github.com/expensehub/refund-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "refund-api:", err)
		os.Exit(1)
	}
}

// stores holds the repositories for the configured driver plus the hooks
// needed to probe and close it.
type stores struct {
	users   ports.UserRepository
	refunds ports.RefundRepository
	pinger  handler.Pinger
	close   func(context.Context) error
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "refund-api",
	})

	db, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := db.close(closeCtx); err != nil {
			log.Error().Err(err).Msg("close database")
		}
	}()
	health := map[string]handler.Pinger{cfg.DB.Driver: db.pinger}

	// A nil interface, not a typed nil, disables idempotency keys.
	var idem ports.IdempotencyStore
	if cfg.Redis.Addr != "" {
		client, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer client.Close()
		idem = redisstore.NewIdempotencyStore(client)
		health["redis"] = redisstore.Pinger{Client: client}
	} else {
		log.Warn().Msg("REDIS_ADDR not set, Idempotency-Key headers are ignored")
	}

	files, uploadDir, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}

	cleaner := queue.NewDispatcher(cfg.Upload.CleanupWorkers, files, logger.Component("cleanup"))
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	cleaner.Start(workerCtx)
	defer func() {
		stopWorkers()
		cleaner.Wait()
	}()

	hasher := crypto.NewBcryptHasher(cfg.BcryptCost)
	users := service.NewUserService(db.users, db.refunds, hasher, logger.Component("users"))
	refunds := service.NewRefundService(db.refunds, db.users, idem, cleaner, logger.Component("refunds"))
	sessions := service.NewSessionService(db.users, hasher, cfg.JWTSecret, cfg.JWTExpiresIn, logger.Component("sessions"))
	uploads := service.NewUploadService(files, cfg.Upload.MaxBytes, logger.Component("uploads"))

	if cfg.Seed.Email != "" {
		created, err := users.SeedManager(ctx, cfg.Seed.Name, cfg.Seed.Email, cfg.Seed.Password)
		if err != nil {
			return fmt.Errorf("seed manager: %w", err)
		}
		if created {
			log.Info().Str("email", cfg.Seed.Email).Msg("seeded manager account")
		}
	}

	e := api.NewRouter(api.Deps{
		Users:          users,
		Refunds:        refunds,
		Sessions:       sessions,
		Uploads:        uploads,
		Health:         health,
		JWTSecret:      cfg.JWTSecret,
		Logger:         logger.Component("http"),
		MaxUploadBytes: cfg.Upload.MaxBytes,
		UploadDir:      uploadDir,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("db", cfg.DB.Driver).Str("storage", cfg.Upload.Driver).Msg("server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.DB.Driver {
	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.DB.MongoURI, Database: cfg.DB.MongoDB})
		if err != nil {
			return nil, err
		}
		users := mongostore.NewUserRepository(db)
		refunds := mongostore.NewRefundRepository(db)
		if err := users.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("user indexes: %w", err)
		}
		if err := refunds.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("refund indexes: %w", err)
		}
		return &stores{
			users:   users,
			refunds: refunds,
			pinger:  mongostore.Pinger{Client: client},
			close:   client.Disconnect,
		}, nil

	case config.DriverPostgres, config.DriverSQLite:
		dsn := cfg.DB.PostgresDSN
		if cfg.DB.Driver == config.DriverSQLite {
			dsn = cfg.DB.SQLitePath
		}
		db, err := sqlstore.Open(cfg.DB.Driver, dsn)
		if err != nil {
			return nil, err
		}
		return &stores{
			users:   sqlstore.NewUserRepository(db),
			refunds: sqlstore.NewRefundRepository(db),
			pinger:  sqlstore.Pinger{DB: db},
			close:   func(context.Context) error { return sqlstore.Close(db) },
		}, nil

	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DB.Driver)
	}
}

// openStorage returns the receipt store and, for disk storage, the directory
// to serve at /uploads.
func openStorage(ctx context.Context, cfg *config.Config) (ports.FileStorage, string, error) {
	switch cfg.Upload.Driver {
	case config.UploadS3:
		s3, err := storage.NewS3(ctx, storage.S3Config{
			Bucket:          cfg.Upload.S3.Bucket,
			Region:          cfg.Upload.S3.Region,
			Endpoint:        cfg.Upload.S3.Endpoint,
			AccessKeyID:     cfg.Upload.S3.AccessKeyID,
			SecretAccessKey: cfg.Upload.S3.SecretAccessKey,
		})
		if err != nil {
			return nil, "", fmt.Errorf("s3 storage: %w", err)
		}
		return s3, "", nil
	default:
		disk, err := storage.NewDisk(cfg.Upload.Dir)
		if err != nil {
			return nil, "", fmt.Errorf("disk storage: %w", err)
		}
		return disk, disk.Dir(), nil
	}
}

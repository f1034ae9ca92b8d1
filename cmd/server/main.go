package main

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ferrianes/foodmarket-backend/internal"
	"github.com/ferrianes/foodmarket-backend/internal/auth"
	authdb "github.com/ferrianes/foodmarket-backend/internal/auth/db"
	"github.com/ferrianes/foodmarket-backend/internal/db"
	"github.com/ferrianes/foodmarket-backend/internal/db/migrate"
	"github.com/ferrianes/foodmarket-backend/internal/krypto"
	"github.com/ferrianes/foodmarket-backend/internal/storage"
	"github.com/ferrianes/foodmarket-backend/internal/web"
	"github.com/ferrianes/foodmarket-backend/migrations"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A .env file is optional, variables from the environment take precedence.
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to load .env file", "error", err)
		os.Exit(1)
	}

	os.Exit(run(ctx, os.Stderr))
}

func run(ctx context.Context, w io.Writer) int {
	logger := slog.New(slog.NewTextHandler(w, nil))

	cfg, err := configFromEnv()
	if err != nil {
		logger.Error("failed to get config from environment", "error", err)
		return 1
	}

	writeDB, err := db.OpenSQLite(cfg.DB.File, true)
	if err != nil {
		logger.Error("failed to open write database", "error", err)
		return 1
	}
	defer closeLogged(logger, "write database", writeDB)

	readDB, err := db.OpenSQLite(cfg.DB.File, false)
	if err != nil {
		logger.Error("failed to open read database", "error", err)
		return 1
	}
	defer closeLogged(logger, "read database", readDB)

	if cfg.DB.Migrate {
		logger.Info("attempting to migrate database", "file", cfg.DB.File)

		ran, err := migrate.RunFS(ctx, writeDB, migrations.FS, migrate.Metadata{
			AppVersion: internal.Build.String(),
			Timestamp:  time.Now(),
		})
		if err != nil {
			logger.Error("failed to migrate database", "error", err)
			return 1
		}

		for _, m := range ran {
			logger.Info("migration ran", "sequence", m.Sequence, "filename", m.Filename)
		}
	}

	encryptor, err := krypto.NewEncryptor(cfg.DB.EncryptionKeys)
	if err != nil {
		logger.Error("failed to create encryptor", "error", err)
		return 1
	}

	store := authdb.New(writeDB, readDB, encryptor)

	photos, storageFS, err := newPhotoStorage(ctx, cfg)
	if err != nil {
		logger.Error("failed to create photo storage", "driver", cfg.Storage.Driver, "error", err)
		return 1
	}

	tokens := auth.NewTokens(store)

	authSvc, err := auth.NewService(store, tokens, photos)
	if err != nil {
		logger.Error("failed to create auth service", "error", err)
		return 1
	}

	handler := web.NewServer(&web.ServerDeps{
		Logger:      logger,
		AuthService: authSvc,
		Tokens:      tokens,
		StorageFS:   storageFS,
	}, web.ServerConfig{
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
		MaxUploadBytes: cfg.HTTP.MaxUploadBytes,
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Handler:      handler,
	}

	// We need to run two tasks concurrently:
	// - Listen and serving of the HTTP server.
	// - Waiting for a signal to stop the server.

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server",
			"addr", cfg.HTTP.Addr,
			"storageDriver", cfg.Storage.Driver,
			"build", internal.Build,
		)
		// ListenAndServe always returns a non-nil error,
		// g will cancel gCtx when an error is returned, so
		// this will also stop the other goroutine.
		return srv.ListenAndServe()
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("stopping http server")

		shutCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutCtx)
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server stopped with error", "error", err)
		return 1
	}

	logger.Info("http server stopped successfully")

	return 0
}

// newPhotoStorage returns the configured storage. The returned fs.FS is
// only set for local storage, S3 serves its own files.
func newPhotoStorage(ctx context.Context, cfg config) (auth.PhotoStorage, fs.FS, error) {
	if cfg.Storage.Driver == storageS3 {
		bucket, err := storage.NewS3(ctx, storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: string(cfg.S3.SecretAccessKey.SecretValue()),
			ForcePathStyle:  cfg.S3.ForcePathStyle,
			BaseURL:         cfg.S3.PublicURL,
		})
		if err != nil {
			return nil, nil, err
		}

		return bucket, nil, nil
	}

	local, err := storage.NewLocal(cfg.Storage.LocalDir, cfg.Storage.BaseURL)
	if err != nil {
		return nil, nil, err
	}

	return local, local.FS(), nil
}

func closeLogged(logger *slog.Logger, name string, c io.Closer) {
	err := c.Close()
	if err != nil {
		logger.Error("failed to close "+name, "error", err)
	}
}

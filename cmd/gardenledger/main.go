package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ryanbastic/go-gardenledger/internal/api"
	"github.com/ryanbastic/go-gardenledger/internal/assets"
	"github.com/ryanbastic/go-gardenledger/internal/config"
	"github.com/ryanbastic/go-gardenledger/internal/contentstore"
	"github.com/ryanbastic/go-gardenledger/internal/garden"
	"github.com/ryanbastic/go-gardenledger/internal/photo"
)

// backend is an opened content store plus the cleanup it needs on shutdown.
type backend struct {
	store contentstore.ContentStore
	close func()
}

func openBackend(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backend, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		logger.Warn("using in-memory content store, data is lost on restart")
		return &backend{store: contentstore.NewMemoryStore(cfg.PublicBaseURL), close: func() {}}, nil

	case config.BackendGitHub:
		s, err := contentstore.NewGitHubStore(contentstore.GitHubConfig{
			APIURL:         cfg.GitHubAPIURL,
			Token:          cfg.GitHubToken,
			Repository:     cfg.GitHubRepository,
			Branch:         cfg.GitHubBranch,
			CommitterName:  cfg.GitHubCommitterName,
			CommitterEmail: cfg.GitHubCommitterEmail,
			Timeout:        cfg.StoreTimeout,
		})
		if err != nil {
			return nil, err
		}
		return &backend{store: s, close: func() {}}, nil

	case config.BackendPostgres:
		// Connect to PostgreSQL
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		logger.Info("connected to database")

		if err := contentstore.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("migrations complete")
		return &backend{
			store: contentstore.NewPostgresStore(pool, cfg.PublicBaseURL, cfg.DBQueryTimeout),
			close: pool.Close,
		}, nil

	case config.BackendS3:
		s, err := contentstore.NewS3Store(ctx, contentstore.S3Config{
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			Bucket:        cfg.S3Bucket,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
		if err != nil {
			return nil, err
		}
		return &backend{store: s, close: func() {}}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func main() {
	cfg := config.Load()

	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	be, err := openBackend(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open content store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer be.close()

	guarded := contentstore.NewGuarded(be.store, cfg.StoreBackend, cfg.BreakerMaxFailures, cfg.BreakerResetTimeout)
	store := contentstore.NewInstrumented(guarded, cfg.StoreBackend)
	logger.Info("content store ready", "backend", cfg.StoreBackend)

	layout := garden.DefaultLayout()
	if cfg.LayoutConfigPath != "" {
		layout, err = config.LoadLayout(cfg.LayoutConfigPath)
		if err != nil {
			logger.Error("failed to load layout", "path", cfg.LayoutConfigPath, "error", err)
			os.Exit(1)
		}
		logger.Info("layout loaded", "path", cfg.LayoutConfigPath, "tables", len(layout.Tables), "folders", len(layout.Folders))
	}

	svc, err := garden.NewService(store, layout, garden.Options{
		Assets: assets.Config{
			MaxCount:   cfg.AssetMaxCount,
			Order:      assets.Order(cfg.RetentionOrder),
			Normalizer: photo.NewNormalizer(cfg.PhotoMaxDimension),
		},
	}, logger)
	if err != nil {
		logger.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	backends := map[string]api.Pinger{cfg.StoreBackend: guarded}

	// Start HTTP server
	handler := api.NewServer(logger, svc, store, backends)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	go func() {
		logger.Info("starting HTTP server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}

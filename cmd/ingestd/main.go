package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/mujaz/ingest/internal/cache"
	"github.com/mujaz/ingest/internal/config"
	"github.com/mujaz/ingest/internal/ingest"
	"github.com/mujaz/ingest/internal/logger"
	"github.com/mujaz/ingest/internal/ratelimit"
	"github.com/mujaz/ingest/internal/retry"
	"github.com/mujaz/ingest/internal/rss"
	"github.com/mujaz/ingest/internal/server"
	"github.com/mujaz/ingest/internal/storage"
	"github.com/mujaz/ingest/internal/webpage"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger.Init()
	log := logger.With("main")

	cfg, err := config.Load()
	if err != nil {
		log.Error("❌ invalid configuration", "error", err)
		os.Exit(1)
	}

	var store *storage.Store
	err = retry.WithRetry(context.Background(), retry.RetryConfig{
		MaxAttempts: 3,
		Delay:       2 * time.Second,
		Backoff:     true,
	}, func() error {
		var connErr error
		store, connErr = storage.New(cfg.DatabaseURL, logger.With("storage"))
		return connErr
	})
	if err != nil {
		log.Error("❌ database unavailable", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := seedSources(store, cfg.SourcesConfigPath, log); err != nil {
		log.Error("❌ failed to seed sources", "error", err)
		os.Exit(1)
	}

	seen := cache.New(24 * time.Hour)
	defer seen.Close()

	limiter := ratelimit.NewHostLimiter(cfg.HostDelay)
	reader := rss.NewReader(cfg.FeedTimeout)
	pages := webpage.NewClient(cfg.PageTimeout, limiter, logger.With("webpage"))

	pipeline := ingest.New(store, store, reader, pages, seen, logger.With("ingest"), ingest.Options{
		BatchSize:      cfg.BatchSize,
		GroupSize:      cfg.GroupSize,
		StaleThreshold: cfg.StaleThreshold,
		MaxErrorCount:  cfg.MaxErrorCount,
	})

	if cfg.RunOnce {
		report, err := pipeline.Run(context.Background(), cfg.BatchSize)
		if err != nil {
			log.Error("❌ ingestion pass failed", "error", err)
			os.Exit(1)
		}
		log.Info("run complete",
			"sources", report.SourcesProcessed,
			"new_articles", report.TotalNewArticles)
		return
	}

	srv := server.New(pipeline, cfg.AllowedOrigins, cfg.ServiceKey, logger.With("server"), cfg.Debug)
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Error("❌ server stopped", "error", err)
		os.Exit(1)
	}
}

// seedSources upserts the YAML-configured feeds. A missing file is
// fine: sources can also be managed directly in the database.
func seedSources(store *storage.Store, path string, log *slog.Logger) error {
	seeds, err := rss.LoadSources(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	ctx := context.Background()
	for _, s := range seeds {
		if err := store.UpsertSource(ctx, s.FeedURL, s.Language, s.Active()); err != nil {
			return err
		}
	}

	if len(seeds) > 0 {
		log.Info("📡 sources seeded", "count", len(seeds))
	}
	return nil
}

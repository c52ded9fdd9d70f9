package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	_ "jobfleet/internal/platform/greenhouse"
	_ "jobfleet/internal/platform/workday"

	"jobfleet/internal/boardsource"
	"jobfleet/internal/config"
	"jobfleet/internal/fleet"
	"jobfleet/internal/locateintel"
	"jobfleet/internal/migrate"
	"jobfleet/internal/store"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	maxPages := flag.Int("max-pages", 0, "override fleet.maxPages (0 = use config)")
	flag.Parse()

	cfg := config.Load(*configPath)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))

	if err := migrate.Run(cfg.Database.DSN); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	db, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		log.Fatalf("open db failed: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	st := store.New(db, logger)

	cache := locationCache(cfg, logger)
	location := locateintel.New(
		logger,
		cfg.LLM.Enabled,
		cfg.LLM.OpenAI.APIKey,
		cfg.LLM.OpenAI.BaseURL,
		cfg.LLM.OpenAI.Model,
		time.Duration(cfg.LLM.TimeoutMs)*time.Millisecond,
		cfg.LLM.MaxRetries,
		cache,
	)

	boards := boardsource.CSVSource{Path: cfg.Boards.CSVPath}

	driver := fleet.New(logger, boards, st, location, cfg.Browser.BinaryPath, cfg.Fleet.BoardLockDir)

	opts := fleet.Options{
		MaxPages:     cfg.Fleet.MaxPages,
		ToCSV:        cfg.Fleet.ToCSV,
		OutputFile:   cfg.Fleet.OutputFile,
		ShowProgress: cfg.Fleet.ShowProgress,
		BoardLockDir: cfg.Fleet.BoardLockDir,
	}
	if *maxPages > 0 {
		opts.MaxPages = *maxPages
	}

	report, err := driver.Run(context.Background(), opts)
	if err != nil {
		log.Fatalf("fleet run failed to start: %v", err)
	}

	failures := 0
	for _, b := range report.Boards {
		if b.Err != nil {
			failures++
			logger.Error("board failed", "board", b.Board.Link, "platform", b.Board.Platform, "err", b.Err)
		} else {
			logger.Info("board complete", "board", b.Board.Link, "platform", b.Board.Platform, "written", b.Written)
		}
	}

	logger.Info("fleet run complete", "run_id", report.RunID, "boards", len(report.Boards), "failed", failures)
	// Exit status is zero even with per-board failures; nonzero exits are
	// reserved for configuration errors caught above, which already
	// log.Fatalf before reaching this point.
}

// locationCache selects the in-memory cache, optionally wrapped by a Redis
// cache when redis.url is configured, since the in-memory cache alone
// does not survive across separate fleet runs.
func locationCache(cfg *config.Config, logger *slog.Logger) locateintel.Cache {
	memory := locateintel.NewMemoryCache()
	if cfg.Redis.URL == "" {
		return memory
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Warn("invalid redis.url, falling back to in-memory location cache", "err", err)
		return memory
	}

	client := redis.NewClient(opts)
	ttl := time.Duration(cfg.Redis.TTL) * time.Minute
	return locateintel.NewRedisCache(client, ttl)
}

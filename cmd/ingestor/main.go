package main

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"overrated_products/internal/adapters/dataset"
	"overrated_products/internal/adapters/observability"
	redisad "overrated_products/internal/adapters/redis"
	"overrated_products/internal/app"
	"overrated_products/internal/shared"
	mysqlrepo "overrated_products/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	log.Info().
		Str("dataset", cfg.DatasetPath).
		Str("model", cfg.ModelURI).
		Int("workers", cfg.Workers).
		Int("batch", cfg.BatchSize).
		Msg("ingestor starting")

	// Derived fields are recomputed, so the ingestor needs the same scorer as the API.
	scorer, _, err := app.NewScorerFromConfig(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("scorer setup failed")
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	repo := mysqlrepo.New(db)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = repo.Ping(pingCtx)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}
	log.Info().Msg("db ping ok")

	reader, err := dataset.Open(cfg.DatasetPath)
	if err != nil {
		log.Fatal().Err(err).Msg("dataset open failed")
	}
	defer reader.Close()

	start := time.Now()
	rows, err := reader.LoadAll(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("dataset read failed")
	}
	log.Info().Int("rows", len(rows)).Dur("took", time.Since(start)).Msg("dataset loaded")

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	ing := app.NewIngestionService(scorer, repo, cache)
	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var (
		wg                       sync.WaitGroup
		stored, rejected, failed atomic.Int64
	)

	for off := 0; off < len(rows); off += cfg.BatchSize {
		batch := rows[off:min(off+cfg.BatchSize, len(rows))]

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(offset int, batch []map[string]any) {
			defer wg.Done()
			defer sem.Release(1)

			res, err := ing.IngestBatch(ctx, batch)
			rejected.Add(int64(res.Rejected))
			if err != nil {
				failed.Add(int64(len(batch) - res.Rejected))
				log.Warn().Int("offset", offset).Err(err).Msg("batch failed")
				return
			}
			stored.Add(int64(res.Stored))
			log.Debug().Int("offset", offset).Int("stored", res.Stored).Int("rejected", res.Rejected).Msg("batch ok")
		}(off, batch)
	}

	wg.Wait()
	ing.InvalidateReports(ctx)
	log.Info().
		Int64("stored", stored.Load()).
		Int64("rejected", rejected.Load()).
		Int64("failed", failed.Load()).
		Dur("took", time.Since(start)).
		Msg("ingestion completed")
}

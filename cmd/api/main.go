package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "overrated_products/internal/adapters/http_server"
	"overrated_products/internal/adapters/observability"
	redisad "overrated_products/internal/adapters/redis"
	"overrated_products/internal/app"
	"overrated_products/internal/reporting"
	"overrated_products/internal/shared"
	mysqlrepo "overrated_products/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// model bundle and lexicon: loaded once, fatal when missing
	scorer, bundle, err := app.NewScorerFromConfig(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("uri", cfg.ModelURI).Msg("scorer setup failed")
	}

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	repo := mysqlrepo.New(db)
	if err := pingWithin(ctx, 5*time.Second, repo.Ping); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("redis unreachable; reports will be computed per request")
	}
	q := app.NewQueryService(repo, cache, cfg.CacheTTL, scorer.Thresholds(), reporting.ProductOptions{}, bundle.Metrics)

	// http
	srv := server.New(server.Options{CORSOrigins: cfg.CORSOrigins, ScoreRateLimit: cfg.ScoreRateLimit})
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{S: app.NewScoringService(scorer), Q: q})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

func pingWithin(ctx context.Context, d time.Duration, ping func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return ping(ctx)
}

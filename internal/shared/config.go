package shared

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration

	ModelURI     string
	ModelKey     string
	ModelRPS     int
	ModelVariant string
	LexiconPath  string

	RiskMedium float64
	RiskHigh   float64

	DatasetPath string
	Workers     int
	BatchSize   int

	ScoreRateLimit int // requests per minute per client IP; 0 disables
	CORSOrigins    []string
}

// Load reads the process environment. A .env file in the working directory,
// when present, fills keys that are not already set.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg(".env not loaded")
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/overrated?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,

		ModelURI:     env("MODEL_URI", "models/bundle.yaml"),
		ModelKey:     env("MODEL_REGISTRY_KEY", ""),
		ModelRPS:     atoi("MODEL_REGISTRY_RPS", 5),
		ModelVariant: env("MODEL_VARIANT", ""),
		LexiconPath:  env("LEXICON_PATH", ""),

		RiskMedium: atof("RISK_MEDIUM_THRESHOLD", 0.3),
		RiskHigh:   atof("RISK_HIGH_THRESHOLD", 0.8),

		DatasetPath: env("DATASET_PATH", "data/reviews_scored.parquet"),
		Workers:     atoi("INGEST_WORKERS", 8),
		BatchSize:   atoi("INGEST_BATCH_SIZE", 500),

		ScoreRateLimit: atoi("SCORE_RATE_LIMIT", 120),
		CORSOrigins:    list("CORS_ORIGINS", []string{"*"}),
	}
	if strings.HasPrefix(c.ModelURI, "http") && c.ModelKey == "" {
		log.Warn().Msg("MODEL_REGISTRY_KEY is empty")
	}
	return c
}

// Validate rejects settings the services cannot start with.
func (c Config) Validate() error {
	if c.RiskMedium < 0 || c.RiskMedium >= c.RiskHigh {
		return fmt.Errorf("risk thresholds: medium %.3f must be non-negative and below high %.3f", c.RiskMedium, c.RiskHigh)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("INGEST_WORKERS must be positive, got %d", c.Workers)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("INGEST_BATCH_SIZE must be positive, got %d", c.BatchSize)
	}
	if c.ModelURI == "" {
		return errors.New("MODEL_URI is required")
	}
	return nil
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
	}
	return def
}

func atof(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not a number, using default")
	}
	return def
}

func list(k string, def []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

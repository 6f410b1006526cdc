package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"overrated_products/internal/adapters/modelstore"
	"overrated_products/internal/forecast"
	"overrated_products/internal/scoring"
	"overrated_products/internal/shared"
)

const bundleLoadTimeout = 60 * time.Second

// NewScorerFromConfig loads the model bundle and lexicon overrides named by cfg
// and assembles the Scorer. The API and the ingestor both start here so stored
// and live scores come from the same pipeline.
func NewScorerFromConfig(ctx context.Context, cfg shared.Config) (*scoring.Scorer, *forecast.Bundle, error) {
	loadCtx, cancel := context.WithTimeout(ctx, bundleLoadTimeout)
	defer cancel()

	src, err := modelstore.Open(loadCtx, cfg.ModelURI, modelstore.Options{APIKey: cfg.ModelKey, RPS: cfg.ModelRPS})
	if err != nil {
		return nil, nil, fmt.Errorf("model source %s: %w", cfg.ModelURI, err)
	}
	bundle, err := src.Load(loadCtx)
	if err != nil {
		return nil, nil, fmt.Errorf("load bundle %s: %w", cfg.ModelURI, err)
	}
	if cfg.ModelVariant != "" {
		bundle = bundle.WithVariant(forecast.Variant(cfg.ModelVariant))
	}
	fc, err := bundle.Forecaster()
	if err != nil {
		return nil, nil, fmt.Errorf("forecaster %q: %w", bundle.Variant, err)
	}

	lex, err := scoring.LoadLexicon(cfg.LexiconPath)
	if err != nil {
		return nil, nil, fmt.Errorf("lexicon %s: %w", cfg.LexiconPath, err)
	}
	scorer, err := scoring.NewScorer(scoring.NewExtractor(lex), fc,
		scoring.Thresholds{Medium: cfg.RiskMedium, High: cfg.RiskHigh})
	if err != nil {
		return nil, nil, err
	}

	log.Info().
		Str("bundle", bundle.Name).
		Str("variant", string(bundle.Variant)).
		Int("lexicon_overrides", len(lex)).
		Msg("scorer ready")
	return scorer, bundle, nil
}

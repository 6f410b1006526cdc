package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"overrated_products/internal/adapters/observability"
	"overrated_products/internal/domain"
	"overrated_products/internal/scoring"
)

// ScoringService is the single-review path behind POST /v1/score.
type ScoringService struct {
	scorer *scoring.Scorer
}

func NewScoringService(s *scoring.Scorer) *ScoringService {
	return &ScoringService{scorer: s}
}

func (s *ScoringService) Score(ctx context.Context, text string, rating float64) (scoring.Result, error) {
	if err := ctx.Err(); err != nil {
		return scoring.Result{}, err
	}
	res, err := s.scorer.Score(text, rating)
	if err != nil {
		log.Debug().Err(err).Float64("rating", rating).Msg("score rejected")
		return scoring.Result{}, err
	}
	observability.ObserveScore("api", string(res.Risk), res.Overrated, res.Sentiment)
	return res, nil
}

func (s *ScoringService) Thresholds() scoring.Thresholds { return s.scorer.Thresholds() }

type IngestionService struct {
	scorer *scoring.Scorer
	repo   domain.ReviewRepository
	cache  domain.Cache
}

func NewIngestionService(sc *scoring.Scorer, r domain.ReviewRepository, cache domain.Cache) *IngestionService {
	return &IngestionService{scorer: sc, repo: r, cache: cache}
}

type IngestResult struct {
	Stored   int
	Rejected int
}

// IngestBatch maps raw dataset rows, recomputes every derived field with the
// live scorer and upserts the batch. Rows that cannot be mapped or scored are
// recorded as rejects and skipped; a storage failure aborts the batch.
func (s *IngestionService) IngestBatch(ctx context.Context, rows []map[string]any) (IngestResult, error) {
	var res IngestResult
	reviews := make([]domain.Review, 0, len(rows))

	for _, row := range rows {
		rv, err := mapRow(row)
		if err == nil {
			err = s.scorer.ScoreRecord(&rv)
		}
		if err != nil {
			res.Rejected++
			if lerr := s.repo.LogReject(ctx, domain.Reject{SourceID: rv.SourceID, Reason: err.Error()}); lerr != nil {
				log.Warn().Err(lerr).Str("source_id", rv.SourceID).Msg("log reject failed")
			}
			continue
		}
		observability.ObserveScore("ingest", string(rv.RiskLevel), s.scorer.Thresholds().Overrated(rv.OverratedIndex), rv.SentimentScore)
		reviews = append(reviews, rv)
	}
	observability.ObserveIngest("rejected", res.Rejected)

	if len(reviews) > 0 {
		if err := s.repo.UpsertReviews(ctx, reviews); err != nil {
			observability.ObserveIngest("failed", len(reviews))
			// do not swallow: a partially stored dataset skews every report
			return res, fmt.Errorf("upsert %d reviews: %w", len(reviews), err)
		}
	}
	res.Stored = len(reviews)
	observability.ObserveIngest("stored", res.Stored)
	return res, nil
}

// InvalidateReports evicts every cached aggregate so the next read recomputes
// from the store.
func (s *IngestionService) InvalidateReports(ctx context.Context) {
	if s.cache == nil {
		return
	}
	for _, k := range reportKeys {
		if err := s.cache.Del(ctx, k); err != nil {
			log.Warn().Err(err).Str("key", k).Msg("cache invalidation failed")
		}
	}
}

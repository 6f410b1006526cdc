package app

import (
	"context"
	"time"

	"overrated_products/internal/domain"
	"overrated_products/internal/forecast"
	"overrated_products/internal/reporting"
	"overrated_products/internal/scoring"
)

const (
	keyOverview       = "report:overview"
	keySentiment      = "report:sentiment"
	keyProducts       = "report:products"
	keyCategories     = "report:categories"
	keyRisk           = "report:risk"
	keyForecastImpact = "report:forecast-impact"
)

var reportKeys = []string{keyOverview, keySentiment, keyProducts, keyCategories, keyRisk, keyForecastImpact}

// maxExploreRows caps explorer responses when the caller sets no limit.
const maxExploreRows = 1000

type QueryService struct {
	repo       domain.ReviewRepository
	cache      domain.Cache
	cacheTTL   time.Duration
	thresholds scoring.Thresholds
	products   reporting.ProductOptions
	metrics    []forecast.ModelMetric
}

func NewQueryService(r domain.ReviewRepository, c domain.Cache, ttl time.Duration, th scoring.Thresholds,
	products reporting.ProductOptions, metrics []forecast.ModelMetric) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl, thresholds: th, products: products, metrics: metrics}
}

// cached serves key from the cache or computes it over the full review set.
func cached[T any](ctx context.Context, s *QueryService, key string, build func([]domain.Review) T) (T, error) {
	var out T
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	rs, err := s.repo.ListReviews(ctx, domain.ReviewFilter{})
	if err != nil {
		return out, err
	}
	out = build(rs)
	_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

func (s *QueryService) Overview(ctx context.Context) (reporting.Overview, error) {
	return cached(ctx, s, keyOverview, func(rs []domain.Review) reporting.Overview {
		return reporting.BuildOverview(rs, s.thresholds)
	})
}

func (s *QueryService) Sentiment(ctx context.Context) (reporting.SentimentInsights, error) {
	return cached(ctx, s, keySentiment, reporting.BuildSentimentInsights)
}

func (s *QueryService) Products(ctx context.Context) (reporting.ProductReport, error) {
	return cached(ctx, s, keyProducts, func(rs []domain.Review) reporting.ProductReport {
		return reporting.BuildProductReport(rs, s.products)
	})
}

func (s *QueryService) Categories(ctx context.Context) ([]reporting.CategoryRisk, error) {
	return cached(ctx, s, keyCategories, reporting.BuildCategoryRisk)
}

func (s *QueryService) Risk(ctx context.Context) ([]reporting.RiskCount, error) {
	return cached(ctx, s, keyRisk, reporting.BuildRiskDistribution)
}

func (s *QueryService) ForecastImpact(ctx context.Context) (reporting.ForecastImpact, error) {
	return cached(ctx, s, keyForecastImpact, reporting.BuildForecastImpact)
}

// ModelMetrics returns the offline evaluation table shipped with the bundle.
func (s *QueryService) ModelMetrics() []forecast.ModelMetric {
	out := make([]forecast.ModelMetric, len(s.metrics))
	copy(out, s.metrics)
	return out
}

// Explore is uncached: filters are open-ended.
func (s *QueryService) Explore(ctx context.Context, f domain.ReviewFilter) ([]domain.Review, reporting.Summary, error) {
	limit := f.Limit
	f.Limit = 0
	rs, err := s.repo.ListReviews(ctx, f)
	if err != nil {
		return nil, reporting.Summary{}, err
	}
	sorted, sum := reporting.Explore(rs)
	if limit <= 0 || limit > maxExploreRows {
		limit = maxExploreRows
	}
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, sum, nil
}

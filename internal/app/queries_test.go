package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"overrated_products/internal/app"
	"overrated_products/internal/domain"
	"overrated_products/internal/forecast"
	"overrated_products/internal/reporting"
	"overrated_products/internal/scoring"
)

// ---- fakes ----

type fakeRepo struct {
	reviews  []domain.Review
	rejects  []domain.Reject
	upserted []domain.Review
	filters  []domain.ReviewFilter
	err      error
}

func (f *fakeRepo) UpsertReviews(ctx context.Context, rs []domain.Review) error {
	if f.err != nil {
		return f.err
	}
	f.upserted = append(f.upserted, rs...)
	return nil
}
func (f *fakeRepo) LogReject(ctx context.Context, r domain.Reject) error {
	f.rejects = append(f.rejects, r)
	return nil
}
func (f *fakeRepo) ListReviews(ctx context.Context, flt domain.ReviewFilter) ([]domain.Review, error) {
	f.filters = append(f.filters, flt)
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Review
	for _, r := range f.reviews {
		if flt.Match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// fakeCache stores JSON like the Redis adapter does, so cached values never
// alias the repo's slices.
type fakeCache struct {
	store map[string][]byte
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	c.store[key] = b
	return err
}
func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.dels = append(c.dels, key)
	delete(c.store, key)
	return nil
}

func newQueries(repo *fakeRepo, cache *fakeCache) *app.QueryService {
	return app.NewQueryService(repo, cache, 10*time.Minute, scoring.DefaultThresholds(),
		reporting.ProductOptions{MinReviews: 1}, []forecast.ModelMetric{{Model: "XGBoost", MAE: 0.09, RMSE: 0.12}})
}

// ---- tests ----

func TestOverview_CacheMissThenHit(t *testing.T) {
	repo := &fakeRepo{reviews: []domain.Review{
		{ProductID: "p1", OriginalRating: 5, CorrectedRating: 4, OverratedIndex: 1, RiskLevel: domain.RiskHigh},
		{ProductID: "p2", OriginalRating: 3, CorrectedRating: 3, OverratedIndex: 0, RiskLevel: domain.RiskLow},
	}}
	cache := &fakeCache{}
	q := newQueries(repo, cache)

	// Miss (first time, populates cache)
	o, err := q.Overview(context.Background())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if o.TotalReviews != 2 || o.OverratedReviews != 1 {
		t.Fatalf("unexpected overview: %+v", o)
	}

	// Mutate repo to ensure second read indeed comes from cache
	repo.reviews = nil

	o2, err := q.Overview(context.Background())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if o2.TotalReviews != 2 {
		t.Fatalf("expected cached overview, got %+v", o2)
	}
	if len(repo.filters) != 1 {
		t.Fatalf("expected one repo read, got %d", len(repo.filters))
	}
}

func TestReports_RepoError(t *testing.T) {
	q := newQueries(&fakeRepo{err: errors.New("db down")}, &fakeCache{})
	if _, err := q.Products(context.Background()); err == nil {
		t.Fatalf("expected repo error")
	}
}

func TestReports_AllKinds(t *testing.T) {
	books := "Books"
	jan := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeRepo{reviews: []domain.Review{
		{ProductID: "p1", Category: &books, Month: &jan, OriginalRating: 5, CorrectedRating: 3.8, OverratedIndex: 1.2,
			RiskLevel: domain.RiskHigh, SentimentLabel: domain.SentimentNegative, SentimentScore: -0.5},
	}}
	q := newQueries(repo, &fakeCache{})
	ctx := context.Background()

	p, err := q.Products(ctx)
	if err != nil || len(p.Top) != 1 || len(p.ActionList) != 1 {
		t.Fatalf("products: %+v err=%v", p, err)
	}
	c, err := q.Categories(ctx)
	if err != nil || len(c) != 1 || c[0].Category != "Books" {
		t.Fatalf("categories: %+v err=%v", c, err)
	}
	r, err := q.Risk(ctx)
	if err != nil || r[2].Level != domain.RiskHigh || r[2].Count != 1 {
		t.Fatalf("risk: %+v err=%v", r, err)
	}
	fi, err := q.ForecastImpact(ctx)
	if err != nil || len(fi.Months) != 1 || !fi.Months[0].Month.Equal(jan) {
		t.Fatalf("forecast impact: %+v err=%v", fi, err)
	}
	s, err := q.Sentiment(ctx)
	if err != nil || s.MismatchCount != 1 {
		t.Fatalf("sentiment: %+v err=%v", s, err)
	}

	m := q.ModelMetrics()
	m[0].Model = "mutated"
	if q.ModelMetrics()[0].Model != "XGBoost" {
		t.Fatalf("model metrics must be copied")
	}
}

func TestExplore_FilterLimitAndSummary(t *testing.T) {
	repo := &fakeRepo{}
	for i, idx := range []float64{0.2, 1.4, -0.1, 0.9} {
		risk := domain.RiskLow
		if idx > 0.8 {
			risk = domain.RiskHigh
		}
		repo.reviews = append(repo.reviews, domain.Review{
			SourceID: string(rune('a' + i)), OriginalRating: 4, OverratedIndex: idx, RiskLevel: risk,
		})
	}
	q := newQueries(repo, &fakeCache{})

	rows, sum, err := q.Explore(context.Background(), domain.ReviewFilter{RiskLevels: []domain.RiskLevel{domain.RiskHigh}, Limit: 1})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(rows) != 1 || rows[0].SourceID != "b" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if sum.Reviews != 2 {
		t.Fatalf("summary covers the whole filtered set, got %+v", sum)
	}
	if repo.filters[0].Limit != 0 {
		t.Fatalf("limit applies after sorting, repo saw %d", repo.filters[0].Limit)
	}
}

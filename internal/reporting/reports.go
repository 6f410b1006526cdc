// Package reporting aggregates scored reviews into the dashboard read models.
// Every builder is a pure function of its input slice.
package reporting

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"overrated_products/internal/domain"
	"overrated_products/internal/scoring"
)

type Overview struct {
	TotalReviews         int     `json:"total_reviews"`
	AvgOriginalRating    float64 `json:"avg_original_rating"`
	AvgCorrectedRating   float64 `json:"avg_corrected_rating"`
	AvgRatingGap         float64 `json:"avg_rating_gap"`
	MedianOverratedIndex float64 `json:"median_overrated_index"`
	OverratedReviews     int     `json:"overrated_reviews"`
	OverratedPct         float64 `json:"overrated_pct"`
}

type SentimentInsights struct {
	AvgSentiment         float64 `json:"avg_sentiment"`
	NegativePct          float64 `json:"negative_pct"`
	NeutralPct           float64 `json:"neutral_pct"`
	PositivePct          float64 `json:"positive_pct"`
	MismatchCount        int     `json:"high_rating_negative_count"`
	MismatchPct          float64 `json:"high_rating_negative_pct"`
	MismatchAvgRating    float64 `json:"high_rating_negative_avg_rating"`
	MismatchAvgSentiment float64 `json:"high_rating_negative_avg_sentiment"`
}

type ProductRisk struct {
	ProductID          string  `json:"product_id"`
	ReviewCount        int     `json:"review_count"`
	AvgOriginalRating  float64 `json:"avg_original_rating"`
	AvgCorrectedRating float64 `json:"avg_corrected_rating"`
	AvgOverratedIndex  float64 `json:"avg_overrated_index"`
	HighRiskCount      int     `json:"high_risk_count"`
}

type ProductReport struct {
	AvgOverratedIndex float64       `json:"avg_overrated_index"`
	HighRiskReviews   int           `json:"high_risk_reviews"`
	ProductsAtRisk    int           `json:"products_at_risk"`
	Top               []ProductRisk `json:"top"`
	ActionList        []ProductRisk `json:"action_list"`
}

// ProductOptions tune the product report. Zero values take the defaults.
type ProductOptions struct {
	MinReviews  int     // products with fewer reviews are too noisy to rank (20)
	TopN        int     // size of the top list (10)
	ActionIndex float64 // average index above which a product needs action (0.5)
}

func (o ProductOptions) withDefaults() ProductOptions {
	if o.MinReviews <= 0 {
		o.MinReviews = 20
	}
	if o.TopN <= 0 {
		o.TopN = 10
	}
	if o.ActionIndex == 0 {
		o.ActionIndex = 0.5
	}
	return o
}

type CategoryRisk struct {
	Category          string  `json:"category"`
	Reviews           int     `json:"reviews"`
	AvgOverratedIndex float64 `json:"avg_overrated_index"`
}

type RiskCount struct {
	Level domain.RiskLevel `json:"risk_level"`
	Count int              `json:"count"`
}

type MonthlyDemand struct {
	Month           time.Time `json:"month"`
	RawDemand       float64   `json:"raw_demand"`
	CorrectedDemand float64   `json:"corrected_demand"`
	Gap             float64   `json:"forecast_gap"`
}

type ForecastImpact struct {
	Months            []MonthlyDemand `json:"months"`
	AvgOverestimation float64         `json:"avg_overestimation"`
	OverestimatedPct  float64         `json:"overestimated_pct"`
	MaxGap            float64         `json:"max_gap"`
}

type Summary struct {
	Reviews            int     `json:"reviews"`
	AvgOriginalRating  float64 `json:"avg_original_rating"`
	AvgCorrectedRating float64 `json:"avg_corrected_rating"`
	AvgOverratedIndex  float64 `json:"avg_overrated_index"`
}

// mean is stat.Mean with an empty-input guard.
func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func BuildOverview(rs []domain.Review, th scoring.Thresholds) Overview {
	orig := make([]float64, len(rs))
	corr := make([]float64, len(rs))
	idx := make([]float64, len(rs))
	over := 0
	for i, r := range rs {
		orig[i] = r.OriginalRating
		corr[i] = r.CorrectedRating
		idx[i] = r.OverratedIndex
		if th.Overrated(r.OverratedIndex) {
			over++
		}
	}
	out := Overview{
		TotalReviews:       len(rs),
		AvgOriginalRating:  mean(orig),
		AvgCorrectedRating: mean(corr),
		AvgRatingGap:       mean(idx),
		OverratedReviews:   over,
		OverratedPct:       pct(over, len(rs)),
	}
	if len(idx) > 0 {
		sort.Float64s(idx)
		out.MedianOverratedIndex = stat.Quantile(0.5, stat.Empirical, idx, nil)
	}
	return out
}

// BuildSentimentInsights reports label shares and the high-rating (>= 4) but
// negative-text mismatch group.
func BuildSentimentInsights(rs []domain.Review) SentimentInsights {
	sent := make([]float64, len(rs))
	var neg, neu, pos int
	var mmRating, mmSent []float64
	for i, r := range rs {
		sent[i] = r.SentimentScore
		switch r.SentimentLabel {
		case domain.SentimentNegative:
			neg++
			if r.OriginalRating >= 4 {
				mmRating = append(mmRating, r.OriginalRating)
				mmSent = append(mmSent, r.SentimentScore)
			}
		case domain.SentimentNeutral:
			neu++
		case domain.SentimentPositive:
			pos++
		}
	}
	return SentimentInsights{
		AvgSentiment:         mean(sent),
		NegativePct:          pct(neg, len(rs)),
		NeutralPct:           pct(neu, len(rs)),
		PositivePct:          pct(pos, len(rs)),
		MismatchCount:        len(mmRating),
		MismatchPct:          pct(len(mmRating), len(rs)),
		MismatchAvgRating:    mean(mmRating),
		MismatchAvgSentiment: mean(mmSent),
	}
}

func BuildProductReport(rs []domain.Review, opts ProductOptions) ProductReport {
	opts = opts.withDefaults()

	type acc struct {
		orig, corr, idx []float64
		high            int
	}
	groups := map[string]*acc{}
	atRisk := map[string]struct{}{}
	allIdx := make([]float64, len(rs))
	high := 0
	for i, r := range rs {
		allIdx[i] = r.OverratedIndex
		g := groups[r.ProductID]
		if g == nil {
			g = &acc{}
			groups[r.ProductID] = g
		}
		g.orig = append(g.orig, r.OriginalRating)
		g.corr = append(g.corr, r.CorrectedRating)
		g.idx = append(g.idx, r.OverratedIndex)
		if r.RiskLevel == domain.RiskHigh {
			g.high++
			high++
			atRisk[r.ProductID] = struct{}{}
		}
	}

	var ranked []ProductRisk
	for id, g := range groups {
		if len(g.idx) < opts.MinReviews {
			continue
		}
		ranked = append(ranked, ProductRisk{
			ProductID:          id,
			ReviewCount:        len(g.idx),
			AvgOriginalRating:  mean(g.orig),
			AvgCorrectedRating: mean(g.corr),
			AvgOverratedIndex:  mean(g.idx),
			HighRiskCount:      g.high,
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].AvgOverratedIndex != ranked[j].AvgOverratedIndex {
			return ranked[i].AvgOverratedIndex > ranked[j].AvgOverratedIndex
		}
		return ranked[i].ProductID < ranked[j].ProductID
	})

	out := ProductReport{
		AvgOverratedIndex: mean(allIdx),
		HighRiskReviews:   high,
		ProductsAtRisk:    len(atRisk),
		Top:               []ProductRisk{},
		ActionList:        []ProductRisk{},
	}
	for i, p := range ranked {
		if i < opts.TopN {
			out.Top = append(out.Top, p)
		}
		if p.AvgOverratedIndex > opts.ActionIndex {
			out.ActionList = append(out.ActionList, p)
		}
	}
	return out
}

// BuildCategoryRisk averages the index per category, highest first.
// Reviews without a category are left out.
func BuildCategoryRisk(rs []domain.Review) []CategoryRisk {
	groups := map[string][]float64{}
	for _, r := range rs {
		if r.Category == nil {
			continue
		}
		groups[*r.Category] = append(groups[*r.Category], r.OverratedIndex)
	}
	out := make([]CategoryRisk, 0, len(groups))
	for c, xs := range groups {
		out = append(out, CategoryRisk{Category: c, Reviews: len(xs), AvgOverratedIndex: mean(xs)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgOverratedIndex != out[j].AvgOverratedIndex {
			return out[i].AvgOverratedIndex > out[j].AvgOverratedIndex
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func BuildRiskDistribution(rs []domain.Review) []RiskCount {
	counts := map[domain.RiskLevel]int{}
	for _, r := range rs {
		counts[r.RiskLevel]++
	}
	return []RiskCount{
		{Level: domain.RiskLow, Count: counts[domain.RiskLow]},
		{Level: domain.RiskMedium, Count: counts[domain.RiskMedium]},
		{Level: domain.RiskHigh, Count: counts[domain.RiskHigh]},
	}
}

// BuildForecastImpact compares the monthly mean raw rating (the naive demand
// proxy) with the monthly mean corrected rating. Reviews without a month are
// left out.
func BuildForecastImpact(rs []domain.Review) ForecastImpact {
	type acc struct{ raw, corr []float64 }
	groups := map[time.Time]*acc{}
	for _, r := range rs {
		if r.Month == nil {
			continue
		}
		m := monthStart(*r.Month)
		g := groups[m]
		if g == nil {
			g = &acc{}
			groups[m] = g
		}
		g.raw = append(g.raw, r.OriginalRating)
		g.corr = append(g.corr, r.CorrectedRating)
	}

	out := ForecastImpact{Months: make([]MonthlyDemand, 0, len(groups))}
	for m, g := range groups {
		raw, corr := mean(g.raw), mean(g.corr)
		out.Months = append(out.Months, MonthlyDemand{Month: m, RawDemand: raw, CorrectedDemand: corr, Gap: raw - corr})
	}
	sort.Slice(out.Months, func(i, j int) bool { return out.Months[i].Month.Before(out.Months[j].Month) })

	if len(out.Months) == 0 {
		return out
	}
	gaps := make([]float64, len(out.Months))
	over := 0
	out.MaxGap = out.Months[0].Gap
	for i, m := range out.Months {
		gaps[i] = m.Gap
		if m.Gap > 0 {
			over++
		}
		if m.Gap > out.MaxGap {
			out.MaxGap = m.Gap
		}
	}
	out.AvgOverestimation = mean(gaps)
	out.OverestimatedPct = pct(over, len(gaps))
	return out
}

// Explore sorts a filtered review set by overrated index, highest first, and
// summarizes it. The input slice is not modified.
func Explore(rs []domain.Review) ([]domain.Review, Summary) {
	out := make([]domain.Review, len(rs))
	copy(out, rs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].OverratedIndex > out[j].OverratedIndex })
	return out, Summarize(rs)
}

func Summarize(rs []domain.Review) Summary {
	orig := make([]float64, len(rs))
	corr := make([]float64, len(rs))
	idx := make([]float64, len(rs))
	for i, r := range rs {
		orig[i], corr[i], idx[i] = r.OriginalRating, r.CorrectedRating, r.OverratedIndex
	}
	return Summary{
		Reviews:            len(rs),
		AvgOriginalRating:  mean(orig),
		AvgCorrectedRating: mean(corr),
		AvgOverratedIndex:  mean(idx),
	}
}

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

package domain

import "time"

type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

type SentimentLabel string

const (
	SentimentNegative SentimentLabel = "Negative"
	SentimentNeutral  SentimentLabel = "Neutral"
	SentimentPositive SentimentLabel = "Positive"
)

// Review is one scored customer review. The derived fields (sentiment onwards)
// are always recomputed from Text and OriginalRating, never set independently.
type Review struct {
	ID             int64
	SourceID       string // stable id from the dataset, or a content hash
	ProductID      string
	Category       *string
	Month          *time.Time // first day of the review month, UTC
	Text           string
	OriginalRating float64

	SentimentScore  float64
	SentimentLabel  SentimentLabel
	CorrectedRating float64
	OverratedIndex  float64
	RiskLevel       RiskLevel
}

// ReviewFilter narrows the review set for the explorer and the reports.
// Nil/empty fields do not filter.
type ReviewFilter struct {
	Categories   []string
	ProductIDs   []string
	RatingMin    *float64
	RatingMax    *float64
	SentimentMin *float64
	SentimentMax *float64
	RiskLevels   []RiskLevel
	MonthFrom    *time.Time
	MonthTo      *time.Time
	Limit        int // 0 = no limit
}

// Reject is a dataset row that failed a scoring precondition during ingestion.
type Reject struct {
	SourceID string
	Reason   string
}

// Match reports whether r passes every set constraint of f. Limit is ignored.
func (f ReviewFilter) Match(r Review) bool {
	if len(f.Categories) > 0 && (r.Category == nil || !contains(f.Categories, *r.Category)) {
		return false
	}
	if len(f.ProductIDs) > 0 && !contains(f.ProductIDs, r.ProductID) {
		return false
	}
	if f.RatingMin != nil && r.OriginalRating < *f.RatingMin {
		return false
	}
	if f.RatingMax != nil && r.OriginalRating > *f.RatingMax {
		return false
	}
	if f.SentimentMin != nil && r.SentimentScore < *f.SentimentMin {
		return false
	}
	if f.SentimentMax != nil && r.SentimentScore > *f.SentimentMax {
		return false
	}
	if len(f.RiskLevels) > 0 && !contains(f.RiskLevels, r.RiskLevel) {
		return false
	}
	if f.MonthFrom != nil && (r.Month == nil || r.Month.Before(*f.MonthFrom)) {
		return false
	}
	if f.MonthTo != nil && (r.Month == nil || r.Month.After(*f.MonthTo)) {
		return false
	}
	return true
}

func contains[T comparable](xs []T, v T) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

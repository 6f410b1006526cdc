package scoring

import (
	"errors"
	"fmt"
	"math"

	"overrated_products/internal/domain"
	"overrated_products/internal/forecast"
)

// Result is what a single review scoring returns to the presentation layer.
// Corrected and OverratedIndex are rounded to 2 decimals so that
// rating - Corrected == OverratedIndex holds in responses; Risk is classified
// on the unrounded index.
type Result struct {
	Final          float64               `json:"final_rating"`
	Sentiment      float64               `json:"sentiment"`
	Label          domain.SentimentLabel `json:"sentiment_label"`
	Explanation    string                `json:"explanation"`
	Corrected      float64               `json:"corrected_rating"`
	OverratedIndex float64               `json:"overrated_index"`
	Risk           domain.RiskLevel      `json:"risk_level"`
	Forecast       float64               `json:"forecast"`
	Overrated      bool                  `json:"overrated"`
}

// Scorer is built once from read-only artifacts and is safe for concurrent use.
type Scorer struct {
	extractor  *Extractor
	forecaster forecast.Forecaster
	thresholds Thresholds
}

func NewScorer(ex *Extractor, f forecast.Forecaster, th Thresholds) (*Scorer, error) {
	if ex == nil {
		return nil, errors.New("scorer: nil extractor")
	}
	if f == nil {
		return nil, fmt.Errorf("scorer: %w", domain.ErrModelUnavailable)
	}
	if err := th.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{extractor: ex, forecaster: f, thresholds: th}, nil
}

func (s *Scorer) Thresholds() Thresholds { return s.thresholds }

// Score runs the full single-review path. Overrated is final < rating, strictly.
func (s *Scorer) Score(text string, rating float64) (Result, error) {
	if err := ValidateRating(rating); err != nil {
		return Result{}, err
	}
	sentiment, err := s.extractor.Extract(text)
	if err != nil {
		return Result{}, err
	}
	corr, err := Correct(rating, sentiment)
	if err != nil {
		return Result{}, err
	}
	fc, err := s.forecaster.Forecast(forecast.Features{
		Rating:    rating,
		Sentiment: sentiment,
		Corrected: corr.Corrected,
	})
	if err != nil {
		return Result{}, fmt.Errorf("forecast: %w", err)
	}
	if math.IsNaN(fc) || math.IsInf(fc, 0) {
		return Result{}, fmt.Errorf("%w: forecast produced %v", domain.ErrModelUnavailable, fc)
	}

	final := Round2(clamp(reviewWeight*corr.Corrected+forecastWeight*fc, MinRating, MaxRating))
	return Result{
		Final:          final,
		Sentiment:      sentiment,
		Label:          Label(sentiment),
		Explanation:    Explain(sentiment),
		Corrected:      corr.Display(),
		OverratedIndex: Round2(corr.OverratedIndex),
		Risk:           s.thresholds.Classify(corr.OverratedIndex),
		Forecast:       fc,
		Overrated:      final < rating,
	}, nil
}

// ScoreRecord recomputes every derived field of r from its text and rating.
func (s *Scorer) ScoreRecord(r *domain.Review) error {
	sentiment, err := s.extractor.Extract(r.Text)
	if err != nil {
		return err
	}
	corr, err := Correct(r.OriginalRating, sentiment)
	if err != nil {
		return err
	}
	r.SentimentScore = sentiment
	r.SentimentLabel = Label(sentiment)
	r.CorrectedRating = corr.Corrected
	r.OverratedIndex = corr.OverratedIndex
	r.RiskLevel = s.thresholds.Classify(corr.OverratedIndex)
	return nil
}

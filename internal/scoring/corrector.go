package scoring

import "math"

const (
	MinRating = 1.0
	MaxRating = 5.0

	ratingWeight    = 0.6
	sentimentWeight = 0.4
	reviewWeight    = 0.7
	forecastWeight  = 0.3
)

// Correction is the result of blending a rating with a polarity.
// Corrected keeps full precision; use Display for presentation.
type Correction struct {
	Rating         float64
	Sentiment      float64
	Corrected      float64
	OverratedIndex float64 // Rating - Corrected; positive means the text does not support the rating
}

func (c Correction) Display() float64 { return Round2(c.Corrected) }

// RescaleSentiment maps [-1, 1] onto [0, 5].
func RescaleSentiment(s float64) float64 { return (s + 1) * 2.5 }

// Correct blends rating and sentiment 0.6/0.4 and clamps the result to [1, 5].
func Correct(rating, sentiment float64) (Correction, error) {
	if err := ValidateRating(rating); err != nil {
		return Correction{}, err
	}
	if err := validateSentiment(sentiment); err != nil {
		return Correction{}, err
	}
	corrected := clamp(ratingWeight*rating+sentimentWeight*RescaleSentiment(sentiment), MinRating, MaxRating)
	return Correction{
		Rating:         rating,
		Sentiment:      sentiment,
		Corrected:      corrected,
		OverratedIndex: rating - corrected,
	}, nil
}

func ValidateRating(rating float64) error {
	if math.IsNaN(rating) || rating < MinRating || rating > MaxRating {
		return &InputError{Field: "rating", Value: rating, Reason: "must be within [1, 5]"}
	}
	return nil
}

func validateSentiment(s float64) error {
	if math.IsNaN(s) || s < -1 || s > 1 {
		return &InputError{Field: "sentiment", Value: s, Reason: "must be within [-1, 1]"}
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 { return math.Round(v*100) / 100 }

package scoring_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"overrated_products/internal/domain"
	"overrated_products/internal/forecast"
	"overrated_products/internal/scoring"
)

type constForecaster struct {
	v   float64
	err error
}

func (c constForecaster) Forecast(forecast.Features) (float64, error) { return c.v, c.err }

func newScorer(t *testing.T, f forecast.Forecaster) *scoring.Scorer {
	t.Helper()
	s, err := scoring.NewScorer(scoring.NewExtractor(nil), f, scoring.DefaultThresholds())
	require.NoError(t, err)
	return s
}

func TestScore_NegativeReviewOnFiveStars(t *testing.T) {
	s := newScorer(t, constForecaster{v: 4.04})

	res, err := s.Score("Terrible, broke in two days", 5)
	require.NoError(t, err)

	sent := compound(-3.9)
	corrected := 0.6*5 + 0.4*((sent+1)*2.5)
	assert.InDelta(t, sent, res.Sentiment, 1e-9)
	assert.Equal(t, domain.SentimentNegative, res.Label)
	assert.Equal(t, "negative", res.Explanation)
	assert.Equal(t, scoring.Round2(corrected), res.Corrected)
	assert.Equal(t, scoring.Round2(5-corrected), res.OverratedIndex)
	// displayed index agrees with the displayed corrected rating
	assert.InDelta(t, 5-res.Corrected, res.OverratedIndex, 1e-9)
	assert.Equal(t, domain.RiskHigh, res.Risk)
	assert.Equal(t, scoring.Round2(0.7*corrected+0.3*4.04), res.Final)
	assert.True(t, res.Overrated)
}

func TestScore_PositiveReviewOnFiveStars(t *testing.T) {
	s := newScorer(t, constForecaster{v: 4.04})

	res, err := s.Score("Excellent, love it", 5)
	require.NoError(t, err)

	assert.Equal(t, domain.SentimentPositive, res.Label)
	assert.Equal(t, domain.RiskLow, res.Risk)
	assert.False(t, s.Thresholds().Overrated(res.OverratedIndex))
	assert.Less(t, res.OverratedIndex, 0.4)
	// single-review definition still flags it: the blend pulls 5.0 down
	assert.Equal(t, 4.6, res.Final)
	assert.True(t, res.Overrated)
}

func TestScore_EmptyTextIsNeutral(t *testing.T) {
	s := newScorer(t, constForecaster{v: 4.04})

	res, err := s.Score("", 3)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Sentiment)
	assert.Equal(t, 2.8, res.Corrected)
	assert.InDelta(t, 0.2, res.OverratedIndex, 1e-9)
	assert.Equal(t, domain.RiskLow, res.Risk)
	assert.Equal(t, 3.17, res.Final)
	assert.False(t, res.Overrated)
}

func TestScore_EqualFinalIsNotOverrated(t *testing.T) {
	// the forecast drags the blend below 1, clamping lands exactly on the rating
	s := newScorer(t, constForecaster{v: -10})

	res, err := s.Score("", 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Final)
	assert.False(t, res.Overrated)
}

func TestScore_FinalAlwaysInRange(t *testing.T) {
	texts := []string{"", "terrible awful worst", "love love excellent", "ok"}
	for _, fc := range []float64{-100, 0, 2.5, 5, 100} {
		s := newScorer(t, constForecaster{v: fc})
		for r := 1.0; r <= 5.0; r += 0.5 {
			for _, text := range texts {
				res, err := s.Score(text, r)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, res.Final, 1.0)
				assert.LessOrEqual(t, res.Final, 5.0)
				assert.Equal(t, res.Final < r, res.Overrated)
			}
		}
	}
}

func TestScore_SentimentProxyVariant(t *testing.T) {
	s := newScorer(t, forecast.SentimentProxy{})

	res, err := s.Score("", 3)
	require.NoError(t, err)
	// 0.7*2.8 + 0.3*2.5
	assert.Equal(t, 2.71, res.Final)
	assert.Equal(t, 2.5, res.Forecast)
}

func TestScore_Errors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		f       forecast.Forecaster
		text    string
		rating  float64
		wantErr error
	}{
		{name: "rating below range", f: constForecaster{v: 3}, text: "ok", rating: 0, wantErr: domain.ErrInvalidInput},
		{name: "rating above range", f: constForecaster{v: 3}, text: "ok", rating: 6, wantErr: domain.ErrInvalidInput},
		{name: "rating NaN", f: constForecaster{v: 3}, text: "ok", rating: math.NaN(), wantErr: domain.ErrInvalidInput},
		{name: "bad utf8", f: constForecaster{v: 3}, text: string([]byte{0xc3, 0x28}), rating: 3, wantErr: domain.ErrInvalidInput},
		{name: "forecaster failure", f: constForecaster{err: boom}, text: "ok", rating: 3, wantErr: boom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newScorer(t, tt.f)
			res, err := s.Score(tt.text, tt.rating)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, scoring.Result{}, res)
		})
	}
}

func TestScore_NonFiniteForecast(t *testing.T) {
	s := newScorer(t, constForecaster{v: math.Inf(1)})
	_, err := s.Score("ok", 3)
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestNewScorer_Validation(t *testing.T) {
	_, err := scoring.NewScorer(scoring.NewExtractor(nil), nil, scoring.DefaultThresholds())
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)

	_, err = scoring.NewScorer(nil, forecast.SentimentProxy{}, scoring.DefaultThresholds())
	assert.Error(t, err)

	_, err = scoring.NewScorer(scoring.NewExtractor(nil), forecast.SentimentProxy{}, scoring.Thresholds{Medium: 1, High: 0.5})
	assert.Error(t, err)
}

func TestScoreRecord_FillsDerivedFields(t *testing.T) {
	s := newScorer(t, forecast.SentimentProxy{})

	r := domain.Review{SourceID: "r1", ProductID: "p1", Text: "Terrible, broke in two days", OriginalRating: 5}
	require.NoError(t, s.ScoreRecord(&r))

	assert.InDelta(t, compound(-3.9), r.SentimentScore, 1e-9)
	assert.Equal(t, domain.SentimentNegative, r.SentimentLabel)
	assert.Equal(t, r.OriginalRating-r.CorrectedRating, r.OverratedIndex)
	assert.Equal(t, domain.RiskHigh, r.RiskLevel)

	bad := domain.Review{Text: "fine", OriginalRating: 0}
	assert.ErrorIs(t, s.ScoreRecord(&bad), domain.ErrInvalidInput)
}

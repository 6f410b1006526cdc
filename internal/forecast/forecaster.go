// Package forecast holds the one-period-ahead rating forecasters and the
// weighted blend that combines them. All models are immutable after decode
// and safe for concurrent use.
package forecast

import "math"

// Features is what a forecaster may condition on for a single scoring call.
type Features struct {
	Rating    float64
	Sentiment float64
	Corrected float64
}

// Forecaster produces a point forecast on the 1-5 rating scale.
type Forecaster interface {
	Forecast(f Features) (float64, error)
}

// Weights are the fixed blend coefficients, fitted offline.
// They are expected to sum to 1; Balanced reports whether they do.
type Weights struct {
	Trend    float64 `json:"trend" yaml:"trend"`
	Seasonal float64 `json:"seasonal" yaml:"seasonal"`
	ML       float64 `json:"ml" yaml:"ml"`
}

func (w Weights) Sum() float64 { return w.Trend + w.Seasonal + w.ML }

func (w Weights) Balanced() bool { return math.Abs(w.Sum()-1) <= 1e-6 }

// EnsembleForecast is the weighted linear combination of the three model outputs.
// A zero weight drops that model.
func EnsembleForecast(trend, seasonal, ml float64, w Weights) float64 {
	return w.Trend*trend + w.Seasonal*seasonal + w.ML*ml
}

// Ensemble blends a trend model, a seasonal autoregressive model and a boosted
// regressor that is fed the two statistical forecasts as [trend, seasonal, trend].
type Ensemble struct {
	Trend     *TrendModel
	Seasonal  *SeasonalModel
	Regressor *TreeEnsemble
	Weights   Weights
}

func (e *Ensemble) Forecast(_ Features) (float64, error) {
	t, err := e.Trend.Predict(1)
	if err != nil {
		return 0, err
	}
	s, err := e.Seasonal.Predict(1)
	if err != nil {
		return 0, err
	}
	m, err := e.Regressor.Predict([]float64{t, s, t})
	if err != nil {
		return 0, err
	}
	return EnsembleForecast(t, s, m, e.Weights), nil
}

// RegressorForecaster feeds [rating, sentiment, corrected] to a tree model.
type RegressorForecaster struct {
	Model interface {
		Predict(x []float64) (float64, error)
	}
}

func (r RegressorForecaster) Forecast(f Features) (float64, error) {
	return r.Model.Predict([]float64{f.Rating, f.Sentiment, f.Corrected})
}

// SentimentProxy substitutes the rescaled sentiment for a model forecast.
type SentimentProxy struct{}

func (SentimentProxy) Forecast(f Features) (float64, error) {
	return (f.Sentiment + 1) * 2.5, nil
}

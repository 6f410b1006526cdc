package forecast

import (
	"errors"
	"fmt"
)

var ErrInvalidModel = errors.New("forecast: invalid model")

// TrendModel is an additive linear trend with optional monthly seasonality,
// fitted over Periods consecutive months starting at StartMonth (t = 0).
type TrendModel struct {
	Intercept  float64   `json:"intercept" yaml:"intercept"`
	Slope      float64   `json:"slope" yaml:"slope"`
	Periods    int       `json:"periods" yaml:"periods"`
	StartMonth int       `json:"start_month" yaml:"start_month"` // 1..12
	Seasonal   []float64 `json:"seasonal,omitempty" yaml:"seasonal,omitempty"`
}

func (m *TrendModel) Validate() error {
	if m.Periods <= 0 {
		return fmt.Errorf("%w: trend periods must be positive", ErrInvalidModel)
	}
	if m.StartMonth < 1 || m.StartMonth > 12 {
		return fmt.Errorf("%w: trend start_month %d out of 1..12", ErrInvalidModel, m.StartMonth)
	}
	if n := len(m.Seasonal); n != 0 && n != 12 {
		return fmt.Errorf("%w: trend seasonal needs 12 offsets, got %d", ErrInvalidModel, n)
	}
	return nil
}

// Predict returns the value steps months past the last fitted period.
func (m *TrendModel) Predict(steps int) (float64, error) {
	if steps < 1 {
		return 0, fmt.Errorf("%w: steps must be >= 1", ErrInvalidModel)
	}
	t := m.Periods - 1 + steps
	y := m.Intercept + m.Slope*float64(t)
	if len(m.Seasonal) == 12 {
		y += m.Seasonal[(m.StartMonth-1+t)%12]
	}
	return y, nil
}

// SeasonalModel is an autoregressive model with one seasonal lag:
// y[n] = Const + sum(AR[i]*y[n-1-i]) + SeasonalAR*y[n-Period].
type SeasonalModel struct {
	Const      float64   `json:"const" yaml:"const"`
	AR         []float64 `json:"ar" yaml:"ar"`
	SeasonalAR float64   `json:"seasonal_ar" yaml:"seasonal_ar"`
	Period     int       `json:"period" yaml:"period"`
	History    []float64 `json:"history" yaml:"history"`
}

func (m *SeasonalModel) Validate() error {
	need := len(m.AR)
	if m.SeasonalAR != 0 {
		if m.Period <= 0 {
			return fmt.Errorf("%w: seasonal period must be positive", ErrInvalidModel)
		}
		if m.Period > need {
			need = m.Period
		}
	}
	if len(m.History) < need {
		return fmt.Errorf("%w: seasonal history has %d points, needs %d", ErrInvalidModel, len(m.History), need)
	}
	return nil
}

// Predict runs the recursion forward; predictions feed later steps.
func (m *SeasonalModel) Predict(steps int) (float64, error) {
	if steps < 1 {
		return 0, fmt.Errorf("%w: steps must be >= 1", ErrInvalidModel)
	}
	if err := m.Validate(); err != nil {
		return 0, err
	}
	// work on a copy; the model itself is shared and read-only
	h := make([]float64, len(m.History), len(m.History)+steps)
	copy(h, m.History)
	var y float64
	for s := 0; s < steps; s++ {
		n := len(h)
		y = m.Const
		for i, c := range m.AR {
			y += c * h[n-1-i]
		}
		if m.SeasonalAR != 0 {
			y += m.SeasonalAR * h[n-m.Period]
		}
		h = append(h, y)
	}
	return y, nil
}

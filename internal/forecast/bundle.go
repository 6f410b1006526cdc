package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

type Variant string

const (
	// VariantEnsemble blends trend, seasonal and boosted-tree forecasts.
	VariantEnsemble Variant = "ensemble"
	// VariantGBM uses a single (optionally bagged) boosted-tree regressor.
	VariantGBM Variant = "gbm"
	// VariantSentiment substitutes the rescaled sentiment for a forecast.
	VariantSentiment Variant = "sentiment"
)

// ModelMetric is an offline evaluation row shown next to the forecasts.
type ModelMetric struct {
	Model string  `json:"model" yaml:"model"`
	MAE   float64 `json:"mae" yaml:"mae"`
	RMSE  float64 `json:"rmse" yaml:"rmse"`
}

// Bundle is the set of fitted artifacts for one deployment. It is decoded once
// at startup and never mutated afterwards.
type Bundle struct {
	Name      string         `json:"name" yaml:"name"`
	Variant   Variant        `json:"variant" yaml:"variant"`
	Trend     *TrendModel    `json:"trend,omitempty" yaml:"trend,omitempty"`
	Seasonal  *SeasonalModel `json:"seasonal,omitempty" yaml:"seasonal,omitempty"`
	Regressor *TreeEnsemble  `json:"regressor,omitempty" yaml:"regressor,omitempty"`
	Bagged    *Bagged        `json:"bagged,omitempty" yaml:"bagged,omitempty"`
	Weights   Weights        `json:"weights" yaml:"weights"`
	Metrics   []ModelMetric  `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// BundleSource loads a Bundle once at process start.
type BundleSource interface {
	Load(ctx context.Context) (*Bundle, error)
}

// DecodeBundle parses JSON when name ends in .json and YAML otherwise, then validates.
func DecodeBundle(name string, b []byte) (*Bundle, error) {
	var out Bundle
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		if err := json.Unmarshal(b, &out); err != nil {
			return nil, fmt.Errorf("decode bundle %s: %w", name, err)
		}
	default:
		if err := yaml.Unmarshal(b, &out); err != nil {
			return nil, fmt.Errorf("decode bundle %s: %w", name, err)
		}
	}
	if out.Variant == "" {
		out.Variant = VariantEnsemble
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("bundle %s: %w", name, err)
	}
	return &out, nil
}

func (b *Bundle) Validate() error {
	switch b.Variant {
	case VariantEnsemble:
		if b.Trend == nil || b.Seasonal == nil || b.Regressor == nil {
			return fmt.Errorf("%w: ensemble needs trend, seasonal and regressor", ErrInvalidModel)
		}
		if err := b.Trend.Validate(); err != nil {
			return err
		}
		if err := b.Seasonal.Validate(); err != nil {
			return err
		}
		if err := b.Regressor.Validate(); err != nil {
			return err
		}
		if b.Regressor.NumFeatures != 3 {
			return fmt.Errorf("%w: ensemble regressor takes 3 features, has %d", ErrInvalidModel, b.Regressor.NumFeatures)
		}
		if b.Weights.Trend < 0 || b.Weights.Seasonal < 0 || b.Weights.ML < 0 {
			return fmt.Errorf("%w: negative ensemble weight", ErrInvalidModel)
		}
	case VariantGBM:
		switch {
		case b.Bagged != nil:
			if err := b.Bagged.Validate(); err != nil {
				return err
			}
			for _, m := range b.Bagged.Members {
				if m.NumFeatures != 3 {
					return fmt.Errorf("%w: gbm members take 3 features, has %d", ErrInvalidModel, m.NumFeatures)
				}
			}
		case b.Regressor != nil:
			if err := b.Regressor.Validate(); err != nil {
				return err
			}
			if b.Regressor.NumFeatures != 3 {
				return fmt.Errorf("%w: gbm regressor takes 3 features, has %d", ErrInvalidModel, b.Regressor.NumFeatures)
			}
		default:
			return fmt.Errorf("%w: gbm needs a regressor or bagged members", ErrInvalidModel)
		}
	case VariantSentiment:
	default:
		return fmt.Errorf("%w: unknown variant %q", ErrInvalidModel, b.Variant)
	}
	return nil
}

// Forecaster returns the implementation selected by the bundle's variant.
func (b *Bundle) Forecaster() (Forecaster, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	switch b.Variant {
	case VariantEnsemble:
		return &Ensemble{Trend: b.Trend, Seasonal: b.Seasonal, Regressor: b.Regressor, Weights: b.Weights}, nil
	case VariantGBM:
		if b.Bagged != nil {
			return RegressorForecaster{Model: b.Bagged}, nil
		}
		return RegressorForecaster{Model: b.Regressor}, nil
	default:
		return SentimentProxy{}, nil
	}
}

// WithVariant returns a shallow copy using v instead of the decoded variant.
func (b *Bundle) WithVariant(v Variant) *Bundle {
	c := *b
	c.Variant = v
	return &c
}

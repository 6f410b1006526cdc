package scoring

import (
	"fmt"
	"math"

	"overrated_products/internal/domain"
)

// Thresholds partition the overrated index into risk tiers:
// (-inf, Medium] Low, (Medium, High] Medium, (High, +inf) High.
type Thresholds struct {
	Medium float64
	High   float64
}

func DefaultThresholds() Thresholds { return Thresholds{Medium: 0.3, High: 0.8} }

func (t Thresholds) Validate() error {
	if math.IsNaN(t.Medium) || math.IsNaN(t.High) || t.Medium >= t.High {
		return fmt.Errorf("risk thresholds: medium (%v) must be below high (%v)", t.Medium, t.High)
	}
	return nil
}

func (t Thresholds) Classify(index float64) domain.RiskLevel {
	switch {
	case index > t.High:
		return domain.RiskHigh
	case index > t.Medium:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

// Overrated is the aggregate-reporting definition: the index exceeds High.
func (t Thresholds) Overrated(index float64) bool { return index > t.High }

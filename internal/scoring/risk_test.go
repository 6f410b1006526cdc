package scoring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"overrated_products/internal/domain"
	"overrated_products/internal/scoring"
)

func TestThresholds_Classify(t *testing.T) {
	th := scoring.DefaultThresholds()

	tests := []struct {
		index float64
		want  domain.RiskLevel
	}{
		{-4, domain.RiskLow},
		{0, domain.RiskLow},
		{0.2, domain.RiskLow},
		{0.3, domain.RiskLow},
		{0.31, domain.RiskMedium},
		{0.8, domain.RiskMedium},
		{0.81, domain.RiskHigh},
		{1.6, domain.RiskHigh},
		{4, domain.RiskHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, th.Classify(tt.index), "index %v", tt.index)
	}
}

func TestThresholds_Monotonic(t *testing.T) {
	rank := map[domain.RiskLevel]int{domain.RiskLow: 0, domain.RiskMedium: 1, domain.RiskHigh: 2}
	th := scoring.Thresholds{Medium: 0.5, High: 1.2}
	prev := -1
	for i := 0; i <= 800; i++ {
		idx := -4 + float64(i)*0.01
		r := rank[th.Classify(idx)]
		assert.GreaterOrEqual(t, r, prev, "index %v", idx)
		prev = r
	}
	assert.Equal(t, 2, prev)
}

func TestThresholds_Overrated(t *testing.T) {
	th := scoring.DefaultThresholds()
	assert.False(t, th.Overrated(0.8))
	assert.True(t, th.Overrated(0.8001))
	assert.False(t, th.Overrated(-1))
}

func TestThresholds_Validate(t *testing.T) {
	assert.NoError(t, scoring.DefaultThresholds().Validate())
	assert.Error(t, scoring.Thresholds{Medium: 0.8, High: 0.8}.Validate())
	assert.Error(t, scoring.Thresholds{Medium: 1, High: 0.5}.Validate())
}

package wpscan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wpsleuth/wpsleuth/pkg/types"
)

func TestRiskScoreWeights(t *testing.T) {
	cases := []struct {
		name      string
		breakdown types.SeverityBreakdown
		want      int
	}{
		{"no findings", types.SeverityBreakdown{}, 0},
		{"one low", types.SeverityBreakdown{Low: 1}, 5},
		{"one medium", types.SeverityBreakdown{Medium: 1}, 10},
		{"one high", types.SeverityBreakdown{High: 1}, 20},
		{"one critical", types.SeverityBreakdown{Critical: 1}, 40},
		{"critical plus high", types.SeverityBreakdown{Critical: 1, High: 1}, 60},
		{"mixed sum", types.SeverityBreakdown{Critical: 1, High: 1, Medium: 2, Low: 3}, 95},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RiskScore(tc.breakdown))
		})
	}
}

func TestRiskScoreSaturation(t *testing.T) {
	t.Run("exactly 100 at the boundary", func(t *testing.T) {
		assert.Equal(t, 100, RiskScore(types.SeverityBreakdown{High: 5}))
	})

	t.Run("clamps, never wraps", func(t *testing.T) {
		assert.Equal(t, 100, RiskScore(types.SeverityBreakdown{Critical: 3}))
		assert.Equal(t, 100, RiskScore(types.SeverityBreakdown{Critical: 1000, High: 1000, Medium: 1000, Low: 1000}))
	})

	t.Run("weights are additive across component kinds", func(t *testing.T) {
		// One critical on core and one high on a plugin produce the same
		// score as both on one component: the sum has no per-component cap.
		combined := types.SeverityBreakdown{Critical: 1, High: 1}
		assert.Equal(t, 60, RiskScore(combined))
	})
}

package wpscan

import "github.com/wpsleuth/wpsleuth/pkg/types"

// maxRiskScore caps the aggregate score. The sum saturates: once a site
// accumulates 100 points of weighted findings, further findings do not
// distinguish it.
const maxRiskScore = 100

// severityWeights is the fixed contribution of one finding at each tier.
// Weights are additive across the core and every plugin and theme combined;
// there is no per-component cap.
var severityWeights = map[types.Severity]int{
	types.SeverityCritical: 40,
	types.SeverityHigh:     20,
	types.SeverityMedium:   10,
	types.SeverityLow:      5,
}

// RiskScore reduces a severity breakdown to the 0-100 prioritization score.
func RiskScore(breakdown types.SeverityBreakdown) int {
	score := breakdown.Critical*severityWeights[types.SeverityCritical] +
		breakdown.High*severityWeights[types.SeverityHigh] +
		breakdown.Medium*severityWeights[types.SeverityMedium] +
		breakdown.Low*severityWeights[types.SeverityLow]
	if score > maxRiskScore {
		return maxRiskScore
	}
	return score
}

package wpscan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wpsleuth/wpsleuth/pkg/types"
)

func TestStatusForPrecedence(t *testing.T) {
	finding := []types.VulnerabilityFinding{{Severity: types.SeverityLow, Title: "x"}}

	t.Run("any finding wins regardless of severity or outdatedness", func(t *testing.T) {
		current := types.ComponentRecord{Version: "6.0", IsOutdated: false}
		outdated := types.ComponentRecord{Version: "6.0", IsOutdated: true}

		assert.Equal(t, types.StatusVulnerable, StatusFor(current, finding))
		assert.Equal(t, types.StatusVulnerable, StatusFor(outdated, finding))
	})

	t.Run("outdated wins over secure", func(t *testing.T) {
		rec := types.ComponentRecord{Version: "5.0", IsOutdated: true}
		assert.Equal(t, types.StatusOutdated, StatusFor(rec, nil))
	})

	t.Run("no findings and current is secure", func(t *testing.T) {
		rec := types.ComponentRecord{Version: "6.6.2"}
		assert.Equal(t, types.StatusSecure, StatusFor(rec, nil))
	})
}

func TestIsOlderVersion(t *testing.T) {
	cases := []struct {
		detected string
		latest   string
		want     bool
	}{
		{"6.0", "6.6.2", true},
		{"6.6.2", "6.6.2", false},
		{"6.7", "6.6.2", false},
		{"5.9.10", "5.10", true},
		{types.VersionUnknown, "6.6.2", false},
		{"", "6.6.2", false},
		{"6.0", "", false},
		{"not-a-version", "6.6.2", false},
		{"6.0", "also-bad", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, isOlderVersion(tc.detected, tc.latest),
			"detected=%q latest=%q", tc.detected, tc.latest)
	}
}

package wpscan

import (
	goversion "github.com/hashicorp/go-version"

	"github.com/wpsleuth/wpsleuth/pkg/types"
)

// StatusFor classifies one component. A matching finding always wins over
// outdatedness, and outdatedness over secure, regardless of finding severity.
func StatusFor(rec types.ComponentRecord, findings []types.VulnerabilityFinding) types.ComponentStatus {
	if len(findings) > 0 {
		return types.StatusVulnerable
	}
	if rec.IsOutdated {
		return types.StatusOutdated
	}
	return types.StatusSecure
}

// isOlderVersion reports whether detected is strictly older than latest under
// semantic-version ordering. Unknown or unparseable versions are never
// considered outdated; we cannot claim currency either way without a reading.
func isOlderVersion(detected, latest string) bool {
	if detected == "" || detected == types.VersionUnknown || latest == "" {
		return false
	}
	dv, err := goversion.NewVersion(detected)
	if err != nil {
		return false
	}
	lv, err := goversion.NewVersion(latest)
	if err != nil {
		return false
	}
	return dv.LessThan(lv)
}

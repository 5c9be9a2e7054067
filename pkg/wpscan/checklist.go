package wpscan

import (
	"fmt"

	"github.com/wpsleuth/wpsleuth/pkg/types"
)

// lowConfidenceThreshold marks scans whose fingerprint evidence was too thin
// to fully trust the component inventory.
const lowConfidenceThreshold = 60

// checklistInput is everything the checklist rules may inspect. Rules are
// side-effect-free over this snapshot; skipping one never changes another.
type checklistInput struct {
	HTTPSEnabled    bool
	Core            types.ComponentRecord
	OutdatedPlugins int
	OutdatedThemes  int
	Breakdown       types.SeverityBreakdown
	Total           int
	PHPVersion      string
	Confidence      int
}

// checklistRule emits zero or one line for the security summary. Order in the
// rules slice is the order consumers see; UIs build on it, so it is part of
// the contract.
type checklistRule func(in checklistInput) (string, bool)

var checklistRules = []checklistRule{
	func(in checklistInput) (string, bool) {
		if in.HTTPSEnabled {
			return "✓ HTTPS is enabled", true
		}
		return "✗ HTTPS is not enabled", true
	},
	func(in checklistInput) (string, bool) {
		switch {
		case in.Core.Version == types.VersionUnknown:
			return "? WordPress core version could not be determined", true
		case in.Core.IsOutdated:
			return fmt.Sprintf("✗ WordPress core %s is outdated (latest: %s)", in.Core.Version, in.Core.LatestVersion), true
		default:
			return fmt.Sprintf("✓ WordPress core %s is up to date", in.Core.Version), true
		}
	},
	func(in checklistInput) (string, bool) {
		if in.OutdatedPlugins > 0 {
			return fmt.Sprintf("✗ %d %s outdated", in.OutdatedPlugins, pluralize(in.OutdatedPlugins, "plugin is", "plugins are")), true
		}
		return "✓ All detected plugins are up to date", true
	},
	func(in checklistInput) (string, bool) {
		if in.OutdatedThemes > 0 {
			return fmt.Sprintf("✗ %d %s outdated", in.OutdatedThemes, pluralize(in.OutdatedThemes, "theme is", "themes are")), true
		}
		return "", false
	},
	func(in checklistInput) (string, bool) {
		if in.Breakdown.Critical > 0 {
			return fmt.Sprintf("✗ %d critical %s found", in.Breakdown.Critical, pluralize(in.Breakdown.Critical, "vulnerability", "vulnerabilities")), true
		}
		return "", false
	},
	func(in checklistInput) (string, bool) {
		if in.Breakdown.High > 0 {
			return fmt.Sprintf("✗ %d high-severity %s found", in.Breakdown.High, pluralize(in.Breakdown.High, "vulnerability", "vulnerabilities")), true
		}
		if in.Total == 0 {
			return "✓ No known vulnerabilities detected", true
		}
		return "", false
	},
	func(in checklistInput) (string, bool) {
		if in.PHPVersion != "" {
			return fmt.Sprintf("! Server exposes PHP version %s via headers", in.PHPVersion), true
		}
		return "", false
	},
	func(in checklistInput) (string, bool) {
		if in.Confidence < lowConfidenceThreshold {
			return fmt.Sprintf("! Low detection confidence (%d%%): results may be incomplete", in.Confidence), true
		}
		return "", false
	},
}

// BuildChecklist evaluates every rule in order and collects the emitted lines.
func BuildChecklist(in checklistInput) []string {
	lines := make([]string, 0, len(checklistRules))
	for _, rule := range checklistRules {
		if line, ok := rule(in); ok {
			lines = append(lines, line)
		}
	}
	return lines
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}

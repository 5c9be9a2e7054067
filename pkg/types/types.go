package types

import (
	"time"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Severities lists all severity tiers in descending order of impact.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

type ComponentType string

const (
	ComponentCore   ComponentType = "core"
	ComponentPlugin ComponentType = "plugin"
	ComponentTheme  ComponentType = "theme"
)

// ComponentStatus is the three-state classification of a detected component.
// Precedence is fixed: vulnerable overrides outdated, outdated overrides secure.
type ComponentStatus string

const (
	StatusVulnerable ComponentStatus = "vulnerable"
	StatusOutdated   ComponentStatus = "outdated"
	StatusSecure     ComponentStatus = "secure"
)

// VersionUnknown is the sentinel used when a component was detected but its
// version could not be read from any evidence source.
const VersionUnknown = "unknown"

// DetectionResult is the outcome of fingerprinting a single origin.
type DetectionResult struct {
	IsWordPress        bool     `json:"is_wordpress"`
	Confidence         int      `json:"confidence"`
	DetectedIndicators []string `json:"detected_indicators"`
	FailedChecks       []string `json:"failed_checks"`
}

// ComponentRecord is one detected software unit: the core, a plugin, or a theme.
// Immutable once the extractor produced it.
type ComponentRecord struct {
	Slug          string `json:"slug"`
	Name          string `json:"name"`
	Version       string `json:"version"`
	LatestVersion string `json:"latest_version,omitempty"`
	IsOutdated    bool   `json:"is_outdated"`
	DetectedFrom  string `json:"detected_from"`
}

// VulnerabilityFinding is one advisory match against a ComponentRecord.
type VulnerabilityFinding struct {
	Severity        Severity      `json:"severity"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	AffectedVersion string        `json:"affected_version"`
	FixedIn         string        `json:"fixed_in,omitempty"`
	CVEID           string        `json:"cve_id,omitempty"`
	CVSSScore       float64       `json:"cvss_score,omitempty"`
	ComponentSlug   string        `json:"component_slug"`
	ComponentType   ComponentType `json:"component_type"`
}

// ComponentReport pairs a component with its vulnerability count and status.
type ComponentReport struct {
	ComponentRecord
	Status          ComponentStatus        `json:"status"`
	Vulnerabilities int                    `json:"vulnerabilities"`
	Findings        []VulnerabilityFinding `json:"findings,omitempty"`
}

// SeverityBreakdown is the histogram of finding counts by severity tier.
type SeverityBreakdown struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

func (b SeverityBreakdown) Total() int {
	return b.Critical + b.High + b.Medium + b.Low
}

// Add increments the tier counter for the given severity.
func (b *SeverityBreakdown) Add(s Severity) {
	switch s {
	case SeverityCritical:
		b.Critical++
	case SeverityHigh:
		b.High++
	case SeverityMedium:
		b.Medium++
	case SeverityLow:
		b.Low++
	}
}

// ScanResult is the aggregate returned to callers and optionally persisted.
// Invariant: TotalVulnerabilities == SeverityBreakdown.Total() ==
// Core.Vulnerabilities + sum over Plugins + sum over Themes.
type ScanResult struct {
	ID                   string            `json:"id"`
	URL                  string            `json:"url"`
	ScannedAt            time.Time         `json:"scanned_at"`
	ScanDurationMs       int64             `json:"scan_duration_ms"`
	Core                 ComponentReport   `json:"core"`
	Plugins              []ComponentReport `json:"plugins"`
	Themes               []ComponentReport `json:"themes"`
	Security             []string          `json:"security"`
	RiskScore            int               `json:"risk_score"`
	TotalVulnerabilities int               `json:"total_vulnerabilities"`
	SeverityBreakdown    SeverityBreakdown `json:"severity_breakdown"`
	Detection            DetectionResult   `json:"detection"`
	DetectionConfidence  int               `json:"detection_confidence"`
	IsWordPress          bool              `json:"is_wordpress"`
	HTTPSEnabled         bool              `json:"https_enabled"`
	PHPVersion           string            `json:"php_version,omitempty"`
}

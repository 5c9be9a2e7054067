package wpscan

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wpsleuth/wpsleuth/internal/config"
	"github.com/wpsleuth/wpsleuth/internal/logger"
	"github.com/wpsleuth/wpsleuth/pkg/advisory"
	"github.com/wpsleuth/wpsleuth/pkg/types"
)

// ValidationError rejects a target before any network call is made. It is the
// only error a caller is expected to branch on; everything else is internal.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid scan target: %s", e.Reason)
}

// Scanner runs the full probe/detect/extract/resolve/score pipeline against
// one origin at a time. It holds no per-scan state and is safe for concurrent
// use.
type Scanner struct {
	prober   *Prober
	resolver *Resolver
	store    advisory.Store
	timeout  time.Duration
	log      *logger.Logger
}

// NewScanner wires the pipeline from configuration. The advisory store is
// read-only for the scanner's lifetime.
func NewScanner(cfg config.ScannerConfig, advCfg config.AdvisoriesConfig, store advisory.Store, log *logger.Logger) *Scanner {
	return &Scanner{
		prober: NewProber(ProberConfig{
			ProbeTimeout:    cfg.ProbeTimeout,
			UserAgent:       cfg.UserAgent,
			BlockPrivateIPs: cfg.BlockPrivateIPs,
			HostDelay:       cfg.HostDelay,
		}, log),
		resolver: NewResolver(store, advCfg.MatchUnknownVersions),
		store:    store,
		timeout:  cfg.Timeout,
		log:      log.WithComponent("scanner"),
	}
}

// Scan probes the target and assembles a ScanResult. A non-WordPress or
// unreachable target is a valid result, not an error; only a malformed URL or
// a cancelled context produces one.
func (s *Scanner) Scan(ctx context.Context, rawURL string) (*types.ScanResult, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, &ValidationError{Reason: "url is required"}
	}
	target, err := NormalizeTarget(rawURL)
	if err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ctx, span := s.log.StartSpan(ctx, "wpscan.Scan")
	defer span.End()

	log := s.log.WithTarget(target)
	start := time.Now()

	result := &types.ScanResult{
		ID:        uuid.New().String(),
		URL:       target,
		ScannedAt: start.UTC(),
		Security:  []string{},
		Plugins:   []types.ComponentReport{},
		Themes:    []types.ComponentReport{},
	}

	evidence := s.prober.Probe(ctx, target)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan aborted: %w", err)
	}

	detection := s.detect(evidence, log)
	result.IsWordPress = detection.IsWordPress
	result.DetectionConfidence = detection.Confidence
	result.Detection = detection
	// HTTPS counts only when the https origin actually answered; a TLS
	// scheme on an unreachable target proves nothing.
	result.HTTPSEnabled = evidence != nil && evidence.HTTPS && evidence.Home.Settled

	extraction := Extraction{
		Core: types.ComponentRecord{
			Slug:         advisory.CoreSlug,
			Name:         "WordPress",
			Version:      types.VersionUnknown,
			DetectedFrom: "not detected",
		},
	}
	var resolution Resolution
	if detection.IsWordPress {
		extraction = Extract(evidence, s.store)
		resolution = s.resolver.Resolve(extraction.Core, extraction.Plugins, extraction.Themes)
	}

	result.Core = report(extraction.Core, resolution.Core)
	for _, p := range extraction.Plugins {
		result.Plugins = append(result.Plugins, report(p, resolution.Plugins[p.Slug]))
	}
	for _, t := range extraction.Themes {
		result.Themes = append(result.Themes, report(t, resolution.Themes[t.Slug]))
	}
	result.PHPVersion = extraction.PHPVersion
	result.TotalVulnerabilities = resolution.Total
	result.SeverityBreakdown = resolution.Breakdown
	result.RiskScore = RiskScore(resolution.Breakdown)

	result.Security = BuildChecklist(checklistInput{
		HTTPSEnabled:    result.HTTPSEnabled,
		Core:            extraction.Core,
		OutdatedPlugins: countOutdated(result.Plugins),
		OutdatedThemes:  countOutdated(result.Themes),
		Breakdown:       resolution.Breakdown,
		Total:           resolution.Total,
		PHPVersion:      extraction.PHPVersion,
		Confidence:      detection.Confidence,
	})

	result.ScanDurationMs = time.Since(start).Milliseconds()
	log.Infow("Scan complete",
		"wordpress", result.IsWordPress,
		"confidence", result.DetectionConfidence,
		"risk_score", result.RiskScore,
		"vulnerabilities", result.TotalVulnerabilities,
		"duration_ms", result.ScanDurationMs,
	)
	return result, nil
}

// detect wraps the fingerprint stage in a single catch-all so an unexpected
// panic degrades to a "not WordPress" verdict instead of killing the scan.
func (s *Scanner) detect(ev *Evidence, log *logger.Logger) (result types.DetectionResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorw("Detection failed", "panic", r)
			result = types.DetectionResult{
				IsWordPress:        false,
				Confidence:         0,
				DetectedIndicators: []string{},
				FailedChecks:       []string{"Connection failed"},
			}
		}
	}()
	return Detect(ev)
}

func report(rec types.ComponentRecord, findings []types.VulnerabilityFinding) types.ComponentReport {
	return types.ComponentReport{
		ComponentRecord: rec,
		Status:          StatusFor(rec, findings),
		Vulnerabilities: len(findings),
		Findings:        findings,
	}
}

func countOutdated(reports []types.ComponentReport) int {
	n := 0
	for _, r := range reports {
		if r.IsOutdated {
			n++
		}
	}
	return n
}

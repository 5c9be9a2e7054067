package wpscan

import (
	goversion "github.com/hashicorp/go-version"

	"github.com/wpsleuth/wpsleuth/pkg/advisory"
	"github.com/wpsleuth/wpsleuth/pkg/types"
)

// Resolver matches detected component versions against the advisory store.
type Resolver struct {
	store advisory.Store

	// matchUnknown controls whether a component whose version could not be
	// read matches range-constrained advisories. Off by default: claiming a
	// site vulnerable on no version evidence produces noise. Advisories with
	// no affected range match regardless of version, so slug-only advisories
	// still surface.
	matchUnknown bool
}

// NewResolver builds a Resolver over the given advisory store.
func NewResolver(store advisory.Store, matchUnknownVersions bool) *Resolver {
	return &Resolver{store: store, matchUnknown: matchUnknownVersions}
}

// Resolution groups findings the way the scan result reports them.
type Resolution struct {
	Core    []types.VulnerabilityFinding
	Plugins map[string][]types.VulnerabilityFinding
	Themes  map[string][]types.VulnerabilityFinding

	Total     int
	Breakdown types.SeverityBreakdown
}

// Resolve looks up advisories for the core and every plugin and theme. A slug
// with no advisories simply contributes zero findings.
func (r *Resolver) Resolve(core types.ComponentRecord, plugins, themes []types.ComponentRecord) Resolution {
	res := Resolution{
		Plugins: make(map[string][]types.VulnerabilityFinding),
		Themes:  make(map[string][]types.VulnerabilityFinding),
	}

	res.Core = r.findingsFor(core, types.ComponentCore)
	res.tally(res.Core)

	for _, p := range plugins {
		findings := r.findingsFor(p, types.ComponentPlugin)
		if len(findings) > 0 {
			res.Plugins[p.Slug] = findings
		}
		res.tally(findings)
	}
	for _, t := range themes {
		findings := r.findingsFor(t, types.ComponentTheme)
		if len(findings) > 0 {
			res.Themes[t.Slug] = findings
		}
		res.tally(findings)
	}
	return res
}

func (res *Resolution) tally(findings []types.VulnerabilityFinding) {
	for _, f := range findings {
		res.Total++
		res.Breakdown.Add(f.Severity)
	}
}

func (r *Resolver) findingsFor(rec types.ComponentRecord, ctype types.ComponentType) []types.VulnerabilityFinding {
	var findings []types.VulnerabilityFinding
	for _, adv := range r.store.AdvisoriesFor(rec.Slug) {
		if !r.versionMatches(rec.Version, adv.AffectedRange) {
			continue
		}
		findings = append(findings, types.VulnerabilityFinding{
			Severity:        adv.Severity,
			Title:           adv.Title,
			Description:     adv.Description,
			AffectedVersion: adv.AffectedRange,
			FixedIn:         adv.FixedIn,
			CVEID:           adv.CVEID,
			CVSSScore:       adv.CVSSScore,
			ComponentSlug:   rec.Slug,
			ComponentType:   ctype,
		})
	}
	return findings
}

// versionMatches evaluates one advisory's affected range against a detected
// version string. Malformed constraint expressions in the dataset are treated
// as non-matching rather than failing the scan.
func (r *Resolver) versionMatches(detected, affectedRange string) bool {
	if affectedRange == "" {
		return true
	}
	if detected == "" || detected == types.VersionUnknown {
		return r.matchUnknown
	}
	dv, err := goversion.NewVersion(detected)
	if err != nil {
		return r.matchUnknown
	}
	constraints, err := goversion.NewConstraint(affectedRange)
	if err != nil {
		return false
	}
	return constraints.Check(dv)
}

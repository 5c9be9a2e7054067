// Package advisory provides the known-vulnerability reference set consulted
// by the scan pipeline. The scanner is agnostic to where advisories come
// from: the compiled-in dataset and the YAML file loader both satisfy Store.
package advisory

import (
	"github.com/wpsleuth/wpsleuth/pkg/types"
)

// CoreSlug is the slug under which WordPress core advisories and the core
// latest-version entry are keyed.
const CoreSlug = "wordpress"

// Advisory is one known-vulnerability record tied to a component slug.
type Advisory struct {
	Slug        string              `yaml:"-" json:"slug"`
	Type        types.ComponentType `yaml:"type" json:"type"`
	Title       string              `yaml:"title" json:"title"`
	Description string              `yaml:"description" json:"description"`

	// AffectedRange is a version constraint, e.g. "< 5.3.2" or
	// ">= 5.0, < 6.0.2". Empty means the advisory applies to the slug
	// regardless of version.
	AffectedRange string `yaml:"affected_range" json:"affected_range"`

	FixedIn   string         `yaml:"fixed_in" json:"fixed_in,omitempty"`
	CVEID     string         `yaml:"cve_id" json:"cve_id,omitempty"`
	CVSSScore float64        `yaml:"cvss_score" json:"cvss_score,omitempty"`
	Severity  types.Severity `yaml:"severity" json:"severity"`
}

// Store is the lookup interface the vulnerability resolver depends on.
// A slug with no entries is not an error; it yields zero findings.
type Store interface {
	// AdvisoriesFor returns all advisories recorded for a slug.
	AdvisoriesFor(slug string) []Advisory

	// LatestVersion returns the newest known release for a slug, if any.
	LatestVersion(slug string) (string, bool)
}

// mapStore backs both the builtin dataset and loaded YAML datasets.
type mapStore struct {
	advisories map[string][]Advisory
	latest     map[string]string
}

func (m *mapStore) AdvisoriesFor(slug string) []Advisory {
	return m.advisories[slug]
}

func (m *mapStore) LatestVersion(slug string) (string, bool) {
	v, ok := m.latest[slug]
	return v, ok
}

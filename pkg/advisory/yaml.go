package advisory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileDataset is the on-disk YAML schema:
//
//	advisories:
//	  contact-form-7:
//	    - type: plugin
//	      title: ...
//	      severity: critical
//	      affected_range: "< 5.3.2"
//	      fixed_in: "5.3.2"
//	      cve_id: CVE-2020-35489
//	      cvss_score: 9.8
//	latest_versions:
//	  wordpress: "6.6.2"
//	  contact-form-7: "5.9.8"
type fileDataset struct {
	Advisories     map[string][]Advisory `yaml:"advisories"`
	LatestVersions map[string]string     `yaml:"latest_versions"`
}

// LoadFile reads a YAML advisory dataset from disk.
func LoadFile(path string) (Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read advisory dataset: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML advisory dataset.
func Parse(data []byte) (Store, error) {
	var ds fileDataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse advisory dataset: %w", err)
	}

	if ds.Advisories == nil {
		ds.Advisories = map[string][]Advisory{}
	}
	if ds.LatestVersions == nil {
		ds.LatestVersions = map[string]string{}
	}

	for slug, advs := range ds.Advisories {
		for i := range advs {
			advs[i].Slug = slug
			if !advs[i].Severity.Valid() {
				return nil, fmt.Errorf("advisory %q for %s: invalid severity %q", advs[i].Title, slug, advs[i].Severity)
			}
		}
	}

	return &mapStore{
		advisories: ds.Advisories,
		latest:     ds.LatestVersions,
	}, nil
}

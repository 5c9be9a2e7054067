package wpscan

import (
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wpsleuth/wpsleuth/pkg/types"
)

// IndicatorThreshold is the minimum number of positive indicators required
// before a target is classified as WordPress. A single hit (e.g. a site that
// merely serves /wp-login.php as a honeypot page) is not enough.
const IndicatorThreshold = 2

// indicatorCheck pairs a human-readable indicator name with the predicate
// that evaluates it against collected probe evidence.
type indicatorCheck struct {
	name  string
	check func(ev *Evidence) bool
}

// indicatorChecks is evaluated in order; the order is stable so that
// DetectedIndicators and FailedChecks come out deterministic for a given
// evidence set.
var indicatorChecks = []indicatorCheck{
	{
		name: ProbeWPAdmin,
		check: func(ev *Evidence) bool {
			return statusIn(ev.WPAdmin, 200, 301, 302, 403)
		},
	},
	{
		name: ProbeWPLogin,
		check: func(ev *Evidence) bool {
			return ev.WPLogin.StatusCode == 200
		},
	},
	{
		name: ProbeWPContent,
		check: func(ev *Evidence) bool {
			return statusIn(ev.WPContent, 200, 403)
		},
	},
	{
		name: ProbeWPIncludes,
		check: func(ev *Evidence) bool {
			return statusIn(ev.WPIncludes, 200, 403)
		},
	},
	{
		name: ProbeWPJSON,
		check: func(ev *Evidence) bool {
			if ev.WPJSON.StatusCode != 200 || ev.WPJSONBody == nil {
				return false
			}
			if _, ok := ev.WPJSONBody["namespaces"]; ok {
				return true
			}
			if _, ok := ev.WPJSONBody["routes"]; ok {
				return true
			}
			if desc, ok := ev.WPJSONBody["description"].(string); ok {
				return strings.Contains(strings.ToLower(desc), "wordpress")
			}
			return false
		},
	},
	{
		name: ProbeXMLRPC,
		check: func(ev *Evidence) bool {
			return statusIn(ev.XMLRPC, 200, 405)
		},
	},
	{
		name: ProbeHome,
		check: func(ev *Evidence) bool {
			if ev.Home.StatusCode != 200 || ev.HomeHTML == "" {
				return false
			}
			if hasGeneratorMeta(ev.HomeHTML) {
				return true
			}
			return hasWPPaths(ev.HomeHTML) && hasWPClasses(ev.HomeHTML)
		},
	},
}

func statusIn(pr ProbeResult, codes ...int) bool {
	if !pr.Settled || pr.StatusCode == 0 {
		return false
	}
	for _, c := range codes {
		if pr.StatusCode == c {
			return true
		}
	}
	return false
}

// hasGeneratorMeta reports whether the homepage declares WordPress in its
// generator meta tag.
func hasGeneratorMeta(html string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}
	found := false
	doc.Find(`meta[name="generator"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		content, _ := s.Attr("content")
		if strings.HasPrefix(strings.TrimSpace(content), "WordPress") {
			found = true
			return false
		}
		return true
	})
	return found
}

// hasWPPaths looks for wp-content/wp-includes asset references in the raw
// markup. Themes that strip the generator tag still load assets from these
// directories.
func hasWPPaths(html string) bool {
	return strings.Contains(html, "wp-content/") || strings.Contains(html, "wp-includes/")
}

// hasWPClasses checks for the wp- class prefix WordPress stamps on body and
// block elements.
func hasWPClasses(html string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}
	found := false
	doc.Find("[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		for _, cls := range strings.Fields(class) {
			if strings.HasPrefix(cls, "wp-") {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

// Detect evaluates all fingerprint indicators against the probe evidence and
// classifies the target. Every indicator is always evaluated; a target is
// WordPress when at least IndicatorThreshold indicators fire.
func Detect(ev *Evidence) types.DetectionResult {
	result := types.DetectionResult{
		DetectedIndicators: []string{},
		FailedChecks:       []string{},
	}
	if ev == nil {
		result.FailedChecks = append(result.FailedChecks, "Connection failed")
		return result
	}

	for _, ic := range indicatorChecks {
		if ic.check(ev) {
			result.DetectedIndicators = append(result.DetectedIndicators, ic.name)
		} else {
			result.FailedChecks = append(result.FailedChecks, ic.name)
		}
	}

	hits := len(result.DetectedIndicators)
	result.IsWordPress = hits >= IndicatorThreshold
	result.Confidence = int(math.Round(float64(hits) / float64(len(indicatorChecks)) * 100))
	return result
}

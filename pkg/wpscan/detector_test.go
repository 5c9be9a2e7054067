package wpscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wpHomepage = `<!DOCTYPE html>
<html>
<head>
<meta name="generator" content="WordPress 6.1.1" />
<link rel="stylesheet" href="https://example.com/wp-content/themes/twentytwentyone/style.css?ver=1.4" />
</head>
<body class="home wp-embed-responsive">
<script src="https://example.com/wp-includes/js/wp-emoji-release.min.js?ver=6.1.1"></script>
</body>
</html>`

func settled(code int) ProbeResult {
	return ProbeResult{StatusCode: code, Settled: true}
}

// evidenceWith forces exactly the named indicators true and leaves every
// other probe as a failed/negative signal.
func evidenceWith(indicators ...string) *Evidence {
	ev := &Evidence{Target: "https://example.com", HTTPS: true}
	for _, name := range indicators {
		switch name {
		case ProbeWPAdmin:
			ev.WPAdmin = settled(200)
		case ProbeWPLogin:
			ev.WPLogin = settled(200)
		case ProbeWPContent:
			ev.WPContent = settled(403)
		case ProbeWPIncludes:
			ev.WPIncludes = settled(200)
		case ProbeWPJSON:
			ev.WPJSON = settled(200)
			ev.WPJSONBody = map[string]interface{}{"namespaces": []interface{}{"wp/v2"}}
		case ProbeXMLRPC:
			ev.XMLRPC = settled(405)
		case ProbeHome:
			ev.Home = settled(200)
			ev.HomeHTML = wpHomepage
		}
	}
	return ev
}

func TestDetectThresholdInvariant(t *testing.T) {
	all := []string{
		ProbeWPAdmin, ProbeWPLogin, ProbeWPContent, ProbeWPIncludes,
		ProbeWPJSON, ProbeXMLRPC, ProbeHome,
	}

	for n := 0; n <= len(all); n++ {
		result := Detect(evidenceWith(all[:n]...))
		assert.Len(t, result.DetectedIndicators, n)
		assert.Equal(t, n >= IndicatorThreshold, result.IsWordPress,
			"%d indicators must classify as WordPress iff >= %d", n, IndicatorThreshold)
	}
}

func TestDetectConfidenceMonotonicity(t *testing.T) {
	all := []string{
		ProbeWPAdmin, ProbeWPLogin, ProbeWPContent, ProbeWPIncludes,
		ProbeWPJSON, ProbeXMLRPC, ProbeHome,
	}

	prev := -1
	for n := 0; n <= len(all); n++ {
		result := Detect(evidenceWith(all[:n]...))
		assert.GreaterOrEqual(t, result.Confidence, prev,
			"confidence must not decrease when indicators are added")
		prev = result.Confidence
	}
}

func TestDetectConfidenceRounding(t *testing.T) {
	// Two of seven indicators: round(100*2/7) = 29.
	result := Detect(evidenceWith(ProbeWPAdmin, ProbeWPContent))
	assert.Equal(t, 29, result.Confidence)
	assert.True(t, result.IsWordPress)
	assert.ElementsMatch(t, []string{ProbeWPAdmin, ProbeWPContent}, result.DetectedIndicators)
	assert.Len(t, result.FailedChecks, 5)
}

func TestDetectAllProbesFailed(t *testing.T) {
	result := Detect(evidenceWith())
	assert.False(t, result.IsWordPress)
	assert.Equal(t, 0, result.Confidence)
	assert.Empty(t, result.DetectedIndicators)
	assert.Len(t, result.FailedChecks, 7)
}

func TestDetectNilEvidence(t *testing.T) {
	result := Detect(nil)
	assert.False(t, result.IsWordPress)
	assert.Equal(t, 0, result.Confidence)
	assert.Equal(t, []string{"Connection failed"}, result.FailedChecks)
}

func TestDetectIndicatorPredicates(t *testing.T) {
	t.Run("wp-admin accepts redirects and forbidden", func(t *testing.T) {
		for _, code := range []int{200, 301, 302, 403} {
			ev := &Evidence{WPAdmin: settled(code)}
			result := Detect(ev)
			assert.Contains(t, result.DetectedIndicators, ProbeWPAdmin, "status %d", code)
		}
		ev := &Evidence{WPAdmin: settled(404)}
		assert.NotContains(t, Detect(ev).DetectedIndicators, ProbeWPAdmin)
	})

	t.Run("wp-login requires exactly 200", func(t *testing.T) {
		assert.Contains(t, Detect(&Evidence{WPLogin: settled(200)}).DetectedIndicators, ProbeWPLogin)
		assert.NotContains(t, Detect(&Evidence{WPLogin: settled(302)}).DetectedIndicators, ProbeWPLogin)
	})

	t.Run("xmlrpc accepts method-not-allowed", func(t *testing.T) {
		assert.Contains(t, Detect(&Evidence{XMLRPC: settled(405)}).DetectedIndicators, ProbeXMLRPC)
		assert.NotContains(t, Detect(&Evidence{XMLRPC: settled(404)}).DetectedIndicators, ProbeXMLRPC)
	})

	t.Run("unsettled probe is never a positive signal", func(t *testing.T) {
		ev := &Evidence{WPAdmin: ProbeResult{StatusCode: 200, Settled: false}}
		assert.NotContains(t, Detect(ev).DetectedIndicators, ProbeWPAdmin)
	})

	t.Run("wp-json requires REST index markers", func(t *testing.T) {
		ev := &Evidence{WPJSON: settled(200), WPJSONBody: map[string]interface{}{"routes": map[string]interface{}{}}}
		assert.Contains(t, Detect(ev).DetectedIndicators, ProbeWPJSON)

		ev = &Evidence{WPJSON: settled(200), WPJSONBody: map[string]interface{}{"description": "Just another WordPress site"}}
		assert.Contains(t, Detect(ev).DetectedIndicators, ProbeWPJSON)

		ev = &Evidence{WPJSON: settled(200), WPJSONBody: map[string]interface{}{"unrelated": true}}
		assert.NotContains(t, Detect(ev).DetectedIndicators, ProbeWPJSON)
	})

	t.Run("homepage generator meta alone is enough", func(t *testing.T) {
		ev := &Evidence{
			Home:     settled(200),
			HomeHTML: `<html><head><meta name="generator" content="WordPress 6.0"></head><body></body></html>`,
		}
		assert.Contains(t, Detect(ev).DetectedIndicators, ProbeHome)
	})

	t.Run("homepage without meta needs both paths and wp- classes", func(t *testing.T) {
		pathsOnly := &Evidence{
			Home:     settled(200),
			HomeHTML: `<html><body><img src="/wp-content/uploads/a.png"></body></html>`,
		}
		assert.NotContains(t, Detect(pathsOnly).DetectedIndicators, ProbeHome)

		both := &Evidence{
			Home:     settled(200),
			HomeHTML: `<html><body class="wp-embed-responsive"><img src="/wp-content/uploads/a.png"></body></html>`,
		}
		assert.Contains(t, Detect(both).DetectedIndicators, ProbeHome)
	})
}

func TestDetectDeterministicOrder(t *testing.T) {
	a := Detect(evidenceWith(ProbeWPAdmin, ProbeHome, ProbeXMLRPC))
	b := Detect(evidenceWith(ProbeWPAdmin, ProbeHome, ProbeXMLRPC))
	require.Equal(t, a.DetectedIndicators, b.DetectedIndicators)
	require.Equal(t, a.FailedChecks, b.FailedChecks)
}

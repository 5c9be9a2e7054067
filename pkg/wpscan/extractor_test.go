package wpscan

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wpsleuth/wpsleuth/pkg/advisory"
	"github.com/wpsleuth/wpsleuth/pkg/types"
)

func TestExtractCoreVersion(t *testing.T) {
	store := advisory.Builtin()

	t.Run("generator meta tag is preferred", func(t *testing.T) {
		ev := &Evidence{HomeHTML: wpHomepage}
		ex := Extract(ev, store)
		assert.Equal(t, "6.1.1", ex.Core.Version)
		assert.Equal(t, "meta generator tag", ex.Core.DetectedFrom)
		assert.Equal(t, advisory.CoreSlug, ex.Core.Slug)
	})

	t.Run("falls back to emoji script version", func(t *testing.T) {
		ev := &Evidence{HomeHTML: `<script src="/wp-includes/js/wp-emoji-release.min.js?ver=5.8.2"></script>`}
		ex := Extract(ev, store)
		assert.Equal(t, "5.8.2", ex.Core.Version)
		assert.Equal(t, "wp-emoji script version", ex.Core.DetectedFrom)
	})

	t.Run("falls back to block-library stylesheet version", func(t *testing.T) {
		ev := &Evidence{HomeHTML: `<link href="/wp-includes/css/dist/block-library/style.min.css?ver=6.2.1" rel="stylesheet">`}
		ex := Extract(ev, store)
		assert.Equal(t, "6.2.1", ex.Core.Version)
	})

	t.Run("falls back to wp-json generator field", func(t *testing.T) {
		ev := &Evidence{WPJSONBody: map[string]interface{}{"generator": "WordPress 6.3"}}
		ex := Extract(ev, store)
		assert.Equal(t, "6.3", ex.Core.Version)
		assert.Equal(t, "wp-json generator field", ex.Core.DetectedFrom)
	})

	t.Run("no markers yields unknown", func(t *testing.T) {
		ex := Extract(&Evidence{HomeHTML: "<html></html>"}, store)
		assert.Equal(t, types.VersionUnknown, ex.Core.Version)
		assert.False(t, ex.Core.IsOutdated, "unknown version must not be flagged outdated")
	})

	t.Run("outdated core is annotated against latest", func(t *testing.T) {
		ev := &Evidence{HomeHTML: `<meta name="generator" content="WordPress 5.0"`}
		ex := Extract(ev, store)
		require.NotEmpty(t, ex.Core.LatestVersion)
		assert.True(t, ex.Core.IsOutdated)
	})
}

func TestExtractComponents(t *testing.T) {
	store := advisory.Builtin()
	html := `<html><head>
<link rel="stylesheet" href="https://example.com/wp-content/plugins/contact-form-7/includes/css/styles.css?ver=5.1.1" media="all">
<script src="https://example.com/wp-content/plugins/contact-form-7/includes/js/index.js?ver=5.1.1"></script>
<script src="https://example.com/wp-content/plugins/wp-super-cache/assets/app.js"></script>
<link rel="stylesheet" href="https://example.com/wp-content/themes/newspaper/style.css?ver=6.5" media="all">
</head><body></body></html>`

	ex := Extract(&Evidence{HomeHTML: html}, store)

	t.Run("plugins are deduplicated and sorted", func(t *testing.T) {
		require.Len(t, ex.Plugins, 2)
		assert.Equal(t, "contact-form-7", ex.Plugins[0].Slug)
		assert.Equal(t, "wp-super-cache", ex.Plugins[1].Slug)
	})

	t.Run("versions come from asset query strings", func(t *testing.T) {
		assert.Equal(t, "5.1.1", ex.Plugins[0].Version)
		assert.Equal(t, types.VersionUnknown, ex.Plugins[1].Version)
	})

	t.Run("display names derive from slugs", func(t *testing.T) {
		assert.Equal(t, "Contact Form 7", ex.Plugins[0].Name)
		assert.Equal(t, "Wp Super Cache", ex.Plugins[1].Name)
	})

	t.Run("themes are extracted with provenance", func(t *testing.T) {
		require.Len(t, ex.Themes, 1)
		assert.Equal(t, "newspaper", ex.Themes[0].Slug)
		assert.Equal(t, "6.5", ex.Themes[0].Version)
		assert.Equal(t, "homepage theme asset path", ex.Themes[0].DetectedFrom)
	})

	t.Run("outdatedness uses the advisory store's latest versions", func(t *testing.T) {
		assert.True(t, ex.Plugins[0].IsOutdated, "contact-form-7 5.1.1 is older than latest")
	})
}

func TestExtractPHPVersion(t *testing.T) {
	headers := http.Header{}
	headers.Set("X-Powered-By", "PHP/7.4.33")

	ex := Extract(&Evidence{HomeHeaders: headers}, advisory.Builtin())
	assert.Equal(t, "7.4.33", ex.PHPVersion)

	ex = Extract(&Evidence{}, advisory.Builtin())
	assert.Empty(t, ex.PHPVersion)
}

func TestExtractNilEvidence(t *testing.T) {
	ex := Extract(nil, advisory.Builtin())
	assert.Equal(t, types.VersionUnknown, ex.Core.Version)
	assert.Empty(t, ex.Plugins)
	assert.Empty(t, ex.Themes)
}

package wpscan

import (
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/wpsleuth/wpsleuth/pkg/advisory"
	"github.com/wpsleuth/wpsleuth/pkg/types"
)

// Core version markers, tried in order of reliability. The generator meta tag
// is authoritative when present; the emoji and block-library asset versions
// survive on sites that strip the meta tag.
var (
	reGeneratorVersion    = regexp.MustCompile(`<meta name="generator" content="WordPress ([^"]+)"`)
	reEmojiVersion        = regexp.MustCompile(`wp-emoji-release\.min\.js\?ver=([^"&]+)`)
	reBlockLibraryVersion = regexp.MustCompile(`wp-includes/css/dist/block-library/style\.min\.css\?ver=([^"&]+)`)

	rePluginAsset = regexp.MustCompile(`wp-content/plugins/([a-zA-Z0-9_-]+)/[^"'\s]*?(?:\?ver=([0-9][^"'&\s]*))?["'\s]`)
	reThemeAsset  = regexp.MustCompile(`wp-content/themes/([a-zA-Z0-9_-]+)/[^"'\s]*?(?:\?ver=([0-9][^"'&\s]*))?["'\s]`)
)

// coreVersionMarkers maps each regex to the provenance string recorded on the
// resulting ComponentRecord.
var coreVersionMarkers = []struct {
	re     *regexp.Regexp
	source string
}{
	{reGeneratorVersion, "meta generator tag"},
	{reEmojiVersion, "wp-emoji script version"},
	{reBlockLibraryVersion, "block-library stylesheet version"},
}

// Extraction holds the component inventory derived from probe evidence.
type Extraction struct {
	Core    types.ComponentRecord
	Plugins []types.ComponentRecord
	Themes  []types.ComponentRecord

	// PHPVersion is populated when the server leaked it via X-Powered-By.
	PHPVersion string
}

// Extract derives the core/plugin/theme inventory from the homepage markup
// and wp-json evidence. It never fails: an evidence bag with no usable
// markers yields a core record with version "unknown" and empty component
// lists.
func Extract(ev *Evidence, store advisory.Store) Extraction {
	ex := Extraction{
		Core: types.ComponentRecord{
			Slug:         advisory.CoreSlug,
			Name:         "WordPress",
			Version:      types.VersionUnknown,
			DetectedFrom: "not detected",
		},
	}
	if ev == nil {
		return ex
	}

	for _, m := range coreVersionMarkers {
		if match := m.re.FindStringSubmatch(ev.HomeHTML); match != nil {
			ex.Core.Version = strings.TrimSpace(match[1])
			ex.Core.DetectedFrom = m.source
			break
		}
	}
	// The wp-json index sometimes carries the generator hint even when the
	// homepage is stripped.
	if ex.Core.Version == types.VersionUnknown && ev.WPJSONBody != nil {
		if gen, ok := ev.WPJSONBody["generator"].(string); ok {
			if v := strings.TrimPrefix(gen, "WordPress "); v != gen && v != "" {
				ex.Core.Version = strings.TrimSpace(v)
				ex.Core.DetectedFrom = "wp-json generator field"
			}
		}
	}
	annotateLatest(&ex.Core, store)

	ex.Plugins = extractComponents(ev.HomeHTML, rePluginAsset, "homepage plugin asset path", store)
	ex.Themes = extractComponents(ev.HomeHTML, reThemeAsset, "homepage theme asset path", store)

	ex.PHPVersion = phpVersionFrom(ev.HomeHeaders)
	return ex
}

// extractComponents collects unique slugs matched by re in html, keeping the
// first versioned reading seen for each slug. Results are sorted by slug so
// the inventory is deterministic for a given page.
func extractComponents(html string, re *regexp.Regexp, source string, store advisory.Store) []types.ComponentRecord {
	seen := make(map[string]*types.ComponentRecord)
	for _, match := range re.FindAllStringSubmatch(html, -1) {
		slug := match[1]
		version := match[2]
		rec, ok := seen[slug]
		if !ok {
			rec = &types.ComponentRecord{
				Slug:         slug,
				Name:         displayName(slug),
				Version:      types.VersionUnknown,
				DetectedFrom: source,
			}
			seen[slug] = rec
		}
		if rec.Version == types.VersionUnknown && version != "" {
			rec.Version = version
		}
	}

	slugs := make([]string, 0, len(seen))
	for slug := range seen {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	records := make([]types.ComponentRecord, 0, len(slugs))
	for _, slug := range slugs {
		rec := seen[slug]
		annotateLatest(rec, store)
		records = append(records, *rec)
	}
	return records
}

// annotateLatest fills LatestVersion and IsOutdated from the advisory store.
// Outdatedness stays false when either version is unknown.
func annotateLatest(rec *types.ComponentRecord, store advisory.Store) {
	if store == nil {
		return
	}
	latest, ok := store.LatestVersion(rec.Slug)
	if !ok {
		return
	}
	rec.LatestVersion = latest
	rec.IsOutdated = isOlderVersion(rec.Version, latest)
}

// displayName turns a slug like "contact-form-7" into "Contact Form 7".
func displayName(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_'
	})
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

var rePHPVersion = regexp.MustCompile(`(?i)PHP/([0-9][0-9.]*)`)

// phpVersionFrom pulls the PHP version from an X-Powered-By header when the
// server leaks one.
func phpVersionFrom(headers http.Header) string {
	if m := rePHPVersion.FindStringSubmatch(headers.Get("X-Powered-By")); m != nil {
		return m[1]
	}
	return ""
}

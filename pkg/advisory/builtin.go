package advisory

import (
	"github.com/wpsleuth/wpsleuth/pkg/types"
)

// Builtin returns the compiled-in advisory dataset. It covers WordPress core
// plus the plugins and themes most frequently seen in the wild; deployments
// with a fuller feed should load a YAML dataset instead.
func Builtin() Store {
	return &mapStore{
		advisories: builtinAdvisories(),
		latest:     builtinLatest(),
	}
}

func builtinAdvisories() map[string][]Advisory {
	byslug := map[string][]Advisory{
		CoreSlug: {
			{
				Type:          types.ComponentCore,
				Title:         "WordPress core object injection via PHP deserialization",
				Description:   "WordPress core before 6.4.2 is vulnerable to a remote code execution chain when combined with a plugin exposing a POP gadget.",
				AffectedRange: "< 6.4.2",
				FixedIn:       "6.4.2",
				Severity:      types.SeverityCritical,
				CVSSScore:     9.8,
			},
			{
				Type:          types.ComponentCore,
				Title:         "Unauthenticated blind SSRF via DNS rebinding",
				Description:   "WordPress core allows blind server-side request forgery through the pingback feature.",
				AffectedRange: "< 6.2",
				CVEID:         "CVE-2022-3590",
				Severity:      types.SeverityMedium,
				CVSSScore:     5.9,
			},
			{
				Type:          types.ComponentCore,
				Title:         "Authenticated stored XSS via post slugs",
				Description:   "Contributors could inject scripts into post slugs rendered unescaped in the admin screen.",
				AffectedRange: ">= 5.9, < 6.0.3",
				FixedIn:       "6.0.3",
				Severity:      types.SeverityHigh,
				CVSSScore:     7.1,
			},
		},
		"contact-form-7": {
			{
				Type:          types.ComponentPlugin,
				Title:         "Contact Form 7 unrestricted file upload",
				Description:   "Filename sanitization bypass allows uploading files with arbitrary extensions, leading to remote code execution on some hosts.",
				AffectedRange: "< 5.3.2",
				FixedIn:       "5.3.2",
				CVEID:         "CVE-2020-35489",
				Severity:      types.SeverityCritical,
				CVSSScore:     9.8,
			},
		},
		"wp-file-manager": {
			{
				Type:          types.ComponentPlugin,
				Title:         "WP File Manager remote code execution",
				Description:   "The bundled elFinder connector allowed unauthenticated arbitrary file upload.",
				AffectedRange: "< 6.9",
				FixedIn:       "6.9",
				CVEID:         "CVE-2020-25213",
				Severity:      types.SeverityCritical,
				CVSSScore:     10.0,
			},
		},
		"duplicator": {
			{
				Type:          types.ComponentPlugin,
				Title:         "Duplicator arbitrary file download",
				Description:   "Unauthenticated directory traversal in the file download endpoint exposes wp-config.php.",
				AffectedRange: "< 1.3.28",
				FixedIn:       "1.3.28",
				CVEID:         "CVE-2020-11738",
				Severity:      types.SeverityHigh,
				CVSSScore:     7.5,
			},
		},
		"ultimate-member": {
			{
				Type:          types.ComponentPlugin,
				Title:         "Ultimate Member privilege escalation",
				Description:   "Unsanitized user meta allows registering accounts with administrator capabilities.",
				AffectedRange: "< 2.6.7",
				FixedIn:       "2.6.7",
				CVEID:         "CVE-2023-3460",
				Severity:      types.SeverityCritical,
				CVSSScore:     9.8,
			},
		},
		"wordpress-seo": {
			{
				Type:          types.ComponentPlugin,
				Title:         "Yoast SEO authenticated stored XSS",
				Description:   "Crafted SEO metadata is rendered unescaped in the admin dashboard.",
				AffectedRange: "< 20.2.1",
				FixedIn:       "20.2.1",
				Severity:      types.SeverityMedium,
				CVSSScore:     5.4,
			},
		},
		"elementor": {
			{
				Type:          types.ComponentPlugin,
				Title:         "Elementor authenticated arbitrary file upload",
				Description:   "The template import handler accepts uploads without validating file type for users with contributor access.",
				AffectedRange: "< 3.12.2",
				FixedIn:       "3.12.2",
				Severity:      types.SeverityHigh,
				CVSSScore:     8.8,
			},
		},
		"wp-fastest-cache": {
			{
				Type:          types.ComponentPlugin,
				Title:         "WP Fastest Cache unauthenticated SQL injection",
				Description:   "A cookie value is interpolated into a cache lookup query without parameterization.",
				AffectedRange: "< 1.2.2",
				FixedIn:       "1.2.2",
				CVEID:         "CVE-2023-6063",
				Severity:      types.SeverityHigh,
				CVSSScore:     8.6,
			},
		},
		"newspaper": {
			{
				Type:          types.ComponentTheme,
				Title:         "Newspaper theme stored XSS",
				Description:   "Unsanitized ad markup settings allow persistent script injection.",
				AffectedRange: "< 6.7.2",
				FixedIn:       "6.7.2",
				Severity:      types.SeverityHigh,
				CVSSScore:     7.2,
			},
		},
		"twentyfifteen": {
			{
				Type:          types.ComponentTheme,
				Title:         "Twenty Fifteen DOM XSS via genericons",
				Description:   "The bundled genericons example file is vulnerable to DOM-based cross-site scripting.",
				AffectedRange: "< 1.2",
				FixedIn:       "1.2",
				CVEID:         "CVE-2015-3429",
				Severity:      types.SeverityMedium,
				CVSSScore:     6.1,
			},
		},
	}

	// Fill the redundant slug field so lookups return self-contained records.
	for slug, advs := range byslug {
		for i := range advs {
			advs[i].Slug = slug
		}
	}
	return byslug
}

func builtinLatest() map[string]string {
	return map[string]string{
		CoreSlug:           "6.6.2",
		"akismet":          "5.3.3",
		"contact-form-7":   "5.9.8",
		"duplicator":       "1.5.10",
		"elementor":        "3.24.4",
		"jetpack":          "13.9",
		"ultimate-member":  "2.8.7",
		"woocommerce":      "9.3.3",
		"wordpress-seo":    "23.5",
		"wp-fastest-cache": "1.3.1",
		"wp-file-manager":  "7.2.8",
		"wp-super-cache":   "1.12.4",
		"astra":            "4.8.4",
		"generatepress":    "3.5.1",
		"newspaper":        "12.6.6",
		"oceanwp":          "3.6.1",
		"twentyfifteen":    "3.9",
		"twentytwentyone":  "2.3",
	}
}

package wpscan

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeTarget canonicalizes a caller-supplied target: a missing scheme
// defaults to https, exactly one trailing slash is stripped, and the result
// must parse to a URL with a host. Returns the normalized origin URL.
func NormalizeTarget(raw string) (string, error) {
	target := strings.TrimSpace(raw)
	if target == "" {
		return "", fmt.Errorf("target URL is required")
	}

	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = "https://" + target
	}

	target = strings.TrimSuffix(target, "/")

	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid target URL: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid target URL: missing host")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid target URL: unsupported scheme %q", u.Scheme)
	}

	return target, nil
}

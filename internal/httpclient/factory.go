// Package httpclient builds the HTTP clients used to probe remote origins.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// ClientConfig configures a probe client.
type ClientConfig struct {
	Timeout         time.Duration
	BlockPrivateIPs bool
	FollowRedirects bool
	MaxRedirects    int
}

// DefaultConfig returns the configuration used for general scanning.
func DefaultConfig() ClientConfig {
	return ClientConfig{
		Timeout:         10 * time.Second,
		BlockPrivateIPs: true,
		FollowRedirects: true,
		MaxRedirects:    5,
	}
}

// New creates an HTTP client with timeout enforcement, optional SSRF
// protection (private addresses refused at dial time), and a bounded
// redirect policy.
func New(cfg ClientConfig) *http.Client {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cfg.BlockPrivateIPs {
				if err := validateAddress(addr); err != nil {
					return nil, fmt.Errorf("ssrf protection: %w", err)
				}
			}
			var dialer net.Dialer
			return dialer.DialContext(ctx, network, addr)
		},

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	client := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}

	if !cfg.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	} else if cfg.MaxRedirects > 0 {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", cfg.MaxRedirects)
			}
			return nil
		}
	}

	return client
}

// NewProbeClient creates the client used for fingerprint probes: short
// timeout, redirects followed a couple of hops so wp-admin 301/302 chains
// resolve, private addresses blocked by default.
func NewProbeClient(timeout time.Duration, blockPrivate bool) *http.Client {
	return New(ClientConfig{
		Timeout:         timeout,
		BlockPrivateIPs: blockPrivate,
		FollowRedirects: false,
		MaxRedirects:    0,
	})
}

// validateAddress rejects addresses that resolve to private, loopback, or
// link-local IPs.
func validateAddress(addr string) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	ips, err := net.LookupIP(host)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", host, err)
	}

	for _, ip := range ips {
		if isPrivateIP(ip) {
			return fmt.Errorf("blocked private IP: %s (%s)", ip, host)
		}
	}

	return nil
}

func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsPrivate() {
		return true
	}
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}
	if ip.IsUnspecified() {
		return true
	}
	return false
}

// CloseBody drains and closes a response body so the underlying connection
// can be reused. Unclosed bodies leak pool connections.
func CloseBody(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

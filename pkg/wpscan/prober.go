package wpscan

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/wpsleuth/wpsleuth/internal/httpclient"
	"github.com/wpsleuth/wpsleuth/internal/logger"
	"github.com/wpsleuth/wpsleuth/internal/ratelimit"
)

// Probe names. These double as indicator names in DetectionResult, so they
// are part of the result contract.
const (
	ProbeWPAdmin    = "wp-admin"
	ProbeWPLogin    = "wp-login.php"
	ProbeWPContent  = "wp-content"
	ProbeWPIncludes = "wp-includes"
	ProbeWPJSON     = "wp-json API"
	ProbeXMLRPC     = "xmlrpc.php"
	ProbeHome       = "HTML meta/paths"
)

// maxHomeBodyBytes bounds how much of a homepage we read. Enough for any
// real <head> plus the asset references the extractor looks for.
const maxHomeBodyBytes = 2 << 20

// ProbeResult is the raw, uninterpreted outcome of a single probe. A failed
// probe (timeout, DNS error, refused connection) has Settled == false and a
// zero StatusCode; it is never surfaced as an error.
type ProbeResult struct {
	Name       string
	Path       string
	StatusCode int
	Settled    bool
}

// Evidence is the fixed-shape bag of raw per-probe results handed to the
// detector. The prober records what the wire said and judges nothing.
type Evidence struct {
	Target string
	HTTPS  bool

	WPAdmin    ProbeResult
	WPLogin    ProbeResult
	WPContent  ProbeResult
	WPIncludes ProbeResult
	XMLRPC     ProbeResult

	WPJSON     ProbeResult
	WPJSONBody map[string]interface{}

	Home        ProbeResult
	HomeHTML    string
	HomeHeaders http.Header
}

// Prober issues the fixed probe set against one origin. It holds no state
// between calls and retries nothing: one failed attempt per probe is final
// for that scan.
type Prober struct {
	client       *http.Client
	limiter      *ratelimit.Limiter
	userAgent    string
	probeTimeout time.Duration
	log          *logger.Logger
}

type ProberConfig struct {
	ProbeTimeout    time.Duration
	UserAgent       string
	BlockPrivateIPs bool
	HostDelay       time.Duration
}

func NewProber(cfg ProberConfig, log *logger.Logger) *Prober {
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}
	return &Prober{
		client: httpclient.NewProbeClient(cfg.ProbeTimeout, cfg.BlockPrivateIPs),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerSecond: 10,
			BurstSize:         10, // the probe set fires as one burst
			MinDelay:          cfg.HostDelay,
		}),
		userAgent:    cfg.UserAgent,
		probeTimeout: cfg.ProbeTimeout,
		log:          log.WithComponent("prober"),
	}
}

// Probe fans out all probes concurrently and joins on every one of them
// settling, success or failure. A fast-failing probe never short-circuits
// the others. The returned evidence is always complete in shape.
func (p *Prober) Probe(ctx context.Context, target string) *Evidence {
	ev := &Evidence{
		Target: target,
		HTTPS:  strings.HasPrefix(target, "https://"),
	}

	var wg sync.WaitGroup
	run := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	run(func() { ev.WPAdmin = p.head(ctx, target, ProbeWPAdmin, "/wp-admin/") })
	run(func() { ev.WPLogin = p.head(ctx, target, ProbeWPLogin, "/wp-login.php") })
	run(func() { ev.WPContent = p.head(ctx, target, ProbeWPContent, "/wp-content/") })
	run(func() { ev.WPIncludes = p.head(ctx, target, ProbeWPIncludes, "/wp-includes/") })
	run(func() { ev.XMLRPC = p.head(ctx, target, ProbeXMLRPC, "/xmlrpc.php") })
	run(func() { ev.WPJSON, ev.WPJSONBody = p.getJSON(ctx, target, ProbeWPJSON, "/wp-json/") })
	run(func() { ev.Home, ev.HomeHTML, ev.HomeHeaders = p.getHTML(ctx, target, ProbeHome, "/") })

	wg.Wait()
	return ev
}

func (p *Prober) head(ctx context.Context, target, name, path string) ProbeResult {
	result := ProbeResult{Name: name, Path: path}

	resp, err := p.do(ctx, http.MethodHead, target+path)
	if err != nil {
		p.log.Debugw("Probe failed", "probe", name, "target", target, "error", err)
		return result
	}
	defer httpclient.CloseBody(resp)

	result.StatusCode = resp.StatusCode
	result.Settled = true
	return result
}

func (p *Prober) getJSON(ctx context.Context, target, name, path string) (ProbeResult, map[string]interface{}) {
	result := ProbeResult{Name: name, Path: path}

	resp, err := p.do(ctx, http.MethodGet, target+path)
	if err != nil {
		p.log.Debugw("Probe failed", "probe", name, "target", target, "error", err)
		return result, nil
	}
	defer httpclient.CloseBody(resp)

	result.StatusCode = resp.StatusCode
	result.Settled = true

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return result, nil
	}

	var body map[string]interface{}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxHomeBodyBytes)).Decode(&body); err != nil {
		// Non-JSON body where JSON was expected is a negative signal for
		// this probe only, not a scan failure.
		p.log.Debugw("Probe body is not JSON", "probe", name, "target", target, "error", err)
		return result, nil
	}

	return result, body
}

func (p *Prober) getHTML(ctx context.Context, target, name, path string) (ProbeResult, string, http.Header) {
	result := ProbeResult{Name: name, Path: path}

	resp, err := p.do(ctx, http.MethodGet, target+path)
	if err != nil {
		p.log.Debugw("Probe failed", "probe", name, "target", target, "error", err)
		return result, "", nil
	}
	defer httpclient.CloseBody(resp)

	result.StatusCode = resp.StatusCode
	result.Settled = true

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxHomeBodyBytes))
	if err != nil {
		p.log.Debugw("Probe body read failed", "probe", name, "target", target, "error", err)
		return result, "", resp.Header
	}

	return result, string(body), resp.Header
}

// do issues one request under the host politeness delay. The per-probe
// timeout is enforced by the client's own Timeout, which also bounds the
// caller's body read; the caller's context cancels in-flight probes early.
func (p *Prober) do(ctx context.Context, method, rawURL string) (*http.Response, error) {
	if u, err := url.Parse(rawURL); err == nil {
		if err := p.limiter.WaitForHost(ctx, u.Host); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}

	p.log.LogHTTPRequest(ctx, method, rawURL, resp.StatusCode, time.Since(start))
	return resp, nil
}

package wpscan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wpsleuth/wpsleuth/internal/config"
	"github.com/wpsleuth/wpsleuth/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(config.LoggerConfig{Level: "error", Format: "json"})
	require.NoError(t, err)
	return log
}

func newTestProber(t *testing.T) *Prober {
	t.Helper()
	return NewProber(ProberConfig{
		ProbeTimeout:    2 * time.Second,
		UserAgent:       "wpsleuth-test",
		BlockPrivateIPs: false, // httptest listens on loopback
	}, testLogger(t))
}

// wpTestServer simulates a WordPress origin. Paths not handled return 404.
func wpTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func wordpressHandler(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/wp-admin/":
		w.WriteHeader(http.StatusForbidden)
	case "/wp-login.php":
		w.WriteHeader(http.StatusOK)
	case "/wp-content/", "/wp-includes/":
		w.WriteHeader(http.StatusForbidden)
	case "/xmlrpc.php":
		w.WriteHeader(http.StatusMethodNotAllowed)
	case "/wp-json/":
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"Test Site","description":"Just another WordPress site","namespaces":["wp/v2"]}`))
	case "/":
		w.Header().Set("X-Powered-By", "PHP/8.1.2")
		w.Write([]byte(wpHomepage))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestProbeCollectsAllEvidence(t *testing.T) {
	srv := wpTestServer(t, wordpressHandler)
	ev := newTestProber(t).Probe(context.Background(), srv.URL)

	assert.Equal(t, srv.URL, ev.Target)
	assert.False(t, ev.HTTPS, "httptest server is plain http")

	assert.Equal(t, 403, ev.WPAdmin.StatusCode)
	assert.Equal(t, 200, ev.WPLogin.StatusCode)
	assert.Equal(t, 403, ev.WPContent.StatusCode)
	assert.Equal(t, 403, ev.WPIncludes.StatusCode)
	assert.Equal(t, 405, ev.XMLRPC.StatusCode)

	require.NotNil(t, ev.WPJSONBody)
	assert.Contains(t, ev.WPJSONBody, "namespaces")

	assert.Contains(t, ev.HomeHTML, "WordPress 6.1.1")
	assert.Equal(t, "PHP/8.1.2", ev.HomeHeaders.Get("X-Powered-By"))
}

func TestProbeIsolation(t *testing.T) {
	// One probe hangs past its timeout; the other six must still settle and
	// the join must complete with their evidence intact.
	slow := make(chan struct{})
	srv := wpTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/xmlrpc.php" {
			<-slow
			return
		}
		wordpressHandler(w, r)
	})
	defer close(slow)

	prober := NewProber(ProberConfig{
		ProbeTimeout:    500 * time.Millisecond,
		UserAgent:       "wpsleuth-test",
		BlockPrivateIPs: false,
	}, testLogger(t))

	ev := prober.Probe(context.Background(), srv.URL)

	assert.False(t, ev.XMLRPC.Settled, "hung probe converts to a negative signal")
	assert.True(t, ev.WPAdmin.Settled)
	assert.True(t, ev.WPLogin.Settled)
	assert.True(t, ev.Home.Settled)

	result := Detect(ev)
	assert.True(t, result.IsWordPress, "six successes still classify the target")
	assert.NotContains(t, result.DetectedIndicators, ProbeXMLRPC)
}

func TestProbeUnreachableTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(wordpressHandler))
	srv.Close() // nothing listens anymore

	ev := newTestProber(t).Probe(context.Background(), srv.URL)

	for _, pr := range []ProbeResult{ev.WPAdmin, ev.WPLogin, ev.WPContent, ev.WPIncludes, ev.XMLRPC, ev.WPJSON, ev.Home} {
		assert.False(t, pr.Settled)
		assert.Zero(t, pr.StatusCode)
	}

	result := Detect(ev)
	assert.False(t, result.IsWordPress)
	assert.Equal(t, 0, result.Confidence)
}

func TestProbeNonJSONBody(t *testing.T) {
	srv := wpTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/wp-json/" {
			w.Write([]byte("<html>not json</html>"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	ev := newTestProber(t).Probe(context.Background(), srv.URL)
	assert.True(t, ev.WPJSON.Settled, "the request itself succeeded")
	assert.Nil(t, ev.WPJSONBody, "non-JSON body is a negative signal")
}

func TestProbeRunsConcurrently(t *testing.T) {
	var inFlight, peak int32
	srv := wpTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		wordpressHandler(w, r)
	})

	newTestProber(t).Probe(context.Background(), srv.URL)
	assert.Greater(t, atomic.LoadInt32(&peak), int32(1), "probes must fan out, not run sequentially")
}

func TestProbeSendsUserAgent(t *testing.T) {
	var ua atomic.Value
	srv := wpTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		ua.Store(r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
	})

	newTestProber(t).Probe(context.Background(), srv.URL)
	assert.Equal(t, "wpsleuth-test", ua.Load())
}

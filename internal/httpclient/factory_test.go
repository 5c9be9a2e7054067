package httpclient

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProbeClientDoesNotFollowRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/wp-admin/" {
			http.Redirect(w, r, "/wp-login.php", http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewProbeClient(2*time.Second, false)
	resp, err := client.Get(srv.URL + "/wp-admin/")
	require.NoError(t, err)
	defer CloseBody(resp)

	assert.Equal(t, http.StatusFound, resp.StatusCode,
		"redirect statuses are evidence and must be surfaced, not followed")
}

func TestBlockPrivateIPs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	blocked := NewProbeClient(2*time.Second, true)
	_, err := blocked.Get(srv.URL)
	require.Error(t, err, "loopback targets must be refused at dial time")
	assert.Contains(t, err.Error(), "ssrf protection")

	open := NewProbeClient(2*time.Second, false)
	resp, err := open.Get(srv.URL)
	require.NoError(t, err)
	CloseBody(resp)
}

func TestIsPrivateIP(t *testing.T) {
	private := []string{"127.0.0.1", "10.0.0.1", "192.168.1.1", "172.16.0.1", "169.254.1.1", "0.0.0.0", "::1"}
	for _, raw := range private {
		assert.True(t, isPrivateIP(net.ParseIP(raw)), "%s should be private", raw)
	}

	public := []string{"8.8.8.8", "1.1.1.1", "93.184.216.34"}
	for _, raw := range public {
		assert.False(t, isPrivateIP(net.ParseIP(raw)), "%s should be public", raw)
	}
}

func TestCloseBodyNilSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		CloseBody(nil)
		CloseBody(&http.Response{})
	})
}

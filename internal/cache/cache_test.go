package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wpsleuth/wpsleuth/internal/config"
	"github.com/wpsleuth/wpsleuth/internal/logger"
	"github.com/wpsleuth/wpsleuth/pkg/types"
)

func TestNilCacheIsAlwaysMiss(t *testing.T) {
	var c *ScanCache

	_, err := c.Get(context.Background(), "https://example.com")
	assert.ErrorIs(t, err, ErrMiss)

	assert.NotPanics(t, func() {
		c.Set(context.Background(), &types.ScanResult{URL: "https://example.com"})
	})
	assert.NoError(t, c.Close())
}

func TestNewDisabled(t *testing.T) {
	log, err := logger.New(config.LoggerConfig{Level: "error", Format: "json"})
	require.NoError(t, err)

	c, err := New(config.RedisConfig{Enabled: false}, log)
	require.NoError(t, err)
	assert.Nil(t, c, "disabled cache is the nil always-miss cache")
}

func TestKeyNamespacing(t *testing.T) {
	assert.Equal(t, "wpsleuth:scan:https://example.com", key("https://example.com"))
}

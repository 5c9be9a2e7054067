package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wpsleuth/wpsleuth/internal/config"
	"github.com/wpsleuth/wpsleuth/internal/logger"
	"github.com/wpsleuth/wpsleuth/pkg/types"
)

// ErrMiss is returned when no cached result exists for a target.
var ErrMiss = errors.New("cache miss")

// ScanCache keeps recent scan results per target so repeat requests within
// the TTL skip the network entirely. A nil *ScanCache is valid and behaves as
// an always-miss cache, so callers need no Redis-enabled branch.
type ScanCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

func New(cfg config.RedisConfig, log *logger.Logger) (*ScanCache, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ScanCache{client: client, ttl: ttl, log: log.WithComponent("cache")}, nil
}

func key(target string) string {
	return "wpsleuth:scan:" + target
}

// Get returns the cached result for target, or ErrMiss. Redis failures are
// logged and reported as misses; the caller falls through to a live scan.
func (c *ScanCache) Get(ctx context.Context, target string) (*types.ScanResult, error) {
	if c == nil {
		return nil, ErrMiss
	}

	payload, err := c.client.Get(ctx, key(target)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.LogError(ctx, err, "cache.Get", "target", target)
		}
		return nil, ErrMiss
	}

	var result types.ScanResult
	if err := json.Unmarshal(payload, &result); err != nil {
		c.log.LogError(ctx, err, "cache.Get.unmarshal", "target", target)
		return nil, ErrMiss
	}
	return &result, nil
}

// Set stores a result under its target URL. Failures are logged, never
// propagated; caching is best-effort.
func (c *ScanCache) Set(ctx context.Context, result *types.ScanResult) {
	if c == nil || result == nil {
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		c.log.LogError(ctx, err, "cache.Set.marshal", "target", result.URL)
		return
	}
	if err := c.client.Set(ctx, key(result.URL), payload, c.ttl).Err(); err != nil {
		c.log.LogError(ctx, err, "cache.Set", "target", result.URL)
	}
}

func (c *ScanCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

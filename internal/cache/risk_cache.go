package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/planora/demandcast/internal/config"
	"github.com/planora/demandcast/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	riskSummaryKeyPrefix = "risk:summary"
	riskScanBatchSize    = 100

	defaultSummaryTTL  = time.Minute
	connectPingTimeout = 5 * time.Second
)

// RiskCache caches per-run risk summaries so the dashboard does not hit
// postgres on every poll.
type RiskCache interface {
	GetSummary(ctx context.Context, runID int64) ([]domain.RiskSummary, bool, error)
	SetSummary(ctx context.Context, runID int64, summaries []domain.RiskSummary) error
	InvalidateAll(ctx context.Context) error
}

// NewRiskCache returns a redis-backed cache when caching is enabled, a noop
// otherwise. The connection is verified with a ping before the cache is
// handed out.
func NewRiskCache(cfg config.CacheConfig) (RiskCache, error) {
	if !cfg.Enabled {
		return &noopRiskCache{}, nil
	}

	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), connectPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	ttl := time.Duration(cfg.RiskTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultSummaryTTL
	}

	return &redisRiskCache{client: client, ttl: ttl}, nil
}

// NewNoopRiskCache returns a cache that never hits.
func NewNoopRiskCache() RiskCache {
	return &noopRiskCache{}
}

// redisOptions prefers a full REDIS_URL when given, otherwise assembles the
// address from host/port parts.
func redisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opts, nil
	}

	host := cfg.RedisHost
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.RedisPort
	if port == "" {
		port = "6379"
	}

	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

type redisRiskCache struct {
	client *redis.Client
	ttl    time.Duration
}

func (c *redisRiskCache) GetSummary(ctx context.Context, runID int64) ([]domain.RiskSummary, bool, error) {
	payload, err := c.client.Get(ctx, riskSummaryKey(runID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var summaries []domain.RiskSummary
	if err := json.Unmarshal(payload, &summaries); err != nil {
		return nil, false, fmt.Errorf("decode risk summary cache: %w", err)
	}
	return summaries, true, nil
}

func (c *redisRiskCache) SetSummary(ctx context.Context, runID int64, summaries []domain.RiskSummary) error {
	payload, err := json.Marshal(summaries)
	if err != nil {
		return fmt.Errorf("encode risk summary cache: %w", err)
	}

	if err := c.client.Set(ctx, riskSummaryKey(runID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// InvalidateAll removes every cached summary. SCAN in batches instead of
// KEYS, which blocks the server on large keyspaces.
func (c *redisRiskCache) InvalidateAll(ctx context.Context) error {
	var cursor uint64
	pattern := riskSummaryKeyPrefix + "*"
	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, pattern, riskScanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("redis scan failed: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis delete failed: %w", err)
			}
		}
		cursor = nextCursor
		if cursor == 0 {
			return nil
		}
	}
}

type noopRiskCache struct{}

func (noopRiskCache) GetSummary(ctx context.Context, runID int64) ([]domain.RiskSummary, bool, error) {
	return nil, false, nil
}

func (noopRiskCache) SetSummary(ctx context.Context, runID int64, summaries []domain.RiskSummary) error {
	return nil
}

func (noopRiskCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func riskSummaryKey(runID int64) string {
	return fmt.Sprintf("%s:%d", riskSummaryKeyPrefix, runID)
}

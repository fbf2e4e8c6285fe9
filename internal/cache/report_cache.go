package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/sentinela-corte/internal/config"
	"github.com/andresuchdata/sentinela-corte/internal/domain"
)

const (
	reportKeyPrefix     = "sentinela:report"
	reportScanBatchSize = 100
)

// ReportKey identifies one computed report.
type ReportKey struct {
	Variant domain.ReportVariant
	Period  domain.Period
	// AsOf pins reports whose figures depend on the run date, such as the
	// trailing baseline of the benchmark. Empty otherwise.
	AsOf string
}

// ReportCache stores computed report rows.
type ReportCache interface {
	GetReport(ctx context.Context, key ReportKey) ([]domain.ReportRow, bool, error)
	SetReport(ctx context.Context, key ReportKey, rows []domain.ReportRow) error
	InvalidateAll(ctx context.Context) (int, error)
	Close() error
}

type redisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopReportCache struct{}

func NewReportCache(cfg config.CacheConfig) (ReportCache, error) {
	if !cfg.Enabled {
		return &noopReportCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return NewRedisReportCache(client, ttl), nil
}

// NewRedisReportCache wraps an existing client.
func NewRedisReportCache(client *redis.Client, ttl time.Duration) ReportCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &redisReportCache{client: client, ttl: ttl}
}

func NewNoopReportCache() ReportCache {
	return &noopReportCache{}
}

func (c *redisReportCache) GetReport(ctx context.Context, key ReportKey) ([]domain.ReportRow, bool, error) {
	payload, err := c.client.Get(ctx, buildReportKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var rows []domain.ReportRow
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, false, fmt.Errorf("decode report cache: %w", err)
	}
	return rows, true, nil
}

func (c *redisReportCache) SetReport(ctx context.Context, key ReportKey, rows []domain.ReportRow) error {
	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode report cache: %w", err)
	}

	if err := c.client.Set(ctx, buildReportKey(key), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisReportCache) InvalidateAll(ctx context.Context) (int, error) {
	return deleteKeysWithPrefix(ctx, c.client, reportKeyPrefix, reportScanBatchSize)
}

func (c *redisReportCache) Close() error {
	return c.client.Close()
}

func (n *noopReportCache) GetReport(ctx context.Context, key ReportKey) ([]domain.ReportRow, bool, error) {
	return nil, false, nil
}

func (n *noopReportCache) SetReport(ctx context.Context, key ReportKey, rows []domain.ReportRow) error {
	return nil
}

func (n *noopReportCache) InvalidateAll(ctx context.Context) (int, error) {
	return 0, nil
}

func (n *noopReportCache) Close() error {
	return nil
}

func buildReportKey(key ReportKey) string {
	return fmt.Sprintf("%s:%s:%s", reportKeyPrefix, key.Variant, hashKey(key.Period.Key(), key.AsOf))
}

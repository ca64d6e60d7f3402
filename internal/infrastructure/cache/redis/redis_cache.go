package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dreschagin/guild-insights/internal/application/dto"
	"github.com/dreschagin/guild-insights/internal/application/port"
	"github.com/redis/go-redis/v9"
)

const latestReportKeyPrefix = "guild:report:latest:"

// Options параметры подключения к Redis
type Options struct {
	Host         string
	Port         string
	Password     string
	DB           int
	TTL          time.Duration
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// ReportCache implements port.ReportCache using Redis
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportCache creates a new Redis cache and checks the connection
func NewReportCache(opts Options) (*ReportCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", opts.Host, opts.Port),
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		MinIdleConns: opts.MinIdleConns,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		MaxRetries:   3,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewReportCacheFromClient(client, opts.TTL), nil
}

// NewReportCacheFromClient оборачивает уже созданный клиент
func NewReportCacheFromClient(client *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{
		client: client,
		ttl:    ttl,
	}
}

// GetLatest retrieves the latest report of a guild
func (c *ReportCache) GetLatest(ctx context.Context, guildID string) (*dto.AnalyticsReportDTO, error) {
	val, err := c.client.Get(ctx, LatestReportKey(guildID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, port.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}

	var report dto.AnalyticsReportDTO
	if err := json.Unmarshal(val, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached report: %w", err)
	}

	return &report, nil
}

// SetLatest stores the report with TTL
func (c *ReportCache) SetLatest(ctx context.Context, report *dto.AnalyticsReportDTO) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := c.client.Set(ctx, LatestReportKey(report.ServerInfo.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	return nil
}

// Delete removes the cached report of a guild
func (c *ReportCache) Delete(ctx context.Context, guildID string) error {
	if err := c.client.Del(ctx, LatestReportKey(guildID)).Err(); err != nil {
		return fmt.Errorf("failed to delete from cache: %w", err)
	}
	return nil
}

// Ping проверяет доступность Redis (для readiness probe)
func (c *ReportCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *ReportCache) Close() error {
	return c.client.Close()
}

// LatestReportKey generates the cache key of the latest report
func LatestReportKey(guildID string) string {
	return latestReportKeyPrefix + guildID
}

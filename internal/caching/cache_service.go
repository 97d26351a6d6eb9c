package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"heartgram/internal/models"
	"heartgram/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "heartgram"

type CacheService interface {
	// Event view caching
	GetTenantView(ctx context.Context, tenantID uuid.UUID) (*models.TenantView, error)
	SetTenantView(ctx context.Context, view *models.TenantView, ttl time.Duration) error
	DeleteTenantView(ctx context.Context, tenantID uuid.UUID) error

	// Admin dashboard caching
	GetPlatformStats(ctx context.Context) (*models.PlatformStats, error)
	SetPlatformStats(ctx context.Context, stats *models.PlatformStats, ttl time.Duration) error
	DeletePlatformStats(ctx context.Context) error

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int) (bool, error)
	IncrementRateLimit(ctx context.Context, key string, window time.Duration) error
	ResetRateLimit(ctx context.Context, key string) error

	Ping(ctx context.Context) error
	Close() error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept redis://host:port as well as host:port
	parsedAddr := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	log := logger.Get()
	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Warn("Redis ping failed on initialization", zap.Error(pingErr), zap.String("addr", parsedAddr))
	} else {
		log.Debug("Redis connection established", zap.String("addr", parsedAddr))
	}

	return &redisCacheService{client: client}
}

func tenantViewKey(tenantID uuid.UUID) string {
	return fmt.Sprintf("%s:event:%s:view", keyPrefix, tenantID.String())
}

func rateLimitKey(key string) string {
	return fmt.Sprintf("%s:ratelimit:%s", keyPrefix, key)
}

const platformStatsKey = keyPrefix + ":admin:stats"

func (r *redisCacheService) GetTenantView(ctx context.Context, tenantID uuid.UUID) (*models.TenantView, error) {
	var view models.TenantView
	found, err := r.getJSON(ctx, tenantViewKey(tenantID), &view)
	if err != nil || !found {
		return nil, err
	}
	return &view, nil
}

func (r *redisCacheService) SetTenantView(ctx context.Context, view *models.TenantView, ttl time.Duration) error {
	return r.setJSON(ctx, tenantViewKey(view.ID), view, ttl)
}

func (r *redisCacheService) DeleteTenantView(ctx context.Context, tenantID uuid.UUID) error {
	return r.client.Del(ctx, tenantViewKey(tenantID)).Err()
}

func (r *redisCacheService) GetPlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	var stats models.PlatformStats
	found, err := r.getJSON(ctx, platformStatsKey, &stats)
	if err != nil || !found {
		return nil, err
	}
	return &stats, nil
}

func (r *redisCacheService) SetPlatformStats(ctx context.Context, stats *models.PlatformStats, ttl time.Duration) error {
	return r.setJSON(ctx, platformStatsKey, stats, ttl)
}

func (r *redisCacheService) DeletePlatformStats(ctx context.Context) error {
	return r.client.Del(ctx, platformStatsKey).Err()
}

// IsRateLimited reports whether key has reached limit within its current window
func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int) (bool, error) {
	count, err := r.client.Get(ctx, rateLimitKey(key)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return count >= int64(limit), nil
}

// IncrementRateLimit counts one attempt; the window starts at the first attempt.
// The counter is created with its expiry in the same transaction as the increment.
func (r *redisCacheService) IncrementRateLimit(ctx context.Context, key string, window time.Duration) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		queueRateLimitIncrement(ctx, pipe, rateLimitKey(key), window)
		return nil
	})
	return err
}

// queueRateLimitIncrement creates the counter with a TTL if absent, then increments it.
// INCR keeps the TTL of an existing key.
func queueRateLimitIncrement(ctx context.Context, pipe redis.Pipeliner, cacheKey string, window time.Duration) {
	pipe.SetNX(ctx, cacheKey, 0, window)
	pipe.Incr(ctx, cacheKey)
}

func (r *redisCacheService) ResetRateLimit(ctx context.Context, key string) error {
	return r.client.Del(ctx, rateLimitKey(key)).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisCacheService) Close() error {
	return r.client.Close()
}

func (r *redisCacheService) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil // cache miss
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (r *redisCacheService) setJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

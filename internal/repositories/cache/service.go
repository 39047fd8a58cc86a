// Package cache holds the Redis-backed caches: user profiles and the
// commission rate table. Ledger data is never cached.
package cache

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"mlm/internal/models"
	keys "mlm/internal/utils/cache"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var ratesKey = keys.EntityKey(keys.EntityCommission, keys.KeyRates)

type CacheService struct {
	client   *redis.Client
	ttl      time.Duration
	rateTTL  time.Duration
	hits     int64
	misses   int64
	failures int64
}

// Stats is a point-in-time view of cache effectiveness.
type Stats struct {
	Hits       int64            `json:"hits"`
	Misses     int64            `json:"misses"`
	Failures   int64            `json:"failures"`
	TotalConns uint32           `json:"total_conns"`
	IdleConns  uint32           `json:"idle_conns"`
	Pool       *redis.PoolStats `json:"-"`
}

func NewCacheService(client *redis.Client, defaultTTL, rateTTL time.Duration) *CacheService {
	if rateTTL <= 0 {
		rateTTL = defaultTTL
	}
	return &CacheService{
		client:  client,
		ttl:     defaultTTL,
		rateTTL: rateTTL,
	}
}

// Base operations
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return s.SetWithTTL(ctx, key, value, s.ttl)
}

func (s *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "failed to marshal cache value")
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

// Get loads key into dest. A missing key is reported as (false, nil).
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			atomic.AddInt64(&s.misses, 1)
			return false, nil
		}
		atomic.AddInt64(&s.failures, 1)
		return false, errors.Wrap(err, "failed to get cache value")
	}

	if err := json.Unmarshal(data, dest); err != nil {
		atomic.AddInt64(&s.failures, 1)
		return false, errors.Wrap(err, "failed to unmarshal cache value")
	}
	atomic.AddInt64(&s.hits, 1)
	return true, nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

// User caching
func (s *CacheService) CacheUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("cannot cache nil user")
	}
	return s.Set(ctx, keys.GenerateKey(keys.EntityUser, keys.KeyID, user.ID), user)
}

// GetUser returns (nil, nil) on a cache miss.
func (s *CacheService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	found, err := s.Get(ctx, keys.GenerateKey(keys.EntityUser, keys.KeyID, userID), &user)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

func (s *CacheService) InvalidateUser(ctx context.Context, userID string) error {
	return s.Delete(ctx, keys.GenerateKey(keys.EntityUser, keys.KeyID, userID))
}

// Rate table caching
func (s *CacheService) CacheRates(ctx context.Context, rates []models.CommissionRate) error {
	return s.SetWithTTL(ctx, ratesKey, rates, s.rateTTL)
}

func (s *CacheService) GetRates(ctx context.Context) ([]models.CommissionRate, bool, error) {
	var rates []models.CommissionRate
	found, err := s.Get(ctx, ratesKey, &rates)
	return rates, found, err
}

func (s *CacheService) InvalidateRates(ctx context.Context) error {
	return s.Delete(ctx, ratesKey)
}

// HealthCheck pings Redis.
func (s *CacheService) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, "redis connection failed")
	}
	return nil
}

func (s *CacheService) GetStats() Stats {
	pool := s.client.PoolStats()
	return Stats{
		Hits:       atomic.LoadInt64(&s.hits),
		Misses:     atomic.LoadInt64(&s.misses),
		Failures:   atomic.LoadInt64(&s.failures),
		TotalConns: pool.TotalConns,
		IdleConns:  pool.IdleConns,
		Pool:       pool,
	}
}

// FlushAll flushes all keys from the cache
func (s *CacheService) FlushAll(ctx context.Context) error {
	return s.client.FlushAll(ctx).Err()
}

// Close closes the Redis client connection
func (s *CacheService) Close() error {
	return s.client.Close()
}

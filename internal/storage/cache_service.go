package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/monster-tracker/internal/errors"
	"github.com/monster-tracker/internal/models"
)

// CacheKeyType represents different types of cache keys
type CacheKeyType string

const (
	// CacheKeyMonsters is for a user's monster list
	CacheKeyMonsters CacheKeyType = "monsters"
	// CacheKeyProfile is for a user's profile
	CacheKeyProfile CacheKeyType = "profile"

	cachePrefix = "metamob"
)

// CacheService caches Metamob API responses so repeated refreshes within
// the TTL do not hit the API
type CacheService struct {
	redis *RedisCache
	ttl   time.Duration
}

// NewCacheService creates a new cache service
func NewCacheService(redis *RedisCache, ttl time.Duration) *CacheService {
	return &CacheService{
		redis: redis,
		ttl:   ttl,
	}
}

// GenerateCacheKey generates a cache key for a given type and parameters
// Format: metamob:<type>:<param1>:<param2>:...
func GenerateCacheKey(keyType CacheKeyType, params ...string) string {
	parts := make([]string, 0, len(params)+2)
	parts = append(parts, cachePrefix, string(keyType))
	for _, p := range params {
		parts = append(parts, strings.ToLower(p))
	}
	return strings.Join(parts, ":")
}

// MonstersKey is the key of a user's monster list fetched with the given filter
func MonstersKey(username string, onlyArchi bool) string {
	scope := "all"
	if onlyArchi {
		scope = models.KindArchimonstre
	}
	return GenerateCacheKey(CacheKeyMonsters, username, scope)
}

// ProfileKey is the key of a user's profile
func ProfileKey(username string) string {
	return GenerateCacheKey(CacheKeyProfile, username)
}

// GetMonsters returns the cached monster list of a user
func (c *CacheService) GetMonsters(ctx context.Context, username string, onlyArchi bool) ([]models.ItemRecord, bool, error) {
	var records []models.ItemRecord
	found, err := c.get(ctx, MonstersKey(username, onlyArchi), &records)
	return records, found, err
}

// SetMonsters caches the monster list of a user
func (c *CacheService) SetMonsters(ctx context.Context, username string, onlyArchi bool, records []models.ItemRecord) error {
	return c.set(ctx, MonstersKey(username, onlyArchi), records)
}

// GetProfile returns the cached profile of a user
func (c *CacheService) GetProfile(ctx context.Context, username string) (models.UserProfile, bool, error) {
	var profile models.UserProfile
	found, err := c.get(ctx, ProfileKey(username), &profile)
	return profile, found, err
}

// SetProfile caches the profile of a user
func (c *CacheService) SetProfile(ctx context.Context, username string, profile models.UserProfile) error {
	return c.set(ctx, ProfileKey(username), profile)
}

// InvalidateUser drops every cached response of a user
func (c *CacheService) InvalidateUser(ctx context.Context, username string) error {
	keys := []string{
		MonstersKey(username, true),
		MonstersKey(username, false),
		ProfileKey(username),
	}
	if err := c.redis.Del(ctx, keys...); err != nil {
		return apperrors.NewCacheError("invalidate", err)
	}
	return nil
}

// Flush drops every cached Metamob response
func (c *CacheService) Flush(ctx context.Context) (int, error) {
	keys, err := c.redis.Keys(ctx, cachePrefix+":*")
	if err != nil {
		return 0, apperrors.NewCacheError("scan", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := c.redis.Del(ctx, keys...); err != nil {
		return 0, apperrors.NewCacheError("flush", err)
	}
	return len(keys), nil
}

func (c *CacheService) set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	if err := c.redis.Set(ctx, key, data, c.ttl); err != nil {
		return apperrors.NewCacheError("set", err)
	}
	return nil
}

// get reports a miss as (false, nil)
func (c *CacheService) get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.redis.Get(ctx, key)
	if errors.Is(err, ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.NewCacheError("get", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, apperrors.NewCacheError("decode", err)
	}
	return true, nil
}

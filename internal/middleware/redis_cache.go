package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/soundtrace/engine/internal/cache"
	"github.com/soundtrace/engine/internal/logger"
	"go.uber.org/zap"
)

// CacheManager provides utilities for Redis-based caching of track listings.
// It is a non-authoritative layer: the relational store is always the
// source of truth, cached reads are best-effort.
type CacheManager struct {
	client *cache.RedisClient
}

func NewCacheManager(client *cache.RedisClient) *CacheManager {
	return &CacheManager{client: client}
}

// CacheKey joins prefix and values into one key, separated by ":".
func CacheKey(prefix string, values ...string) string {
	keyStr := prefix
	for _, v := range values {
		keyStr += ":" + v
	}
	return keyStr
}

// GetCached attempts to retrieve a value from cache. Returns (value, found, error).
func (cm *CacheManager) GetCached(ctx context.Context, key string) (string, bool, error) {
	if cm == nil || cm.client == nil {
		return "", false, nil
	}

	val, err := cm.client.Get(ctx, key)
	if err != nil {
		if err.Error() == "redis: nil" {
			return "", false, nil
		}
		logger.Log.Debug("cache retrieval failed", zap.String("key", key), zap.Error(err))
		return "", false, err
	}

	logger.Log.Debug("cache hit", zap.String("key", key))
	return val, true, nil
}

// SetCached stores a value in cache with TTL.
func (cm *CacheManager) SetCached(ctx context.Context, key string, value string, ttl time.Duration) error {
	if cm == nil || cm.client == nil {
		return nil
	}

	if err := cm.client.SetEx(ctx, key, value, ttl); err != nil {
		logger.Log.Debug("cache write failed", zap.String("key", key), zap.Error(err))
		return err
	}

	logger.Log.Debug("cache write successful", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

// InvalidateCache invalidates one or more cache keys.
func (cm *CacheManager) InvalidateCache(ctx context.Context, keys ...string) error {
	if cm == nil || cm.client == nil || len(keys) == 0 {
		return nil
	}

	if err := cm.client.Del(ctx, keys...); err != nil {
		logger.Log.Debug("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
		return err
	}

	logger.Log.Debug("cache invalidation successful", zap.Strings("keys", keys))
	return nil
}

// InvalidateListingCache invalidates the cached track-listing pages. Called
// after any track is created or deleted, since both shift pagination.
func (cm *CacheManager) InvalidateListingCache(ctx context.Context) error {
	if cm == nil || cm.client == nil {
		return nil
	}

	keys, err := cm.client.Keys(ctx, "response:/tracks*")
	if err != nil {
		logger.Log.Debug("failed to find listing cache keys for invalidation", zap.Error(err))
		return err
	}

	if len(keys) > 0 {
		return cm.InvalidateCache(ctx, keys...)
	}
	return nil
}

// HashToken creates a SHA256 hash of a value for safe key storage.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// GetCacheStats returns cache statistics for monitoring.
func (cm *CacheManager) GetCacheStats(ctx context.Context, prefix string) map[string]interface{} {
	if cm == nil || cm.client == nil {
		return map[string]interface{}{"available": false}
	}

	pattern := fmt.Sprintf("%s:*", prefix)
	keys, err := cm.client.Keys(ctx, pattern)

	stats := map[string]interface{}{
		"available": true,
		"prefix":    prefix,
	}

	if err == nil {
		stats["key_count"] = len(keys)
	} else {
		stats["error"] = err.Error()
	}

	return stats
}

package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis键前缀，与认证服务共用
const blacklistKeyPrefix = "jwt:blacklist:"

// 本地缓存最大条目数
const maxLocalCacheSize = 10000

// Blacklist 已注销令牌的查询
type Blacklist interface {
	IsBlacklisted(ctx context.Context, token string) bool
}

// RedisTokenBlacklist Redis令牌黑名单，命中结果在本地缓存到令牌过期
type RedisTokenBlacklist struct {
	redis      *redis.Client
	localCache map[string]time.Time
	mutex      sync.RWMutex
}

// NewRedisTokenBlacklist 创建Redis令牌黑名单
func NewRedisTokenBlacklist(client *redis.Client) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{
		redis:      client,
		localCache: make(map[string]time.Time),
	}
}

// AddToBlacklist 将令牌添加到黑名单，已过期的令牌直接忽略
func (b *RedisTokenBlacklist) AddToBlacklist(ctx context.Context, token string, expireAt time.Time) error {
	duration := time.Until(expireAt)
	if duration <= 0 {
		return nil
	}
	if err := b.redis.Set(ctx, blacklistKeyPrefix+token, "1", duration).Err(); err != nil {
		return fmt.Errorf("添加令牌到黑名单失败: %w", err)
	}
	b.remember(token, expireAt)
	return nil
}

// IsBlacklisted 检查令牌是否在黑名单中，Redis异常时只依赖本地缓存
func (b *RedisTokenBlacklist) IsBlacklisted(ctx context.Context, token string) bool {
	b.mutex.RLock()
	expireAt, exists := b.localCache[token]
	b.mutex.RUnlock()
	if exists {
		if time.Now().Before(expireAt) {
			return true
		}
		b.mutex.Lock()
		delete(b.localCache, token)
		b.mutex.Unlock()
	}

	key := blacklistKeyPrefix + token
	ttl, err := b.redis.TTL(ctx, key).Result()
	if err != nil {
		return false
	}
	// -2表示键不存在
	if ttl == -2 {
		return false
	}
	if ttl > 0 {
		b.remember(token, time.Now().Add(ttl))
	}
	return true
}

func (b *RedisTokenBlacklist) remember(token string, expireAt time.Time) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if len(b.localCache) >= maxLocalCacheSize {
		now := time.Now()
		for t, exp := range b.localCache {
			if now.After(exp) {
				delete(b.localCache, t)
			}
		}
	}
	if len(b.localCache) < maxLocalCacheSize {
		b.localCache[token] = expireAt
	}
}

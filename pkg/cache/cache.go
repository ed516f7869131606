package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss 缓存未命中
var ErrMiss = errors.New("cache miss")

// Cache 缓存接口
type Cache interface {
	// GetJSON 获取JSON格式的缓存并反序列化，未命中时返回 ErrMiss
	GetJSON(ctx context.Context, key string, dest interface{}) error

	// SetJSON 序列化为JSON并设置缓存
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error

	// Delete 删除缓存
	Delete(ctx context.Context, keys ...string) error
}

// 缓存键名
const (
	ActorProjectionKey = "notify:actor:%d" // 通知发起人展示信息
	PostThumbnailKey   = "notify:post:%d"  // 帖子缩略图
)

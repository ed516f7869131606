package service

import (
	"context"
	"time"

	"github.com/nsxzhou1114/notify-api/internal/repository"
)

// DefaultDedupWindow 默认去重窗口
const DefaultDedupWindow = 60 * time.Minute

type dedupStore interface {
	ExistsSince(ctx context.Context, key repository.DedupKey, since time.Time) (bool, error)
}

// DedupPolicy 在窗口内抑制相同(接收者, 触发者, 类型, 帖子)的通知
// 检查和写入不在同一事务中，并发的相同触发可能都会通过
type DedupPolicy struct {
	store  dedupStore
	window time.Duration
}

// NewDedupPolicy 创建去重策略，window<=0时使用默认窗口
func NewDedupPolicy(store dedupStore, window time.Duration) *DedupPolicy {
	if window <= 0 {
		window = DefaultDedupWindow
	}
	return &DedupPolicy{store: store, window: window}
}

// IsDuplicate 窗口从now往前计算
func (p *DedupPolicy) IsDuplicate(ctx context.Context, key repository.DedupKey, now time.Time) (bool, error) {
	return p.store.ExistsSince(ctx, key, now.Add(-p.window))
}

// Window 返回去重窗口
func (p *DedupPolicy) Window() time.Duration {
	return p.window
}

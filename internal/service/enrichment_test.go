package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nsxzhou1114/notify-api/internal/model"
	"github.com/nsxzhou1114/notify-api/pkg/cache"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func TestEnricherUsesProjectionCache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	enricher := NewEnricher(f.content, cache.NewRedisCache(client), time.Minute, zap.NewNop().Sugar())
	notifications := []model.Notification{
		{ID: 2, RecipientID: 2, TriggeredByID: 1, Type: model.NotificationTypeLike, PostID: uintPtr(100), CreatedAt: testNow},
		{ID: 1, RecipientID: 2, TriggeredByID: 1, Type: model.NotificationTypeMention, CreatedAt: testNow},
	}

	first, err := enricher.Enrich(ctx, notifications)
	if err != nil {
		t.Fatalf("Enrich() error: %v", err)
	}
	if len(first) != 2 || first[0].ID != 2 || first[1].ID != 1 {
		t.Fatalf("Enrich() should keep input order, got %+v", first)
	}
	if first[1].Post != nil {
		t.Errorf("notification without post got Post = %+v", first[1].Post)
	}
	if !mr.Exists(fmt.Sprintf(cache.ActorProjectionKey, 1)) || !mr.Exists(fmt.Sprintf(cache.PostThumbnailKey, 100)) {
		t.Fatal("projections should be cached")
	}

	// 删除数据库中的用户后仍能从缓存读取
	if err := f.db.Delete(&model.User{}, 1).Error; err != nil {
		t.Fatalf("删除用户失败: %v", err)
	}
	second, err := enricher.Enrich(ctx, notifications[:1])
	if err != nil {
		t.Fatalf("Enrich() error: %v", err)
	}
	if second[0].TriggeredBy == nil || second[0].TriggeredBy.Username != "alice" {
		t.Errorf("TriggeredBy = %+v, want cached alice", second[0].TriggeredBy)
	}

	// 缓存过期后已删除的用户不再附加展示信息
	mr.FastForward(2 * time.Minute)
	third, err := enricher.Enrich(ctx, notifications[:1])
	if err != nil {
		t.Fatalf("Enrich() error: %v", err)
	}
	if third[0].TriggeredBy != nil {
		t.Errorf("TriggeredBy = %+v, want nil for deleted user", third[0].TriggeredBy)
	}
}

func TestEnricherCacheUnavailable(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	enricher := NewEnricher(f.content, cache.NewRedisCache(client), time.Minute, zap.NewNop().Sugar())
	got, err := enricher.Enrich(context.Background(), []model.Notification{
		{ID: 1, RecipientID: 2, TriggeredByID: 3, Type: model.NotificationTypeLike, CreatedAt: testNow},
	})
	if err != nil {
		t.Fatalf("Enrich() error: %v", err)
	}
	if got[0].TriggeredBy == nil || got[0].TriggeredBy.Username != "carol" {
		t.Errorf("TriggeredBy = %+v, want carol from database", got[0].TriggeredBy)
	}
}

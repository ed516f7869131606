package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/nsxzhou1114/notify-api/internal/model"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取连接池失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(&model.Notification{}, &model.User{}, &model.Post{}); err != nil {
		t.Fatalf("迁移测试表失败: %v", err)
	}
	return db
}

func uintPtr(v uint) *uint { return &v }

var base = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, repo *NotificationRepository, n model.Notification) model.Notification {
	t.Helper()
	if err := repo.Create(context.Background(), &n); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	return n
}

func TestNotificationRepository_ExistsSince(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewNotificationRepository(newTestDB(t))

	seed(t, repo, model.Notification{ID: 1, RecipientID: 2, TriggeredByID: 1, Type: model.NotificationTypeLike, PostID: uintPtr(10), CreatedAt: base})
	seed(t, repo, model.Notification{ID: 2, RecipientID: 2, TriggeredByID: 1, Type: model.NotificationTypeMention, CreatedAt: base})

	tests := []struct {
		name  string
		key   DedupKey
		since time.Time
		want  bool
	}{
		{
			name:  "相同元组在窗口内",
			key:   DedupKey{RecipientID: 2, TriggeredByID: 1, Type: model.NotificationTypeLike, PostID: uintPtr(10)},
			since: base.Add(-time.Hour),
			want:  true,
		},
		{
			name:  "窗口已过",
			key:   DedupKey{RecipientID: 2, TriggeredByID: 1, Type: model.NotificationTypeLike, PostID: uintPtr(10)},
			since: base.Add(time.Second),
			want:  false,
		},
		{
			name:  "不同帖子",
			key:   DedupKey{RecipientID: 2, TriggeredByID: 1, Type: model.NotificationTypeLike, PostID: uintPtr(11)},
			since: base.Add(-time.Hour),
			want:  false,
		},
		{
			name:  "空帖子只匹配空帖子",
			key:   DedupKey{RecipientID: 2, TriggeredByID: 1, Type: model.NotificationTypeMention},
			since: base.Add(-time.Hour),
			want:  true,
		},
		{
			name:  "空帖子不匹配有帖子的记录",
			key:   DedupKey{RecipientID: 2, TriggeredByID: 1, Type: model.NotificationTypeLike},
			since: base.Add(-time.Hour),
			want:  false,
		},
		{
			name:  "不同触发者",
			key:   DedupKey{RecipientID: 2, TriggeredByID: 3, Type: model.NotificationTypeLike, PostID: uintPtr(10)},
			since: base.Add(-time.Hour),
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ExistsSince(ctx, tt.key, tt.since)
			if err != nil {
				t.Fatalf("ExistsSince() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ExistsSince() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNotificationRepository_ListByRecipientOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewNotificationRepository(newTestDB(t))

	// 5和6时间相同，按ID倒序
	seed(t, repo, model.Notification{ID: 4, RecipientID: 2, TriggeredByID: 1, Type: model.NotificationTypeLike, CreatedAt: base.Add(-2 * time.Hour)})
	seed(t, repo, model.Notification{ID: 5, RecipientID: 2, TriggeredByID: 1, Type: model.NotificationTypeLike, CreatedAt: base})
	seed(t, repo, model.Notification{ID: 6, RecipientID: 2, TriggeredByID: 3, Type: model.NotificationTypeLike, CreatedAt: base})
	seed(t, repo, model.Notification{ID: 7, RecipientID: 9, TriggeredByID: 1, Type: model.NotificationTypeLike, CreatedAt: base})

	got, err := repo.ListByRecipient(ctx, 2, 20)
	if err != nil {
		t.Fatalf("ListByRecipient() error: %v", err)
	}
	want := []int64{6, 5, 4}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("got[%d].ID = %d, want %d", i, got[i].ID, id)
		}
	}

	limited, err := repo.ListByRecipient(ctx, 2, 2)
	if err != nil {
		t.Fatalf("ListByRecipient() error: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("len = %d, want 2", len(limited))
	}
}

func TestNotificationRepository_ReadState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewNotificationRepository(newTestDB(t))

	for i := int64(1); i <= 3; i++ {
		seed(t, repo, model.Notification{ID: i, RecipientID: 2, TriggeredByID: 1, Type: model.NotificationTypeLike, CreatedAt: base})
	}
	seed(t, repo, model.Notification{ID: 10, RecipientID: 5, TriggeredByID: 1, Type: model.NotificationTypeLike, CreatedAt: base})

	if err := repo.MarkRead(ctx, 1, base); err != nil {
		t.Fatalf("MarkRead() error: %v", err)
	}
	n, err := repo.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if !n.IsRead || n.ReadAt == nil {
		t.Errorf("IsRead = %v, ReadAt = %v, want read with timestamp", n.IsRead, n.ReadAt)
	}

	unread, err := repo.CountUnread(ctx, 2)
	if err != nil {
		t.Fatalf("CountUnread() error: %v", err)
	}
	if unread != 2 {
		t.Errorf("CountUnread() = %d, want 2", unread)
	}

	updated, err := repo.MarkAllRead(ctx, 2, base)
	if err != nil {
		t.Fatalf("MarkAllRead() error: %v", err)
	}
	if updated != 2 {
		t.Errorf("MarkAllRead() = %d, want 2", updated)
	}
	updated, err = repo.MarkAllRead(ctx, 2, base)
	if err != nil {
		t.Fatalf("MarkAllRead() error: %v", err)
	}
	if updated != 0 {
		t.Errorf("second MarkAllRead() = %d, want 0", updated)
	}

	other, err := repo.CountUnread(ctx, 5)
	if err != nil {
		t.Fatalf("CountUnread() error: %v", err)
	}
	if other != 1 {
		t.Errorf("other user's unread = %d, want 1", other)
	}
}

func TestNotificationRepository_GetByIDNotFound(t *testing.T) {
	t.Parallel()
	repo := NewNotificationRepository(newTestDB(t))

	_, err := repo.GetByID(context.Background(), 404)
	if !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestNotificationRepository_DeleteReadBefore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewNotificationRepository(newTestDB(t))

	seed(t, repo, model.Notification{ID: 1, RecipientID: 2, TriggeredByID: 1, Type: model.NotificationTypeLike, CreatedAt: base})
	seed(t, repo, model.Notification{ID: 2, RecipientID: 2, TriggeredByID: 1, Type: model.NotificationTypeLike, CreatedAt: base})
	seed(t, repo, model.Notification{ID: 3, RecipientID: 2, TriggeredByID: 1, Type: model.NotificationTypeLike, CreatedAt: base})

	if err := repo.MarkRead(ctx, 1, base.Add(-40*24*time.Hour)); err != nil {
		t.Fatalf("MarkRead() error: %v", err)
	}
	if err := repo.MarkRead(ctx, 2, base); err != nil {
		t.Fatalf("MarkRead() error: %v", err)
	}

	deleted, err := repo.DeleteReadBefore(ctx, base.Add(-30*24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteReadBefore() error: %v", err)
	}
	if deleted != 1 {
		t.Errorf("DeleteReadBefore() = %d, want 1", deleted)
	}
	if _, err := repo.GetByID(ctx, 3); err != nil {
		t.Errorf("unread notification should survive cleanup: %v", err)
	}
}

func TestNotificationRepository_Summary(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewNotificationRepository(newTestDB(t))

	seed(t, repo, model.Notification{ID: 1, RecipientID: 2, TriggeredByID: 1, Type: model.NotificationTypeLike, CreatedAt: base})
	seed(t, repo, model.Notification{ID: 2, RecipientID: 2, TriggeredByID: 3, Type: model.NotificationTypeLike, CreatedAt: base, IsRead: true})
	seed(t, repo, model.Notification{ID: 3, RecipientID: 4, TriggeredByID: 1, Type: model.NotificationTypeComment, CreatedAt: base})

	summary, err := repo.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary() error: %v", err)
	}
	if summary.Total != 3 || summary.Unread != 2 {
		t.Errorf("Total/Unread = %d/%d, want 3/2", summary.Total, summary.Unread)
	}
	if summary.ByType[model.NotificationTypeLike] != 2 || summary.ByType[model.NotificationTypeComment] != 1 {
		t.Errorf("ByType = %v", summary.ByType)
	}
}

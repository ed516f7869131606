package service

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/nsxzhou1114/notify-api/internal/model"
	"github.com/nsxzhou1114/notify-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type pushed struct {
	userID  uint
	event   string
	payload interface{}
}

type fakePusher struct {
	mu     sync.Mutex
	events []pushed
}

func (p *fakePusher) Send(userID uint, event string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, pushed{userID: userID, event: event, payload: payload})
}

func (p *fakePusher) sent() []pushed {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]pushed(nil), p.events...)
}

type seqIDs struct {
	next atomic.Int64
}

func (s *seqIDs) NextID() int64 {
	return s.next.Add(1)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fixture 使用内存SQLite的完整服务组合
type fixture struct {
	db            *gorm.DB
	notifications *repository.NotificationRepository
	content       *repository.ContentRepository
	clock         *fakeClock
	pusher        *fakePusher
	dispatcher    *Dispatcher
	query         *QueryService
	readState     *ReadStateManager
}

var testNow = time.Date(2026, 3, 11, 15, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
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

	users := []model.User{
		{Base: model.Base{ID: 1}, Username: "alice", Nickname: "Alice", Avatar: "alice.png"},
		{Base: model.Base{ID: 2}, Username: "bob", Nickname: "Bob", Avatar: "bob.png"},
		{Base: model.Base{ID: 3}, Username: "carol", Nickname: "Carol", Avatar: "carol.png"},
	}
	if err := db.Create(&users).Error; err != nil {
		t.Fatalf("创建测试用户失败: %v", err)
	}
	if err := db.Create(&model.Post{Base: model.Base{ID: 100}, UserID: 2, Image: "post100.jpg"}).Error; err != nil {
		t.Fatalf("创建测试帖子失败: %v", err)
	}

	logger := zap.NewNop().Sugar()
	f := &fixture{
		db:            db,
		notifications: repository.NewNotificationRepository(db),
		content:       repository.NewContentRepository(db),
		clock:         newFakeClock(testNow),
		pusher:        &fakePusher{},
	}
	enricher := NewEnricher(f.content, nil, time.Minute, logger)
	f.dispatcher = NewDispatcher(
		f.notifications,
		NewDedupPolicy(f.notifications, DefaultDedupWindow),
		enricher,
		f.pusher,
		&seqIDs{},
		logger,
		WithDispatcherClock(f.clock.Now),
	)
	f.query = NewQueryService(f.notifications, f.content, enricher, DefaultListLimit, logger)
	f.query.SetClock(f.clock.Now)
	f.readState = NewReadStateManager(f.notifications, logger)
	f.readState.now = f.clock.Now
	return f
}

func (f *fixture) count(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(&model.Notification{}).Count(&n).Error; err != nil {
		t.Fatalf("统计通知失败: %v", err)
	}
	return n
}

// insert 直接写入一条指定时间的通知
func (f *fixture) insert(t *testing.T, n model.Notification) {
	t.Helper()
	if err := f.notifications.Create(context.Background(), &n); err != nil {
		t.Fatalf("写入通知失败: %v", err)
	}
}

func toJSON(t *testing.T, v interface{}) map[string]interface{} {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("序列化失败: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("反序列化失败: %v", err)
	}
	return m
}

func uintPtr(v uint) *uint { return &v }

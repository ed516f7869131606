package service

import (
	"context"
	"time"

	"github.com/nsxzhou1114/notify-api/internal/dto"
	"github.com/nsxzhou1114/notify-api/internal/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultListLimit 列表最多返回的通知数
const DefaultListLimit = 20

type notificationReader interface {
	ListByRecipient(ctx context.Context, recipientID uint, limit int) ([]model.Notification, error)
	CountUnread(ctx context.Context, recipientID uint) (int64, error)
}

// QueryService 通知查询服务
type QueryService struct {
	notifications notificationReader
	content       contentStore
	enricher      *Enricher
	limit         int
	logger        *zap.SugaredLogger
	now           func() time.Time
}

// NewQueryService 创建通知查询服务，limit<=0时使用默认值
func NewQueryService(notifications notificationReader, content contentStore, enricher *Enricher, limit int, logger *zap.SugaredLogger) *QueryService {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return &QueryService{
		notifications: notifications,
		content:       content,
		enricher:      enricher,
		limit:         limit,
		logger:        logger,
		now:           clock,
	}
}

// SetClock 替换时钟
func (s *QueryService) SetClock(now func() time.Time) {
	s.now = now
}

// ListForUser 获取用户最近的通知并按时间分组，未读数统计全部通知
func (s *QueryService) ListForUser(ctx context.Context, userID uint) (*dto.NotificationListResponse, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	var (
		notifications []model.Notification
		unread        int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		notifications, err = s.notifications.ListByRecipient(gctx, userID, s.limit)
		return err
	})
	g.Go(func() error {
		var err error
		unread, err = s.notifications.CountUnread(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, persistenceError(err)
	}

	items, err := s.enricher.Enrich(ctx, notifications)
	if err != nil {
		return nil, persistenceError(err)
	}

	return &dto.NotificationListResponse{
		UnreadCount: unread,
		Groups:      GroupByBucket(items, s.now()),
	}, nil
}

// UnreadCount 获取未读通知数量
func (s *QueryService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	if userID == 0 {
		return 0, ErrUnauthenticated
	}
	count, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return 0, persistenceError(err)
	}
	return count, nil
}

func (s *QueryService) ensureUser(ctx context.Context, userID uint) error {
	if userID == 0 {
		return ErrUnauthenticated
	}
	exists, err := s.content.UserExists(ctx, userID)
	if err != nil {
		return persistenceError(err)
	}
	if !exists {
		return ErrUserNotFound
	}
	return nil
}

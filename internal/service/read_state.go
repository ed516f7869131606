package service

import (
	"context"
	"errors"
	"time"

	"github.com/nsxzhou1114/notify-api/internal/model"
	"github.com/nsxzhou1114/notify-api/internal/repository"
	"go.uber.org/zap"
)

type readStateStore interface {
	GetByID(ctx context.Context, id int64) (*model.Notification, error)
	MarkRead(ctx context.Context, id int64, at time.Time) error
	MarkAllRead(ctx context.Context, recipientID uint, at time.Time) (int64, error)
}

// ReadStateManager 已读状态管理，只有接收者可以修改
type ReadStateManager struct {
	store  readStateStore
	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewReadStateManager 创建已读状态管理
func NewReadStateManager(store readStateStore, logger *zap.SugaredLogger) *ReadStateManager {
	return &ReadStateManager{
		store:  store,
		logger: logger,
		now:    clock,
	}
}

// MarkAsRead 标记单条通知为已读，重复标记直接成功
func (m *ReadStateManager) MarkAsRead(ctx context.Context, notificationID int64, userID uint) error {
	if userID == 0 {
		return ErrUnauthenticated
	}
	n, err := m.store.GetByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return persistenceError(err)
	}
	if n.RecipientID != userID {
		m.logger.Warnf("用户%d尝试修改不属于自己的通知%d", userID, notificationID)
		return ErrForbidden
	}
	if n.IsRead {
		return nil
	}
	if err := m.store.MarkRead(ctx, notificationID, m.now()); err != nil {
		return persistenceError(err)
	}
	return nil
}

// MarkAllAsRead 标记用户全部未读通知为已读，返回实际更新数量
func (m *ReadStateManager) MarkAllAsRead(ctx context.Context, userID uint) (int64, error) {
	if userID == 0 {
		return 0, ErrUnauthenticated
	}
	updated, err := m.store.MarkAllRead(ctx, userID, m.now())
	if err != nil {
		return 0, persistenceError(err)
	}
	if updated > 0 {
		m.logger.Infof("用户%d标记%d条通知为已读", userID, updated)
	}
	return updated, nil
}

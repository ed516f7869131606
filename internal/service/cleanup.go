package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type cleanupStore interface {
	DeleteReadBefore(ctx context.Context, before time.Time) (int64, error)
}

// CleanupService 定期清理过期的已读通知
type CleanupService struct {
	store         cleanupStore
	retentionDays int
	logger        *zap.SugaredLogger
	now           func() time.Time
	cron          *cron.Cron
}

// NewCleanupService 创建清理服务
func NewCleanupService(store cleanupStore, retentionDays int, logger *zap.SugaredLogger) *CleanupService {
	return &CleanupService{
		store:         store,
		retentionDays: retentionDays,
		logger:        logger,
		now:           clock,
	}
}

// CleanupReadNotifications 删除days天前已读的通知，未读通知不会被删除
func (s *CleanupService) CleanupReadNotifications(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("%w: 保留天数必须大于0", ErrInvalidInput)
	}
	before := s.now().AddDate(0, 0, -days)
	deleted, err := s.store.DeleteReadBefore(ctx, before)
	if err != nil {
		return 0, persistenceError(err)
	}
	s.logger.Infof("清理已读通知完成: 删除%d条, 截止时间: %s", deleted, before.Format(time.DateTime))
	return deleted, nil
}

// Start 按cron表达式（含秒）启动定时清理
func (s *CleanupService) Start(schedule string) error {
	c := cron.New(cron.WithSeconds())
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := s.CleanupReadNotifications(ctx, s.retentionDays); err != nil {
			s.logger.Errorf("定时清理已读通知失败: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("添加定时任务失败: %w", err)
	}
	c.Start()
	s.cron = c
	s.logger.Infof("定时清理任务已启动: %s", schedule)
	return nil
}

// Stop 停止定时任务并等待正在执行的任务结束
func (s *CleanupService) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

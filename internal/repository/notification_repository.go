package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nsxzhou1114/notify-api/internal/model"
	"gorm.io/gorm"
)

// ErrRecordNotFound 记录不存在
var ErrRecordNotFound = errors.New("记录不存在")

// DedupKey 去重查询条件
type DedupKey struct {
	RecipientID   uint
	TriggeredByID uint
	Type          model.NotificationType
	PostID        *uint
}

// NotificationRepository 通知记录存储
type NotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建通知记录存储
func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create 保存一条新通知
func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("创建通知记录失败: %w", err)
	}
	return nil
}

// ExistsSince 是否存在since之后创建的相同通知
// PostID为空时只匹配post_id为NULL的记录
func (r *NotificationRepository) ExistsSince(ctx context.Context, key DedupKey, since time.Time) (bool, error) {
	query := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("recipient_id = ? AND triggered_by_id = ? AND type = ? AND created_at >= ?",
			key.RecipientID, key.TriggeredByID, key.Type, since)
	if key.PostID != nil {
		query = query.Where("post_id = ?", *key.PostID)
	} else {
		query = query.Where("post_id IS NULL")
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("检查重复通知失败: %w", err)
	}
	return count > 0, nil
}

// ListByRecipient 按创建时间倒序获取用户最近的通知
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID uint, limit int) ([]model.Notification, error) {
	var notifications []model.Notification
	err := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("查询通知列表失败: %w", err)
	}
	return notifications, nil
}

// CountUnread 统计用户全部未读通知
func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("统计未读通知失败: %w", err)
	}
	return count, nil
}

// GetByID 根据ID获取通知
func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*model.Notification, error) {
	var n model.Notification
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("查询通知失败: %w", err)
	}
	return &n, nil
}

// MarkRead 标记单条通知为已读，已读的记录保持不变
func (r *NotificationRepository) MarkRead(ctx context.Context, id int64, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND is_read = ?", id, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": at,
		}).Error
	if err != nil {
		return fmt.Errorf("标记通知已读失败: %w", err)
	}
	return nil
}

// MarkAllRead 标记用户全部未读通知为已读，返回实际更新的条数
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID uint, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": at,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("标记全部通知已读失败: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteReadBefore 删除指定时间之前已读的通知
func (r *NotificationRepository) DeleteReadBefore(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("is_read = ? AND read_at < ?", true, before).
		Delete(&model.Notification{})
	if result.Error != nil {
		return 0, fmt.Errorf("清理已读通知失败: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Summary 通知总体统计
type Summary struct {
	Total  int64
	Unread int64
	ByType map[model.NotificationType]int64
}

// Summary 统计通知总数、未读数和各类型数量
func (r *NotificationRepository) Summary(ctx context.Context) (*Summary, error) {
	summary := &Summary{ByType: make(map[model.NotificationType]int64)}
	if err := r.db.WithContext(ctx).Model(&model.Notification{}).Count(&summary.Total).Error; err != nil {
		return nil, fmt.Errorf("统计通知总数失败: %w", err)
	}
	if err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("is_read = ?", false).Count(&summary.Unread).Error; err != nil {
		return nil, fmt.Errorf("统计未读通知失败: %w", err)
	}

	var rows []struct {
		Type  model.NotificationType
		Count int64
	}
	if err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Select("type, COUNT(*) AS count").Group("type").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("按类型统计通知失败: %w", err)
	}
	for _, row := range rows {
		summary.ByType[row.Type] = row.Count
	}
	return summary, nil
}

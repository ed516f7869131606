package model

import (
	"sync"
	"time"
)

// NotificationType 通知类型
type NotificationType string

const (
	NotificationTypeLike    NotificationType = "like"
	NotificationTypeComment NotificationType = "comment"
	NotificationTypeMention NotificationType = "mention"
)

var (
	notificationTypes = map[NotificationType]struct{}{
		NotificationTypeLike:    {},
		NotificationTypeComment: {},
		NotificationTypeMention: {},
	}
	notificationTypesMu sync.RWMutex
)

// RegisterNotificationType 注册新的通知类型，可与Valid并发调用
func RegisterNotificationType(t NotificationType) {
	notificationTypesMu.Lock()
	defer notificationTypesMu.Unlock()
	notificationTypes[t] = struct{}{}
}

// Valid 是否为已注册的通知类型
func (t NotificationType) Valid() bool {
	notificationTypesMu.RLock()
	defer notificationTypesMu.RUnlock()
	_, ok := notificationTypes[t]
	return ok
}

// Notification 通知模型
// 创建后只有已读状态可以变更
type Notification struct {
	ID            int64            `gorm:"primaryKey;autoIncrement:false" json:"id,string"`
	RecipientID   uint             `gorm:"not null;index:idx_notification_recipient_created,priority:1;index:idx_notification_dedup,priority:1" json:"recipient_id"`
	TriggeredByID uint             `gorm:"not null;index:idx_notification_dedup,priority:2" json:"triggered_by_id"`
	Type          NotificationType `gorm:"type:varchar(20);not null;index:idx_notification_dedup,priority:3" json:"type"`
	PostID        *uint            `gorm:"index:idx_notification_dedup,priority:4" json:"post_id,omitempty"`
	CommentID     *uint            `json:"comment_id,omitempty"`
	Message       string           `gorm:"type:text" json:"message,omitempty"`
	IsRead        bool             `gorm:"not null;default:false;index" json:"read"`
	ReadAt        *time.Time       `json:"read_at,omitempty"`
	CreatedAt     time.Time        `gorm:"not null;index:idx_notification_recipient_created,priority:2" json:"created_at"`
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notifications"
}

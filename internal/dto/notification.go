package dto

import "time"

// NotificationActor 触发者展示信息
type NotificationActor struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

// NotificationPost 帖子展示信息
type NotificationPost struct {
	ID    uint   `json:"id"`
	Image string `json:"image"`
}

// NotificationResponse 通知响应，推送和列表共用
type NotificationResponse struct {
	ID            int64              `json:"id,string"`
	RecipientID   uint               `json:"recipientId"`
	TriggeredByID uint               `json:"triggeredById"`
	Type          string             `json:"type"`
	PostID        *uint              `json:"postId,omitempty"`
	CommentID     *uint              `json:"commentId,omitempty"`
	Message       string             `json:"message,omitempty"`
	Read          bool               `json:"read"`
	CreatedAt     time.Time          `json:"createdAt"`
	TriggeredBy   *NotificationActor `json:"triggeredBy,omitempty"`
	Post          *NotificationPost  `json:"post,omitempty"`
}

// NotificationListResponse 通知列表响应
type NotificationListResponse struct {
	UnreadCount int64                             `json:"unreadCount"`
	Groups      map[string][]NotificationResponse `json:"groups"`
}

// CreateNotificationRequest 内容服务触发通知的请求体
type CreateNotificationRequest struct {
	RecipientID   uint   `json:"recipientId" binding:"required" validate:"required"`
	TriggeredByID uint   `json:"triggeredById" binding:"required" validate:"required"`
	Type          string `json:"type" binding:"required" validate:"required"`
	PostID        *uint  `json:"postId,omitempty"`
	CommentID     *uint  `json:"commentId,omitempty"`
	Message       string `json:"message,omitempty" binding:"max=1000" validate:"max=1000"`
}

// CreateNotificationResponse 触发结果，被抑制时只返回created=false
type CreateNotificationResponse struct {
	Created      bool                  `json:"created"`
	Notification *NotificationResponse `json:"notification,omitempty"`
}

// NotificationUnreadCountResponse 未读通知数量响应
type NotificationUnreadCountResponse struct {
	Count int64 `json:"count"`
}

// MarkAllReadResponse 全部已读响应
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

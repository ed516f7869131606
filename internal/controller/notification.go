package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/notify-api/internal/dto"
	"github.com/nsxzhou1114/notify-api/internal/model"
	"github.com/nsxzhou1114/notify-api/internal/service"
	"github.com/nsxzhou1114/notify-api/pkg/response"
	"go.uber.org/zap"
)

// NotificationCreator 创建通知
type NotificationCreator interface {
	Create(ctx context.Context, req service.CreateRequest) (*dto.NotificationResponse, error)
}

// NotificationApi 通知API控制器
type NotificationApi struct {
	logger     *zap.SugaredLogger
	dispatcher NotificationCreator
	query      *service.QueryService
	readState  *service.ReadStateManager
}

// NewNotificationApi 创建通知API实例
func NewNotificationApi(dispatcher NotificationCreator, query *service.QueryService, readState *service.ReadStateManager, logger *zap.SugaredLogger) *NotificationApi {
	return &NotificationApi{
		logger:     logger,
		dispatcher: dispatcher,
		query:      query,
		readState:  readState,
	}
}

// GetNotifications 获取用户通知，按时间分组
func (api *NotificationApi) GetNotifications(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "需要登录", err)
		return
	}

	result, err := api.query.ListForUser(c.Request.Context(), userID)
	if err != nil {
		api.writeError(c, "获取通知失败", err)
		return
	}
	response.Success(c, "获取成功", result)
}

// GetUnreadCount 获取未读通知数量
func (api *NotificationApi) GetUnreadCount(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "需要登录", err)
		return
	}

	count, err := api.query.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		api.writeError(c, "获取未读数量失败", err)
		return
	}
	response.Success(c, "获取成功", dto.NotificationUnreadCountResponse{Count: count})
}

// MarkAsRead 标记通知为已读
func (api *NotificationApi) MarkAsRead(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "需要登录", err)
		return
	}

	notificationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || notificationID <= 0 {
		response.BadRequest(c, "无效的通知ID", err)
		return
	}

	if err := api.readState.MarkAsRead(c.Request.Context(), notificationID, userID); err != nil {
		api.writeError(c, "标记已读失败", err)
		return
	}
	response.Success(c, "标记已读成功", nil)
}

// MarkAllAsRead 标记所有通知为已读
func (api *NotificationApi) MarkAllAsRead(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "需要登录", err)
		return
	}

	updated, err := api.readState.MarkAllAsRead(c.Request.Context(), userID)
	if err != nil {
		api.writeError(c, "标记所有已读失败", err)
		return
	}
	response.Success(c, "标记所有已读成功", dto.MarkAllReadResponse{Updated: updated})
}

// CreateNotification 内容服务触发通知
func (api *NotificationApi) CreateNotification(c *gin.Context) {
	var req dto.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误", err)
		return
	}

	created, err := api.dispatcher.Create(c.Request.Context(), service.CreateRequest{
		RecipientID:   req.RecipientID,
		TriggeredByID: req.TriggeredByID,
		Type:          model.NotificationType(req.Type),
		PostID:        req.PostID,
		CommentID:     req.CommentID,
		Message:       req.Message,
	})
	if err != nil {
		api.writeError(c, "创建通知失败", err)
		return
	}
	if created == nil {
		response.Success(c, "通知已被抑制", dto.CreateNotificationResponse{Created: false})
		return
	}
	response.Created(c, "创建成功", dto.CreateNotificationResponse{Created: true, Notification: created})
}

// writeError 将服务层错误映射为HTTP状态码
func (api *NotificationApi) writeError(c *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		response.Unauthorized(c, "需要登录", err)
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, "用户不存在", err)
	case errors.Is(err, service.ErrNotificationNotFound):
		response.NotFound(c, "通知不存在", err)
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, "无权操作该通知", err)
	case errors.Is(err, service.ErrInvalidInput):
		response.BadRequest(c, err.Error(), err)
	default:
		api.logger.Errorf("%s: %v", message, err)
		response.Error(c, http.StatusInternalServerError, message, err)
	}
}

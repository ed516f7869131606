package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/nsxzhou1114/notify-api/internal/dto"
	"github.com/nsxzhou1114/notify-api/internal/metrics"
	"github.com/nsxzhou1114/notify-api/internal/model"
	"github.com/nsxzhou1114/notify-api/internal/repository"
	"github.com/nsxzhou1114/notify-api/pkg/websocket"
	"go.uber.org/zap"
)

// 通知消息的最大长度（字符）
const maxMessageRunes = 200

// Pusher 向在线用户推送事件，用户不在线时静默忽略
type Pusher interface {
	Send(userID uint, event string, payload interface{})
}

// IDGenerator 生成通知ID
type IDGenerator interface {
	NextID() int64
}

type notificationWriter interface {
	dedupStore
	Create(ctx context.Context, n *model.Notification) error
}

// CreateRequest 创建通知请求
type CreateRequest struct {
	RecipientID   uint
	TriggeredByID uint
	Type          model.NotificationType
	PostID        *uint
	CommentID     *uint
	Message       string
}

func (r *CreateRequest) validate() error {
	switch {
	case r.RecipientID == 0:
		return fmt.Errorf("%w: 缺少接收者", ErrInvalidInput)
	case r.TriggeredByID == 0:
		return fmt.Errorf("%w: 缺少触发者", ErrInvalidInput)
	case r.Type == "":
		return fmt.Errorf("%w: 缺少通知类型", ErrInvalidInput)
	case !r.Type.Valid():
		return fmt.Errorf("%w: 未知的通知类型 %q", ErrInvalidInput, r.Type)
	}
	return nil
}

// Dispatcher 通知分发：自我抑制、去重、持久化、解析展示信息、推送
type Dispatcher struct {
	store     notificationWriter
	dedup     *DedupPolicy
	enricher  *Enricher
	pusher    Pusher
	ids       IDGenerator
	sanitizer *bluemonday.Policy
	logger    *zap.SugaredLogger
	now       func() time.Time
}

// DispatcherOption 分发器选项
type DispatcherOption func(*Dispatcher)

// WithDispatcherClock 替换时钟
func WithDispatcherClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// NewDispatcher 创建通知分发器
func NewDispatcher(store notificationWriter, dedup *DedupPolicy, enricher *Enricher, pusher Pusher, ids IDGenerator, logger *zap.SugaredLogger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		store:     store,
		dedup:     dedup,
		enricher:  enricher,
		pusher:    pusher,
		ids:       ids,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger,
		now:       clock,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Create 创建并推送通知
// 被自我抑制或去重抑制时返回(nil, nil)
func (d *Dispatcher) Create(ctx context.Context, req CreateRequest) (*dto.NotificationResponse, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	// 自己的操作不通知自己
	if req.RecipientID == req.TriggeredByID {
		metrics.NotificationsSuppressed.WithLabelValues("self").Inc()
		return nil, nil
	}

	now := d.now()
	key := repository.DedupKey{
		RecipientID:   req.RecipientID,
		TriggeredByID: req.TriggeredByID,
		Type:          req.Type,
		PostID:        req.PostID,
	}
	duplicate, err := d.dedup.IsDuplicate(ctx, key, now)
	if err != nil {
		metrics.DispatchFailures.Inc()
		return nil, persistenceError(err)
	}
	if duplicate {
		metrics.NotificationsSuppressed.WithLabelValues("dedup").Inc()
		d.logger.Debugf("重复通知已抑制: 用户%d -> 用户%d, 类型: %s", req.TriggeredByID, req.RecipientID, req.Type)
		return nil, nil
	}

	notification := &model.Notification{
		ID:            d.ids.NextID(),
		RecipientID:   req.RecipientID,
		TriggeredByID: req.TriggeredByID,
		Type:          req.Type,
		PostID:        req.PostID,
		CommentID:     req.CommentID,
		Message:       d.cleanMessage(req.Message),
		IsRead:        false,
		CreatedAt:     now,
	}
	if err := d.store.Create(ctx, notification); err != nil {
		metrics.DispatchFailures.Inc()
		return nil, persistenceError(err)
	}
	metrics.NotificationsCreated.WithLabelValues(string(req.Type)).Inc()

	resp := ToResponse(notification)
	enriched, err := d.enricher.Enrich(ctx, []model.Notification{*notification})
	if err != nil {
		d.logger.Warnf("加载通知展示信息失败: id=%d, err=%v", notification.ID, err)
	} else if len(enriched) == 1 {
		resp = enriched[0]
	}

	d.pusher.Send(req.RecipientID, websocket.EventNotification, resp)

	d.logger.Infof("通知创建成功: 用户%d -> 用户%d, 类型: %s", req.TriggeredByID, req.RecipientID, req.Type)
	return &resp, nil
}

// cleanMessage 去掉HTML并截断
func (d *Dispatcher) cleanMessage(message string) string {
	message = strings.TrimSpace(d.sanitizer.Sanitize(message))
	runes := []rune(message)
	if len(runes) > maxMessageRunes {
		return string(runes[:maxMessageRunes])
	}
	return message
}

package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nsxzhou1114/notify-api/internal/config"
	"github.com/nsxzhou1114/notify-api/internal/dto"
	"github.com/nsxzhou1114/notify-api/internal/model"
	"github.com/nsxzhou1114/notify-api/internal/service"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ErrMalformedTrigger 无法解析或校验失败的触发事件，不会重试
var ErrMalformedTrigger = errors.New("无效的通知触发事件")

// Creator 创建通知
type Creator interface {
	Create(ctx context.Context, req service.CreateRequest) (*dto.NotificationResponse, error)
}

// TriggerHandler 处理内容服务发出的通知触发事件
type TriggerHandler struct {
	creator  Creator
	validate *validator.Validate
	logger   *zap.SugaredLogger
}

// NewTriggerHandler 创建触发事件处理器
func NewTriggerHandler(creator Creator, logger *zap.SugaredLogger) *TriggerHandler {
	return &TriggerHandler{
		creator:  creator,
		validate: validator.New(),
		logger:   logger,
	}
}

// HandleMessage 解析并创建通知，被抑制的触发不算错误
func (h *TriggerHandler) HandleMessage(ctx context.Context, value []byte) error {
	var req dto.CreateNotificationRequest
	if err := json.Unmarshal(value, &req); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedTrigger, err)
	}
	if err := h.validate.Struct(&req); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedTrigger, err)
	}

	created, err := h.creator.Create(ctx, service.CreateRequest{
		RecipientID:   req.RecipientID,
		TriggeredByID: req.TriggeredByID,
		Type:          model.NotificationType(req.Type),
		PostID:        req.PostID,
		CommentID:     req.CommentID,
		Message:       req.Message,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return fmt.Errorf("%w: %v", ErrMalformedTrigger, err)
		}
		return err
	}
	if created == nil {
		h.logger.Debugf("触发事件被抑制: 用户%d -> 用户%d, 类型: %s", req.TriggeredByID, req.RecipientID, req.Type)
	}
	return nil
}

// Consumer 从Kafka读取通知触发事件
type Consumer struct {
	reader  *kafka.Reader
	handler *TriggerHandler
	logger  *zap.SugaredLogger
}

// NewConsumer 创建Kafka消费者
func NewConsumer(cfg *config.KafkaConfig, handler *TriggerHandler, logger *zap.SugaredLogger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        cfg.Brokers,
			GroupID:        cfg.GroupID,
			Topic:          cfg.Topic,
			MinBytes:       1,
			MaxBytes:       10 << 20,
			CommitInterval: time.Second,
		}),
		handler: handler,
		logger:  logger,
	}
}

// Run 阻塞消费直到ctx取消
// 通知是尽力而为的，处理失败只记录日志并提交偏移量
func (c *Consumer) Run(ctx context.Context) error {
	defer func() {
		if err := c.reader.Close(); err != nil {
			c.logger.Warnf("关闭Kafka消费者失败: %v", err)
		}
	}()

	cfg := c.reader.Config()
	c.logger.Infof("Kafka消费者已启动: group=%s, topic=%s, brokers=%v", cfg.GroupID, cfg.Topic, cfg.Brokers)

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("Kafka消费者正在退出")
				return nil
			}
			c.logger.Errorf("读取Kafka消息失败: %v", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		if err := c.handler.HandleMessage(ctx, m.Value); err != nil {
			if errors.Is(err, ErrMalformedTrigger) {
				c.logger.Warnf("丢弃无效的触发事件: offset=%d, err=%v", m.Offset, err)
			} else {
				c.logger.Errorf("处理触发事件失败: offset=%d, err=%v", m.Offset, err)
			}
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.Errorf("提交Kafka偏移量失败: %v", err)
		}
	}
}

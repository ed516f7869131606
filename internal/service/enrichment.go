package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nsxzhou1114/notify-api/internal/dto"
	"github.com/nsxzhou1114/notify-api/internal/model"
	"github.com/nsxzhou1114/notify-api/pkg/cache"
	"go.uber.org/zap"
)

type contentStore interface {
	UserExists(ctx context.Context, userID uint) (bool, error)
	FindUsers(ctx context.Context, ids []uint) ([]model.User, error)
	FindPosts(ctx context.Context, ids []uint) ([]model.Post, error)
}

// Enricher 为通知附加触发者和帖子的展示信息，推送和列表共用
type Enricher struct {
	content contentStore
	cache   cache.Cache
	ttl     time.Duration
	logger  *zap.SugaredLogger
}

// NewEnricher 创建展示信息解析器，c为nil时不使用缓存
func NewEnricher(content contentStore, c cache.Cache, ttl time.Duration, logger *zap.SugaredLogger) *Enricher {
	return &Enricher{
		content: content,
		cache:   c,
		ttl:     ttl,
		logger:  logger,
	}
}

// ToResponse 不带展示信息的通知响应
func ToResponse(n *model.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:            n.ID,
		RecipientID:   n.RecipientID,
		TriggeredByID: n.TriggeredByID,
		Type:          string(n.Type),
		PostID:        n.PostID,
		CommentID:     n.CommentID,
		Message:       n.Message,
		Read:          n.IsRead,
		CreatedAt:     n.CreatedAt,
	}
}

// Enrich 批量解析展示信息，保持输入顺序
// 已被删除的用户或帖子不附加展示信息
func (e *Enricher) Enrich(ctx context.Context, notifications []model.Notification) ([]dto.NotificationResponse, error) {
	actorIDs := make([]uint, 0, len(notifications))
	postIDs := make([]uint, 0, len(notifications))
	seenActor := make(map[uint]struct{})
	seenPost := make(map[uint]struct{})
	for i := range notifications {
		n := &notifications[i]
		if _, ok := seenActor[n.TriggeredByID]; !ok {
			seenActor[n.TriggeredByID] = struct{}{}
			actorIDs = append(actorIDs, n.TriggeredByID)
		}
		if n.PostID != nil {
			if _, ok := seenPost[*n.PostID]; !ok {
				seenPost[*n.PostID] = struct{}{}
				postIDs = append(postIDs, *n.PostID)
			}
		}
	}

	actors, err := e.actors(ctx, actorIDs)
	if err != nil {
		return nil, err
	}
	posts, err := e.posts(ctx, postIDs)
	if err != nil {
		return nil, err
	}

	result := make([]dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		n := &notifications[i]
		resp := ToResponse(n)
		if actor, ok := actors[n.TriggeredByID]; ok {
			resp.TriggeredBy = actor
		}
		if n.PostID != nil {
			if post, ok := posts[*n.PostID]; ok {
				resp.Post = post
			}
		}
		result = append(result, resp)
	}
	return result, nil
}

func (e *Enricher) actors(ctx context.Context, ids []uint) (map[uint]*dto.NotificationActor, error) {
	result := make(map[uint]*dto.NotificationActor, len(ids))
	missing := make([]uint, 0, len(ids))
	for _, id := range ids {
		var actor dto.NotificationActor
		if e.fromCache(ctx, fmt.Sprintf(cache.ActorProjectionKey, id), &actor) {
			result[id] = &actor
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return result, nil
	}

	users, err := e.content.FindUsers(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		actor := &dto.NotificationActor{
			ID:       u.ID,
			Username: u.Username,
			Nickname: u.Nickname,
			Avatar:   u.Avatar,
		}
		result[u.ID] = actor
		e.toCache(ctx, fmt.Sprintf(cache.ActorProjectionKey, u.ID), actor)
	}
	return result, nil
}

func (e *Enricher) posts(ctx context.Context, ids []uint) (map[uint]*dto.NotificationPost, error) {
	result := make(map[uint]*dto.NotificationPost, len(ids))
	missing := make([]uint, 0, len(ids))
	for _, id := range ids {
		var post dto.NotificationPost
		if e.fromCache(ctx, fmt.Sprintf(cache.PostThumbnailKey, id), &post) {
			result[id] = &post
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return result, nil
	}

	posts, err := e.content.FindPosts(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		post := &dto.NotificationPost{ID: p.ID, Image: p.Image}
		result[p.ID] = post
		e.toCache(ctx, fmt.Sprintf(cache.PostThumbnailKey, p.ID), post)
	}
	return result, nil
}

// 缓存故障只降级为直接查库
func (e *Enricher) fromCache(ctx context.Context, key string, dest interface{}) bool {
	if e.cache == nil {
		return false
	}
	err := e.cache.GetJSON(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrMiss) {
		e.logger.Warnf("读取展示信息缓存失败: key=%s, err=%v", key, err)
	}
	return false
}

func (e *Enricher) toCache(ctx context.Context, key string, value interface{}) {
	if e.cache == nil {
		return
	}
	if err := e.cache.SetJSON(ctx, key, value, e.ttl); err != nil {
		e.logger.Warnf("写入展示信息缓存失败: key=%s, err=%v", key, err)
	}
}

package repository

import (
	"context"
	"fmt"

	"github.com/nsxzhou1114/notify-api/internal/model"
	"gorm.io/gorm"
)

// ContentRepository 内容服务的只读视图（用户、帖子）
type ContentRepository struct {
	db *gorm.DB
}

// NewContentRepository 创建内容只读存储
func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// UserExists 用户是否存在
func (r *ContentRepository) UserExists(ctx context.Context, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("查询用户失败: %w", err)
	}
	return count > 0, nil
}

// FindUsers 批量获取用户展示信息
func (r *ContentRepository) FindUsers(ctx context.Context, ids []uint) ([]model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []model.User
	err := r.db.WithContext(ctx).
		Select("id", "username", "nickname", "avatar").
		Where("id IN ?", ids).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("批量查询用户失败: %w", err)
	}
	return users, nil
}

// FindPosts 批量获取帖子展示信息
func (r *ContentRepository) FindPosts(ctx context.Context, ids []uint) ([]model.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var posts []model.Post
	err := r.db.WithContext(ctx).
		Select("id", "user_id", "image").
		Where("id IN ?", ids).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("批量查询帖子失败: %w", err)
	}
	return posts, nil
}

package model

// Post 内容服务中的帖子，通知只关心作者和缩略图
type Post struct {
	Base
	UserID uint   `gorm:"not null;index" json:"user_id"`
	Image  string `gorm:"type:varchar(255)" json:"image"`
}

// TableName 指定表名
func (Post) TableName() string {
	return "posts"
}

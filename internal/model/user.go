package model

// User 内容服务中的用户，这里只读取通知展示所需的字段
type User struct {
	Base
	Username string `gorm:"type:varchar(50);not null;uniqueIndex" json:"username"`
	Nickname string `gorm:"type:varchar(50)" json:"nickname"`
	Avatar   string `gorm:"type:varchar(255)" json:"avatar"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

package service

import (
	"time"

	"github.com/nsxzhou1114/notify-api/internal/dto"
)

// 时间分组标签
const (
	BucketToday     = "Today"
	BucketYesterday = "Yesterday"
	BucketThisWeek  = "This Week"
	BucketEarlier   = "Earlier"
)

// BucketOf 返回通知所属的时间分组，按日历日比较，日期以now所在时区为准
// 本周按距今不足7*24小时计算
func BucketOf(createdAt, now time.Time) string {
	loc := now.Location()
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)
	yesterday := today.AddDate(0, 0, -1)

	t := createdAt.In(loc)
	switch {
	case !t.Before(today):
		return BucketToday
	case !t.Before(yesterday):
		return BucketYesterday
	case now.Sub(createdAt) < 7*24*time.Hour:
		return BucketThisWeek
	default:
		return BucketEarlier
	}
}

// GroupByBucket 分组并保持输入顺序，只返回非空分组
func GroupByBucket(items []dto.NotificationResponse, now time.Time) map[string][]dto.NotificationResponse {
	groups := make(map[string][]dto.NotificationResponse)
	for _, item := range items {
		label := BucketOf(item.CreatedAt, now)
		groups[label] = append(groups[label], item)
	}
	return groups
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NotificationsCreated 已持久化的通知数
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notify",
		Name:      "notifications_created_total",
		Help:      "已创建的通知数量",
	}, []string{"type"})

	// NotificationsSuppressed 被抑制的通知数，reason为self或dedup
	NotificationsSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notify",
		Name:      "notifications_suppressed_total",
		Help:      "被自我抑制或去重抑制的通知数量",
	}, []string{"reason"})

	// DispatchFailures 创建通知失败次数
	DispatchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "notify",
		Name:      "dispatch_failures_total",
		Help:      "创建通知失败次数",
	})
)

// ConnectionStats 连接注册表统计
type ConnectionStats struct {
	Online  int
	Sent    int64
	Dropped int64
}

// RegisterConnectionStats 注册在线连接相关指标，stats在每次抓取时调用
func RegisterConnectionStats(reg prometheus.Registerer, stats func() ConnectionStats) error {
	collectors := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "notify",
			Name:      "ws_online_connections",
			Help:      "当前在线的websocket连接数",
		}, func() float64 { return float64(stats().Online) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "notify",
			Name:      "ws_messages_sent_total",
			Help:      "已投递到连接缓冲区的消息数",
		}, func() float64 { return float64(stats().Sent) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "notify",
			Name:      "ws_messages_dropped_total",
			Help:      "因缓冲区已满被丢弃的消息数",
		}, func() float64 { return float64(stats().Dropped) }),
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

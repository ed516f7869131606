package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/notify-api/internal/controller"
	"github.com/nsxzhou1114/notify-api/internal/middleware"
	"github.com/nsxzhou1114/notify-api/pkg/auth"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps 路由依赖
type Deps struct {
	JWT             *auth.JWTManager
	Blacklist       auth.Blacklist
	InternalToken   string
	NotificationApi *controller.NotificationApi
	WebSocketApi    *controller.WebSocketApi
}

// Setup 设置路由
func Setup(r *gin.Engine, deps Deps) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// websocket握手，令牌放在查询参数中
	r.GET("/ws/notifications", middleware.QueryTokenAuth(deps.JWT, deps.Blacklist), deps.WebSocketApi.HandleWebSocket)

	api := r.Group("/api")

	setupNotificationRoutes(api, deps)

	setupInternalRoutes(api, deps)
}

// setupNotificationRoutes 设置通知相关路由
func setupNotificationRoutes(api *gin.RouterGroup, deps Deps) {
	notificationApi := deps.NotificationApi

	notificationRoutes := api.Group("/notifications")
	notificationRoutes.Use(middleware.JWTAuth(deps.JWT, deps.Blacklist))
	{
		// 分组后的通知列表
		notificationRoutes.GET("", notificationApi.GetNotifications)
		// 未读数量
		notificationRoutes.GET("/unread-count", notificationApi.GetUnreadCount)
		// 全部标记已读
		notificationRoutes.PATCH("/read-all", notificationApi.MarkAllAsRead)
		// 标记单条已读
		notificationRoutes.PATCH("/:id/read", notificationApi.MarkAsRead)
		// 在线连接统计
		notificationRoutes.GET("/ws-stats", middleware.AdminAuth(), deps.WebSocketApi.GetWebSocketStats)
	}
}

// setupInternalRoutes 内容服务调用的内部路由
func setupInternalRoutes(api *gin.RouterGroup, deps Deps) {
	internal := api.Group("/internal")
	internal.Use(middleware.InternalAuth(deps.InternalToken))
	{
		internal.POST("/notifications", deps.NotificationApi.CreateNotification)
	}
}

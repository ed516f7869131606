package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/notify-api/internal/middleware"
	"github.com/nsxzhou1114/notify-api/pkg/response"
	"github.com/nsxzhou1114/notify-api/pkg/websocket"
	"go.uber.org/zap"
)

// WebSocketApi WebSocket API控制器
type WebSocketApi struct {
	logger           *zap.SugaredLogger
	websocketManager *websocket.Manager
}

// NewWebSocketApi 创建WebSocket API实例
func NewWebSocketApi(manager *websocket.Manager, logger *zap.SugaredLogger) *WebSocketApi {
	return &WebSocketApi{
		logger:           logger,
		websocketManager: manager,
	}
}

// HandleWebSocket 处理WebSocket连接，身份已由握手中间件校验
func (api *WebSocketApi) HandleWebSocket(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	api.logger.Infof("用户 %d 尝试建立WebSocket连接", userID)
	if err := api.websocketManager.HandleWebSocket(c.Writer, c.Request, userID); err != nil {
		// 升级失败时upgrader已经写回了错误状态码
		api.logger.Warnf("WebSocket升级失败: user=%d, err=%v", userID, err)
	}
}

// GetWebSocketStats 获取WebSocket统计信息（管理员）
func (api *WebSocketApi) GetWebSocketStats(c *gin.Context) {
	response.Success(c, "获取成功", api.websocketManager.GetStats())
}

package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/notify-api/internal/logger"
	"github.com/nsxzhou1114/notify-api/pkg/auth"
	"github.com/nsxzhou1114/notify-api/pkg/response"
	"go.uber.org/zap"
)

const (
	userIDKey   = "userID"
	userRoleKey = "userRole"

	// InternalTokenHeader 内部调用的令牌请求头
	InternalTokenHeader = "X-Internal-Token"

	expireSoonBuffer = 5 * time.Minute
)

// JWTAuth JWT认证中间件，blacklist可为nil
func JWTAuth(m *auth.JWTManager, blacklist auth.Blacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 从请求头获取token
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "请先登录", nil)
			c.Abort()
			return
		}

		// 检查格式
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			response.Unauthorized(c, "Authorization格式错误", nil)
			c.Abort()
			return
		}

		claims, err := m.ParseAccessToken(parts[1])
		if err != nil {
			logger.Warn("无效的令牌", zap.Error(err))
			response.Unauthorized(c, "无效的令牌", err)
			c.Abort()
			return
		}
		if blacklist != nil && blacklist.IsBlacklisted(c.Request.Context(), parts[1]) {
			response.Unauthorized(c, "令牌已注销", nil)
			c.Abort()
			return
		}

		// 令牌临近过期时提示客户端刷新
		if claims.ExpiresAt != nil && time.Until(claims.ExpiresAt.Time) < expireSoonBuffer {
			c.Header("X-Token-Expire-Soon", "true")
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(userRoleKey, claims.Role)
		c.Next()
	}
}

// QueryTokenAuth 从查询参数token认证，用于websocket握手
// 失败时只返回401状态码，不带响应体
func QueryTokenAuth(m *auth.JWTManager, blacklist auth.Blacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		claims, err := m.ParseAccessToken(token)
		if err != nil {
			logger.Warn("websocket握手令牌无效", zap.Error(err))
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		if blacklist != nil && blacklist.IsBlacklisted(c.Request.Context(), token) {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set(userIDKey, claims.UserID)
		c.Set(userRoleKey, claims.Role)
		c.Next()
	}
}

// InternalAuth 内容服务调用内部接口时校验共享令牌
func InternalAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader(InternalTokenHeader)
		if token == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			response.Unauthorized(c, "无效的内部调用令牌", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID 从上下文中获取用户ID
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(userIDKey)
	if !exists {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

// GetUserRole 从上下文中获取用户角色
func GetUserRole(c *gin.Context) (string, bool) {
	userRole, exists := c.Get(userRoleKey)
	if !exists {
		return "", false
	}
	role, ok := userRole.(string)
	return role, ok
}

// AdminAuth 管理员权限，需放在JWTAuth之后
func AdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := GetUserRole(c)
		if !exists {
			response.Unauthorized(c, "未授权", nil)
			c.Abort()
			return
		}
		if role != "admin" {
			response.Forbidden(c, "需要管理员权限", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

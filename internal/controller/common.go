package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/notify-api/internal/middleware"
	"github.com/nsxzhou1114/notify-api/internal/service"
)

// getUserIDFromContext 从上下文中获取用户ID
func getUserIDFromContext(c *gin.Context) (uint, error) {
	userID, exists := middleware.GetUserID(c)
	if !exists || userID == 0 {
		return 0, service.ErrUnauthenticated
	}
	return userID, nil
}

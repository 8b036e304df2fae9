package middleware

import (
	"context"
	"net/http"

	"techmart/internal/constants"
	"techmart/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminAuth 平台人员认证中间件（管理员与客服）
func AdminAuth(userService *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 从请求头获取Token
		token := c.GetHeader("Authorization")
		// 验证Token
		user, err := userService.GetByToken(context.Background(), token)
		if err != nil || user == nil {
			c.JSON(http.StatusOK, gin.H{"code": 401, "message": constants.ErrInvalidToken})
			c.Abort()
			return
		}

		// 检查是否为平台人员
		if !user.IsStaff() {
			c.JSON(http.StatusOK, gin.H{"code": 403, "message": constants.ErrInsufficientPermission})
			c.Abort()
			return
		}

		// 将用户存储到上下文中
		c.Set("user", user)
		c.Next()
	}
}

package middleware

import (
	"context"
	"net/http"

	"techmart/internal/constants"
	"techmart/internal/service"

	"github.com/gin-gonic/gin"
)

// UserAuth 用户认证中间件
func UserAuth(userService *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 从请求头获取Token
		token := c.GetHeader("Authorization")
		if token == "" {
			c.JSON(http.StatusOK, gin.H{"code": 401, "message": constants.ErrUnauthorized})
			c.Abort()
			return
		}

		// 验证Token
		user, err := userService.GetByToken(context.Background(), token)
		if err != nil {
			c.JSON(http.StatusOK, gin.H{"code": 500, "message": constants.ErrInternalServer})
			c.Abort()
			return
		}
		if user == nil {
			c.JSON(http.StatusOK, gin.H{"code": 401, "message": constants.ErrInvalidToken})
			c.Abort()
			return
		}

		// 将用户存储到上下文中，供后续处理使用
		c.Set("user", user)
		c.Next()
	}
}

package handler

import (
	"net/http"

	"techmart/internal/apperr"
	"techmart/internal/model"

	"github.com/gin-gonic/gin"
)

// fail 业务错误统一响应：HTTP始终200，code携带错误分类对应的状态码
func fail(c *gin.Context, err error) {
	c.JSON(http.StatusOK, gin.H{
		"code":    apperr.HTTPStatus(err),
		"message": apperr.PublicMessage(err),
	})
}

// ok 成功响应
func ok(c *gin.Context, message string, data interface{}) {
	resp := gin.H{"code": 200, "message": message}
	if data != nil {
		resp["data"] = data
	}
	c.JSON(http.StatusOK, resp)
}

// currentUser 从上下文取认证中间件写入的用户
func currentUser(c *gin.Context) *model.User {
	v, exists := c.Get("user")
	if !exists {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}

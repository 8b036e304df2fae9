package handler

import (
	"net/http"

	"techmart/internal/constants"
	"techmart/internal/service"
	"techmart/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AuthHandler 登录处理器
type AuthHandler struct {
	userService *service.UserService
	logger      *logger.Logger
}

// NewAuthHandler 创建登录处理器
func NewAuthHandler(userService *service.UserService, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{userService: userService, logger: logger}
}

// Login 用户名密码登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "message": constants.ErrInvalidParams})
		return
	}

	token, user, err := h.userService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, constants.SuccessLogin, gin.H{
		"token": token,
		"user":  user,
	})
}

package admin

import (
	"net/http"

	"techmart/internal/apperr"
	"techmart/internal/model"

	"github.com/gin-gonic/gin"
)

func fail(c *gin.Context, err error) {
	c.JSON(http.StatusOK, gin.H{
		"code":    apperr.HTTPStatus(err),
		"message": apperr.PublicMessage(err),
	})
}

func ok(c *gin.Context, message string, data interface{}) {
	resp := gin.H{"code": 200, "message": message}
	if data != nil {
		resp["data"] = data
	}
	c.JSON(http.StatusOK, resp)
}

func currentUser(c *gin.Context) *model.User {
	v, exists := c.Get("user")
	if !exists {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}

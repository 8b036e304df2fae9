package apis

import (
	"techmart/internal/api/handler"

	"github.com/gin-gonic/gin"
)

// RegisterPublicRoutes 注册不需要认证的路由
func RegisterPublicRoutes(v1 *gin.RouterGroup, authHandler *handler.AuthHandler, paymentHandler *handler.PaymentHandler) {
	v1.POST("/login", authHandler.Login)
	v1.POST("/payments/webhook", paymentHandler.Webhook)
}

// RegisterAuthRoutes 注册需要认证的路由
func RegisterAuthRoutes(r *gin.RouterGroup, orderHandler *handler.OrderHandler) {
	r.POST("/orders", orderHandler.Create)
	r.GET("/orders", orderHandler.List)
	r.GET("/orders/:id", orderHandler.Get)
	r.POST("/orders/:id/payments", orderHandler.RequestPayment)
	r.GET("/orders/:id/case", orderHandler.GetCase)
	r.GET("/orders/:id/refund-requests", orderHandler.ListRefundRequests)
	r.POST("/orders/:id/refund-requests", orderHandler.CreateRefundRequest)
	r.GET("/orders/:id/invoice", orderHandler.GetInvoice)
	r.POST("/orders/:id/invoice/request", orderHandler.RequestInvoice)
	r.POST("/orders/:id/cancel", orderHandler.Cancel)
}

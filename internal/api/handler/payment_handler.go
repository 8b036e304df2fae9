package handler

import (
	"net/http"
	"time"

	"techmart/internal/constants"
	"techmart/internal/service"
	"techmart/pkg/logger"
	"techmart/pkg/payment"

	"github.com/gin-gonic/gin"
)

// PaymentHandler 支付渠道回执处理器
type PaymentHandler struct {
	orders *service.OrderOrchestrator
	logger *logger.Logger
}

// NewPaymentHandler 创建支付回执处理器
func NewPaymentHandler(orders *service.OrderOrchestrator, logger *logger.Logger) *PaymentHandler {
	return &PaymentHandler{orders: orders, logger: logger}
}

// Webhook 支付渠道异步回执。按幂等键定位流水，重复回执返回相同结果。
func (h *PaymentHandler) Webhook(c *gin.Context) {
	var req struct {
		IdempotencyKey string `json:"idempotency_key" binding:"required"`
		Status         string `json:"status" binding:"required"`
		TradeNo        string `json:"trade_no"`
		PaidAt         int64  `json:"paid_at"` // Unix秒
		Reason         string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "message": constants.ErrInvalidParams})
		return
	}

	result := &payment.ChargeResult{
		Status:  req.Status,
		TradeNo: req.TradeNo,
		Reason:  req.Reason,
	}
	if req.PaidAt > 0 {
		result.PaidAt = time.Unix(req.PaidAt, 0)
	}

	p, err := h.orders.ApplyChargeResult(c.Request.Context(), req.IdempotencyKey, result)
	if err != nil {
		h.logger.Warn("支付回执处理失败", "idempotency_key", req.IdempotencyKey, "error", err)
		fail(c, err)
		return
	}
	ok(c, "回执已处理", p)
}

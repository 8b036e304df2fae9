package handler

import (
	"net/http"
	"strconv"

	"techmart/internal/constants"
	"techmart/internal/repository"
	"techmart/internal/service"
	"techmart/pkg/logger"

	"github.com/gin-gonic/gin"
)

// OrderHandler 订单处理器（买卖双方侧）
type OrderHandler struct {
	orders  *service.OrderOrchestrator
	tracker *service.MilestoneTracker
	logger  *logger.Logger
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(orders *service.OrderOrchestrator, tracker *service.MilestoneTracker, logger *logger.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, tracker: tracker, logger: logger}
}

// Create 对挂牌下单
func (h *OrderHandler) Create(c *gin.Context) {
	var req struct {
		ListingID string `json:"listing_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "message": constants.ErrInvalidParams})
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), currentUser(c), req.ListingID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, constants.SuccessCreate, order)
}

// List 我的订单列表，side=seller时看卖出的订单
func (h *OrderHandler) List(c *gin.Context) {
	user := currentUser(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	f := repository.OrderListFilter{
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	}
	if c.Query("side") == "seller" {
		f.SellerUserID = user.ID
	} else {
		f.BuyerUserID = user.ID
	}

	orders, total, err := h.orders.ListOrders(c.Request.Context(), user, f)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, constants.SuccessGet, gin.H{
		"list":  orders,
		"total": total,
	})
}

// Get 订单详情
func (h *OrderHandler) Get(c *gin.Context) {
	detail, err := h.orders.GetOrder(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, constants.SuccessGet, detail)
}

// RequestPayment 发起订金/尾款支付
func (h *OrderHandler) RequestPayment(c *gin.Context) {
	var req struct {
		PayType string `json:"pay_type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "message": constants.ErrInvalidParams})
		return
	}

	payment, err := h.orders.RequestPayment(c.Request.Context(), currentUser(c), c.Param("id"), req.PayType)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "支付成功", payment)
}

// GetCase 订单履约视图（跟进单+里程碑），首次访问时创建
func (h *OrderHandler) GetCase(c *gin.Context) {
	orderID := c.Param("id")
	// 先做干系人校验
	if _, err := h.orders.GetOrder(c.Request.Context(), currentUser(c), orderID); err != nil {
		fail(c, err)
		return
	}
	view, err := h.tracker.EnsureCaseForOrder(c.Request.Context(), orderID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, constants.SuccessGet, view)
}

// CreateRefundRequest 提交退款申请
func (h *OrderHandler) CreateRefundRequest(c *gin.Context) {
	var req struct {
		ReasonCode string `json:"reason_code" binding:"required"`
		ReasonText string `json:"reason_text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "message": constants.ErrInvalidParams})
		return
	}

	refund, err := h.orders.CreateRefundRequest(c.Request.Context(), currentUser(c), c.Param("id"), req.ReasonCode, req.ReasonText)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, constants.SuccessCreate, refund)
}

// ListRefundRequests 查看订单的退款申请
func (h *OrderHandler) ListRefundRequests(c *gin.Context) {
	list, err := h.orders.ListRefundRequests(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, constants.SuccessGet, list)
}

// GetInvoice 查看发票信息
func (h *OrderHandler) GetInvoice(c *gin.Context) {
	detail, err := h.orders.GetOrder(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	order := detail.Order
	data := gin.H{"issued": order.InvoiceNo.Valid}
	if order.InvoiceNo.Valid {
		data["invoice_no"] = order.InvoiceNo.String
		data["issued_at"] = order.InvoiceIssuedAt.Time
	}
	ok(c, constants.SuccessGet, data)
}

// RequestInvoice 申请开票
func (h *OrderHandler) RequestInvoice(c *gin.Context) {
	supportCase, err := h.orders.RequestInvoice(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, constants.SuccessCreate, supportCase)
}

// Cancel 取消订单
func (h *OrderHandler) Cancel(c *gin.Context) {
	order, err := h.orders.CancelOrder(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, constants.SuccessUpdate, order)
}

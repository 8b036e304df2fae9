package admin

import (
	"net/http"
	"strconv"

	"techmart/internal/constants"
	"techmart/internal/repository"
	"techmart/internal/service"
	"techmart/pkg/logger"

	"github.com/gin-gonic/gin"
)

// OrderAdminHandler 订单后台处理器
type OrderAdminHandler struct {
	orders *service.OrderOrchestrator
	logger *logger.Logger
}

// NewOrderAdminHandler 创建订单后台处理器
func NewOrderAdminHandler(orders *service.OrderOrchestrator, logger *logger.Logger) *OrderAdminHandler {
	return &OrderAdminHandler{orders: orders, logger: logger}
}

// List 订单列表（可按买家/卖家/状态过滤）
func (h *OrderAdminHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	f := repository.OrderListFilter{
		BuyerUserID:  c.Query("buyer_user_id"),
		SellerUserID: c.Query("seller_user_id"),
		Status:       c.Query("status"),
		Page:         page,
		PageSize:     pageSize,
	}
	orders, total, err := h.orders.ListOrders(c.Request.Context(), currentUser(c), f)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, constants.SuccessGet, gin.H{"list": orders, "total": total})
}

// Get 订单详情
func (h *OrderAdminHandler) Get(c *gin.Context) {
	detail, err := h.orders.GetOrder(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, constants.SuccessGet, detail)
}

// ContractSigned 确认签约并录入成交价
func (h *OrderAdminHandler) ContractSigned(c *gin.Context) {
	var req struct {
		DealAmountFen int64 `json:"deal_amount_fen" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "message": constants.ErrInvalidParams})
		return
	}

	order, err := h.orders.ConfirmContractSigned(c.Request.Context(), currentUser(c), c.Param("id"), req.DealAmountFen)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, constants.SuccessUpdate, order)
}

// TransferCompleted 确认过户完成
func (h *OrderAdminHandler) TransferCompleted(c *gin.Context) {
	order, err := h.orders.ConfirmTransferCompleted(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, constants.SuccessUpdate, order)
}

// GetSettlement 查看结算单（首次访问时生成）
func (h *OrderAdminHandler) GetSettlement(c *gin.Context) {
	settlement, err := h.orders.GetSettlement(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, constants.SuccessGet, settlement)
}

// Payout 向卖家打款
func (h *OrderAdminHandler) Payout(c *gin.Context) {
	settlement, err := h.orders.ManualPayout(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, constants.SuccessUpdate, settlement)
}

// ApproveRefund 通过退款申请
func (h *OrderAdminHandler) ApproveRefund(c *gin.Context) {
	req, err := h.orders.ResolveRefund(c.Request.Context(), currentUser(c), c.Param("id"), true)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, constants.SuccessUpdate, req)
}

// RejectRefund 驳回退款申请
func (h *OrderAdminHandler) RejectRefund(c *gin.Context) {
	req, err := h.orders.ResolveRefund(c.Request.Context(), currentUser(c), c.Param("id"), false)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, constants.SuccessUpdate, req)
}

// IssueInvoice 录入发票号
func (h *OrderAdminHandler) IssueInvoice(c *gin.Context) {
	var req struct {
		InvoiceNo string `json:"invoice_no" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "message": constants.ErrInvalidParams})
		return
	}

	order, err := h.orders.AdminIssueInvoice(c.Request.Context(), currentUser(c), c.Param("id"), req.InvoiceNo)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, constants.SuccessUpdate, order)
}

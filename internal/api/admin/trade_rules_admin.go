package admin

import (
	"net/http"

	"techmart/internal/constants"
	"techmart/internal/model"
	"techmart/internal/service"
	"techmart/pkg/logger"

	"github.com/gin-gonic/gin"
)

// TradeRulesAdminHandler 交易规则后台处理器
type TradeRulesAdminHandler struct {
	rules  *service.TradeRuleService
	audit  *service.AuditService
	logger *logger.Logger
}

// NewTradeRulesAdminHandler 创建交易规则后台处理器
func NewTradeRulesAdminHandler(rules *service.TradeRuleService, audit *service.AuditService, logger *logger.Logger) *TradeRulesAdminHandler {
	return &TradeRulesAdminHandler{rules: rules, audit: audit, logger: logger}
}

// Get 查看当前交易规则
func (h *TradeRulesAdminHandler) Get(c *gin.Context) {
	rules, err := h.rules.Current(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, constants.SuccessGet, rules)
}

// Update 更新交易规则，变更计入审计日志
func (h *TradeRulesAdminHandler) Update(c *gin.Context) {
	var req model.TradeRules
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "message": constants.ErrInvalidParams})
		return
	}

	before, err := h.rules.Current(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	updated, err := h.rules.Update(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	h.audit.Record(currentUser(c).ID, "trade_rules.update", "trade_rules", "trade_rules", before, updated)
	ok(c, constants.SuccessUpdate, updated)
}

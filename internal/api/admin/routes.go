package admin

import (
	"github.com/gin-gonic/gin"
)

// RegisterAdminRoutes 注册后台路由
func RegisterAdminRoutes(
	r *gin.RouterGroup,
	orderAdmin *OrderAdminHandler,
	caseAdmin *CaseAdminHandler,
	rulesAdmin *TradeRulesAdminHandler,
) {
	// 订单管理
	r.GET("/orders", orderAdmin.List)
	r.GET("/orders/:id", orderAdmin.Get)
	r.POST("/orders/:id/contract-signed", orderAdmin.ContractSigned)
	r.POST("/orders/:id/transfer-completed", orderAdmin.TransferCompleted)
	r.GET("/orders/:id/settlement", orderAdmin.GetSettlement)
	r.POST("/orders/:id/payout", orderAdmin.Payout)
	r.POST("/orders/:id/invoice/issue", orderAdmin.IssueInvoice)

	// 退款申请
	r.POST("/refund-requests/:id/approve", orderAdmin.ApproveRefund)
	r.POST("/refund-requests/:id/reject", orderAdmin.RejectRefund)

	// 交易规则
	r.GET("/trade-rules", rulesAdmin.Get)
	r.PUT("/trade-rules", rulesAdmin.Update)

	// 客服工单
	r.GET("/cases", caseAdmin.List)
	r.POST("/cases", caseAdmin.Create)
	r.GET("/cases/:id", caseAdmin.Get)
	r.POST("/cases/:id/assign", caseAdmin.Assign)
	r.POST("/cases/:id/status", caseAdmin.UpdateStatus)
	r.POST("/cases/:id/notes", caseAdmin.AddNote)
	r.POST("/cases/:id/evidence", caseAdmin.AddEvidence)
	r.POST("/cases/:id/sla", caseAdmin.UpdateSla)
}

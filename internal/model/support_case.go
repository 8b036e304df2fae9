package model

import (
	"database/sql"
	"time"
)

// 客服工单类型
const (
	CaseTypeOrder         = "ORDER"
	CaseTypeRefund        = "REFUND"
	CaseTypeAuditMaterial = "AUDIT_MATERIAL"
	CaseTypeDispute       = "DISPUTE"
)

// 客服工单状态
const (
	CaseNew             = "NEW"
	CaseInProgress      = "IN_PROGRESS"
	CaseWaitingMaterial = "WAITING_MATERIAL"
	CaseResolved        = "RESOLVED"
	CaseClosed          = "CLOSED"
)

// 工单优先级
const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
)

// SLA状态（派生值，不落库）
const (
	SlaOnTime  = "ON_TIME"
	SlaOverdue = "OVERDUE"
)

// SupportCase 客服工单，可选关联订单
type SupportCase struct {
	ID            string         `db:"id" json:"id"`
	Title         string         `db:"title" json:"title"`
	Type          string         `db:"type" json:"type"`
	Status        string         `db:"status" json:"status"`
	OrderID       sql.NullString `db:"order_id" json:"order_id,omitempty"`
	RequesterName string         `db:"requester_name" json:"requester_name"`
	AssigneeID    sql.NullString `db:"assignee_id" json:"assignee_id,omitempty"`
	Priority      string         `db:"priority" json:"priority"`
	Description   sql.NullString `db:"description" json:"description,omitempty"`
	DueAt         sql.NullTime   `db:"due_at" json:"due_at,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// SlaStatus 派生SLA状态
func (c *SupportCase) SlaStatus(now time.Time) string {
	if !c.DueAt.Valid {
		return ""
	}
	if now.After(c.DueAt.Time) {
		return SlaOverdue
	}
	return SlaOnTime
}

// CaseNote 工单处理备注
type CaseNote struct {
	ID         string    `db:"id" json:"id"`
	CaseID     string    `db:"case_id" json:"case_id"`
	AuthorID   string    `db:"author_id" json:"author_id"`
	AuthorName string    `db:"author_name" json:"author_name"`
	Content    string    `db:"content" json:"content"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// CaseEvidence 工单证据附件
type CaseEvidence struct {
	ID        string         `db:"id" json:"id"`
	CaseID    string         `db:"case_id" json:"case_id"`
	FileID    string         `db:"file_id" json:"file_id"`
	FileName  string         `db:"file_name" json:"file_name"`
	URL       sql.NullString `db:"url" json:"url,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

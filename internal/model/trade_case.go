package model

import (
	"database/sql"
	"time"
)

// 履约跟进单状态
const (
	TradeCaseOpen   = "OPEN"
	TradeCaseClosed = "CLOSED"
)

// 里程碑名称，按固定顺序创建
const (
	MilestoneContractSigned    = "CONTRACT_SIGNED"
	MilestoneTransferSubmitted = "TRANSFER_SUBMITTED"
	MilestoneTransferCompleted = "TRANSFER_COMPLETED"
)

// 里程碑状态，只允许PENDING -> DONE
const (
	MilestonePending = "PENDING"
	MilestoneDone    = "DONE"
)

// TradeCase 订单履约跟进单，在首次查看订单履约视图时惰性创建
type TradeCase struct {
	ID        string    `db:"id" json:"id"`
	OrderID   string    `db:"order_id" json:"order_id"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Milestone 履约里程碑
// 到期标记是派生值（now > due_at 且 PENDING），不落库。
type Milestone struct {
	ID        string       `db:"id" json:"id"`
	CaseID    string       `db:"case_id" json:"case_id"`
	OrderID   string       `db:"order_id" json:"order_id"`
	Name      string       `db:"name" json:"name"`
	Status    string       `db:"status" json:"status"`
	DueAt     sql.NullTime `db:"due_at" json:"due_at,omitempty"`
	DoneAt    sql.NullTime `db:"done_at" json:"done_at,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}

// IsOverdue 是否已超期
func (m *Milestone) IsOverdue(now time.Time) bool {
	return m.Status == MilestonePending && m.DueAt.Valid && now.After(m.DueAt.Time)
}

package model

import (
	"database/sql"
	"time"
)

// 退款申请状态
const (
	RefundPending  = "PENDING"
	RefundApproved = "APPROVED"
	RefundRejected = "REJECTED"
)

// RefundRequest 退款申请。同一订单至多一条PENDING。
type RefundRequest struct {
	ID         string         `db:"id" json:"id"`
	OrderID    string         `db:"order_id" json:"order_id"`
	ReasonCode string         `db:"reason_code" json:"reason_code"`
	ReasonText sql.NullString `db:"reason_text" json:"reason_text,omitempty"`
	Status     string         `db:"status" json:"status"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

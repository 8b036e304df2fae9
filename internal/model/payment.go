package model

import (
	"database/sql"
	"time"
)

// 支付类型
const (
	PayTypeDeposit = "DEPOSIT" // 订金
	PayTypeFinal   = "FINAL"   // 尾款
)

// 支付状态
const (
	PaymentPending = "PENDING"
	PaymentPaid    = "PAID"
	PaymentFailed  = "FAILED"
)

// Payment 支付流水
// 同一(order_id, pay_type)至多一条PAID记录，数据库唯一索引兜底。
type Payment struct {
	ID             string         `db:"id" json:"id"`
	OrderID        string         `db:"order_id" json:"order_id"`
	PayType        string         `db:"pay_type" json:"pay_type"`
	Channel        string         `db:"channel" json:"channel"`
	TradeNo        sql.NullString `db:"trade_no" json:"trade_no,omitempty"`
	AmountFen      int64          `db:"amount_fen" json:"amount_fen"`
	Status         string         `db:"status" json:"status"`
	IdempotencyKey string         `db:"idempotency_key" json:"-"`
	PaidAt         sql.NullTime   `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

package model

import (
	"database/sql"
	"time"
)

// 打款方式
const (
	PayoutMethodManual = "MANUAL"
	PayoutMethodWechat = "WECHAT"
)

// 打款状态
const (
	PayoutPending   = "PENDING"
	PayoutSucceeded = "SUCCEEDED"
	PayoutFailed    = "FAILED"
)

// 结算单状态
const (
	SettlementPending   = "PENDING"
	SettlementCompleted = "COMPLETED"
)

// Settlement 结算单，与订单1:1，首次读取时惰性创建。
// payout = gross - commission，创建时计算一次；打款成功后不可变。
type Settlement struct {
	ID                  string       `db:"id" json:"id"`
	OrderID             string       `db:"order_id" json:"order_id"`
	GrossAmountFen      int64        `db:"gross_amount_fen" json:"gross_amount_fen"`
	CommissionAmountFen int64        `db:"commission_amount_fen" json:"commission_amount_fen"`
	PayoutAmountFen     int64        `db:"payout_amount_fen" json:"payout_amount_fen"`
	PayoutMethod        string       `db:"payout_method" json:"payout_method"`
	PayoutStatus        string       `db:"payout_status" json:"payout_status"`
	PayoutAt            sql.NullTime `db:"payout_at" json:"payout_at,omitempty"`
	Status              string       `db:"status" json:"status"`
	CreatedAt           time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time    `db:"updated_at" json:"updated_at"`
}

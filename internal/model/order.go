package model

import (
	"database/sql"
	"time"
)

// OrderStatus 订单状态枚举（持久化为字符串）
type OrderStatus string

const (
	OrderDepositPending  OrderStatus = "DEPOSIT_PENDING"    // 待付订金
	OrderDepositPaid     OrderStatus = "DEPOSIT_PAID"       // 订金已付，待签约
	OrderWaitFinal       OrderStatus = "WAIT_FINAL_PAYMENT" // 合同已签，待付尾款
	OrderFinalPaidEscrow OrderStatus = "FINAL_PAID_ESCROW"  // 尾款已付，平台托管中
	OrderReadyToSettle   OrderStatus = "READY_TO_SETTLE"    // 过户完成，待结算
	OrderCompleted       OrderStatus = "COMPLETED"          // 已完成（终态）
	OrderCancelled       OrderStatus = "CANCELLED"          // 已取消（终态）
	OrderRefunding       OrderStatus = "REFUNDING"          // 退款中
	OrderRefunded        OrderStatus = "REFUNDED"           // 已退款（终态）
)

// Order 交易订单
// depositAmountFen在创建时从挂牌快照，之后不再变化；金额一律为分（整数）。
type Order struct {
	ID              string        `db:"id" json:"id"`
	OrderNo         string        `db:"order_no" json:"order_no"`
	ListingID       string        `db:"listing_id" json:"listing_id"`
	BuyerUserID     string        `db:"buyer_user_id" json:"buyer_user_id"`
	SellerUserID    string        `db:"seller_user_id" json:"seller_user_id"`
	Status          OrderStatus   `db:"status" json:"status"`
	DepositAmountFen int64        `db:"deposit_amount_fen" json:"deposit_amount_fen"`
	DealAmountFen   sql.NullInt64 `db:"deal_amount_fen" json:"deal_amount_fen,omitempty"`
	FinalAmountFen  sql.NullInt64 `db:"final_amount_fen" json:"final_amount_fen,omitempty"`
	InvoiceNo       sql.NullString `db:"invoice_no" json:"invoice_no,omitempty"`
	InvoiceIssuedAt sql.NullTime  `db:"invoice_issued_at" json:"invoice_issued_at,omitempty"`
	Version         int64         `db:"version" json:"-"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// IsTerminal 是否终态
func (s OrderStatus) IsTerminal() bool {
	return s == OrderCompleted || s == OrderCancelled || s == OrderRefunded
}

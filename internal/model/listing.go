package model

import "time"

// 挂牌审核状态
const (
	AuditPending  = "PENDING"
	AuditApproved = "APPROVED"
	AuditRejected = "REJECTED"
)

// 挂牌上架状态
const (
	ListingDraft    = "DRAFT"
	ListingActive   = "ACTIVE"
	ListingOffShelf = "OFF_SHELF"
	ListingSold     = "SOLD"
)

// Listing 挂牌（专利/技术需求/科技成果/字画）
// 交易引擎只读其订金、卖家和可交易性，目录维护在引擎范围之外。
type Listing struct {
	ID               string    `db:"id" json:"id"`
	SellerUserID     string    `db:"seller_user_id" json:"seller_user_id"`
	Title            string    `db:"title" json:"title"`
	DepositAmountFen int64     `db:"deposit_amount_fen" json:"deposit_amount_fen"`
	AuditStatus      string    `db:"audit_status" json:"audit_status"`
	Status           string    `db:"status" json:"status"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Tradable 是否可交易
func (l *Listing) Tradable() bool {
	return l.AuditStatus == AuditApproved && l.Status == ListingActive
}

package model

// TradeRules 交易规则快照，持久化为system_configs中的JSON，版本号单调递增
type TradeRules struct {
	Version                            int     `json:"version"`
	DepositRate                        float64 `json:"deposit_rate"`
	DepositMinFen                      int64   `json:"deposit_min_fen"`
	DepositMaxFen                      int64   `json:"deposit_max_fen"`
	DepositFixedForNegotiableFen       int64   `json:"deposit_fixed_for_negotiable_fen"`
	AutoRefundWindowMinutes            int     `json:"auto_refund_window_minutes"`
	SellerMaterialDeadlineBusinessDays int     `json:"seller_material_deadline_business_days"`
	ContractSignedDeadlineBusinessDays int     `json:"contract_signed_deadline_business_days"`
	TransferCompletedSlaDays           int     `json:"transfer_completed_sla_days"`
	CommissionRate                     float64 `json:"commission_rate"`
	CommissionMinFen                   int64   `json:"commission_min_fen"`
	CommissionMaxFen                   int64   `json:"commission_max_fen"`
	PayoutMethodDefault                string  `json:"payout_method_default"`
	AutoPayoutOnTimeout                bool    `json:"auto_payout_on_timeout"`
}

// DefaultTradeRules 平台默认交易规则
func DefaultTradeRules() *TradeRules {
	return &TradeRules{
		Version:                            1,
		DepositRate:                        0.05,
		DepositMinFen:                      10000,
		DepositMaxFen:                      500000,
		DepositFixedForNegotiableFen:       20000,
		AutoRefundWindowMinutes:            30,
		SellerMaterialDeadlineBusinessDays: 3,
		ContractSignedDeadlineBusinessDays: 10,
		TransferCompletedSlaDays:           90,
		CommissionRate:                     0.05,
		CommissionMinFen:                   100000,
		CommissionMaxFen:                   5000000,
		PayoutMethodDefault:                PayoutMethodManual,
		AutoPayoutOnTimeout:                false,
	}
}

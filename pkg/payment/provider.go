package payment

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable 服务商持续超时或5xx，重试耗尽。调用方不得在此错误上做任何状态变更。
var ErrUnavailable = errors.New("payment provider unavailable")

// 支付结果状态
const (
	ResultPaid   = "PAID"
	ResultFailed = "FAILED"
)

// ChargeRequest 扣款请求。IdempotencyKey相同的请求，服务商保证至多扣款一次。
type ChargeRequest struct {
	OrderID        string `json:"order_id"`
	PayType        string `json:"pay_type"`
	AmountFen      int64  `json:"amount_fen"`
	IdempotencyKey string `json:"idempotency_key"`
}

// ChargeResult 扣款结果
type ChargeResult struct {
	Status  string    `json:"status"` // PAID / FAILED
	TradeNo string    `json:"trade_no"`
	PaidAt  time.Time `json:"paid_at"`
	Reason  string    `json:"reason,omitempty"`
}

// RefundRequest 退款请求
type RefundRequest struct {
	OrderID        string `json:"order_id"`
	AmountFen      int64  `json:"amount_fen"`
	IdempotencyKey string `json:"idempotency_key"`
}

// RefundResult 退款结果
type RefundResult struct {
	Status  string `json:"status"`
	TradeNo string `json:"trade_no"`
	Reason  string `json:"reason,omitempty"`
}

// PayoutRequest 打款请求
type PayoutRequest struct {
	OrderID        string `json:"order_id"`
	PayeeUserID    string `json:"payee_user_id"`
	AmountFen      int64  `json:"amount_fen"`
	Method         string `json:"method"`
	IdempotencyKey string `json:"idempotency_key"`
}

// PayoutResult 打款结果
type PayoutResult struct {
	Status  string `json:"status"`
	TradeNo string `json:"trade_no"`
	Reason  string `json:"reason,omitempty"`
}

// Provider 抽象支付服务商。实现必须按IdempotencyKey幂等。
type Provider interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	Refund(ctx context.Context, req RefundRequest) (*RefundResult, error)
	Payout(ctx context.Context, req PayoutRequest) (*PayoutResult, error)
}

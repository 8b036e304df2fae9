package payment

import (
	"context"
	"sync"
	"time"
)

// MockProvider 内置模拟服务商，开发和测试使用。
// 成功结果按IdempotencyKey缓存，重复请求返回相同结果；失败不占用幂等键。
type MockProvider struct {
	mu      sync.Mutex
	charges map[string]*ChargeResult
	payouts map[string]*PayoutResult
	refunds map[string]*RefundResult

	// FailNext 为true时下一次调用返回FAILED，用于测试失败路径
	FailNext bool
}

// NewMockProvider 创建模拟服务商
func NewMockProvider() *MockProvider {
	return &MockProvider{
		charges: make(map[string]*ChargeResult),
		payouts: make(map[string]*PayoutResult),
		refunds: make(map[string]*RefundResult),
	}
}

// Charge 模拟扣款
func (p *MockProvider) Charge(_ context.Context, req ChargeRequest) (*ChargeResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.charges[req.IdempotencyKey]; ok {
		return existing, nil
	}
	if p.FailNext {
		p.FailNext = false
		return &ChargeResult{Status: ResultFailed, Reason: "mock failure"}, nil
	}
	result := &ChargeResult{Status: ResultPaid, TradeNo: "mock-" + req.IdempotencyKey, PaidAt: time.Now()}
	p.charges[req.IdempotencyKey] = result
	return result, nil
}

// Refund 模拟退款
func (p *MockProvider) Refund(_ context.Context, req RefundRequest) (*RefundResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.refunds[req.IdempotencyKey]; ok {
		return existing, nil
	}
	if p.FailNext {
		p.FailNext = false
		return &RefundResult{Status: ResultFailed, Reason: "mock failure"}, nil
	}
	result := &RefundResult{Status: ResultPaid, TradeNo: "mock-refund-" + req.IdempotencyKey}
	p.refunds[req.IdempotencyKey] = result
	return result, nil
}

// Payout 模拟打款
func (p *MockProvider) Payout(_ context.Context, req PayoutRequest) (*PayoutResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.payouts[req.IdempotencyKey]; ok {
		return existing, nil
	}
	if p.FailNext {
		p.FailNext = false
		return &PayoutResult{Status: ResultFailed, Reason: "mock failure"}, nil
	}
	result := &PayoutResult{Status: ResultPaid, TradeNo: "mock-payout-" + req.IdempotencyKey}
	p.payouts[req.IdempotencyKey] = result
	return result, nil
}

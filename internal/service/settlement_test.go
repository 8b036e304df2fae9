package service

import (
	"testing"

	"techmart/internal/apperr"
	"techmart/internal/model"
)

func TestComputeSettlementClampLow(t *testing.T) {
	rules := model.DefaultTradeRules()
	// 成交价500000分，5%佣金25000分，低于下限100000分，补齐到下限
	commission, payout, err := ComputeSettlement(500000, rules)
	if err != nil {
		t.Fatalf("计算失败: %v", err)
	}
	if commission != 100000 {
		t.Errorf("期望佣金100000，实际%d", commission)
	}
	if payout != 400000 {
		t.Errorf("期望打款400000，实际%d", payout)
	}
}

func TestComputeSettlementClampHigh(t *testing.T) {
	rules := model.DefaultTradeRules()
	// 成交价10亿分，5%佣金5000万分，超过上限500万分，压到上限
	commission, payout, err := ComputeSettlement(1_000_000_000, rules)
	if err != nil {
		t.Fatalf("计算失败: %v", err)
	}
	if commission != rules.CommissionMaxFen {
		t.Errorf("期望佣金%d，实际%d", rules.CommissionMaxFen, commission)
	}
	if payout != 1_000_000_000-rules.CommissionMaxFen {
		t.Errorf("期望打款%d，实际%d", 1_000_000_000-rules.CommissionMaxFen, payout)
	}
}

func TestComputeSettlementMidRange(t *testing.T) {
	rules := model.DefaultTradeRules()
	// 1千万分的5%是50万分，落在上下限之间，不做截断
	commission, payout, err := ComputeSettlement(10_000_000, rules)
	if err != nil {
		t.Fatalf("计算失败: %v", err)
	}
	if commission != 500000 {
		t.Errorf("期望佣金500000，实际%d", commission)
	}
	if payout != 9_500_000 {
		t.Errorf("期望打款9500000，实际%d", payout)
	}
}

func TestComputeSettlementNegativePayout(t *testing.T) {
	rules := model.DefaultTradeRules()
	// 成交价低于佣金下限，打款为负，必须报VALIDATION
	_, _, err := ComputeSettlement(50000, rules)
	if err == nil {
		t.Fatal("期望计算失败")
	}
	if !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("期望VALIDATION错误，实际: %v", err)
	}
}

func TestComputeSettlementPure(t *testing.T) {
	rules := model.DefaultTradeRules()
	c1, p1, _ := ComputeSettlement(500000, rules)
	c2, p2, _ := ComputeSettlement(500000, rules)
	if c1 != c2 || p1 != p2 {
		t.Fatalf("相同输入应得到相同结果: (%d,%d) vs (%d,%d)", c1, p1, c2, p2)
	}
}

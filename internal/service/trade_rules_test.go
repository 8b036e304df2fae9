package service

import (
	"context"
	"testing"

	"techmart/internal/apperr"
)

func TestTradeRulesDefaultsAndUpdate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// 库中无记录时返回默认规则
	rules, err := env.rules.Current(ctx)
	if err != nil {
		t.Fatalf("读取规则失败: %v", err)
	}
	if rules.Version != 1 || rules.CommissionRate != 0.05 || rules.CommissionMinFen != 100000 {
		t.Fatalf("默认规则不符: %+v", rules)
	}

	rules.CommissionRate = 0.08
	updated, err := env.rules.Update(ctx, rules)
	if err != nil {
		t.Fatalf("更新规则失败: %v", err)
	}
	if updated.Version != 2 {
		t.Errorf("版本号应递增到2，实际%d", updated.Version)
	}

	// 更新后的规则被持久化
	reloaded, _ := env.rules.Current(ctx)
	if reloaded.Version != 2 || reloaded.CommissionRate != 0.08 {
		t.Errorf("重读规则不符: %+v", reloaded)
	}
}

func TestTradeRulesUpdateValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	rules, _ := env.rules.Current(ctx)
	rules.CommissionRate = 1.5
	if _, err := env.rules.Update(ctx, rules); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("费率越界期望VALIDATION，实际: %v", err)
	}

	rules, _ = env.rules.Current(ctx)
	rules.CommissionMaxFen = rules.CommissionMinFen - 1
	if _, err := env.rules.Update(ctx, rules); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("上下限倒挂期望VALIDATION，实际: %v", err)
	}

	rules, _ = env.rules.Current(ctx)
	rules.PayoutMethodDefault = "CASH"
	if _, err := env.rules.Update(ctx, rules); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("非法打款方式期望VALIDATION，实际: %v", err)
	}
}

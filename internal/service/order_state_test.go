package service

import (
	"testing"

	"techmart/internal/apperr"
	"techmart/internal/model"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to model.OrderStatus
		want     bool
	}{
		{model.OrderDepositPending, model.OrderDepositPaid, true},
		{model.OrderDepositPending, model.OrderCancelled, true},
		{model.OrderDepositPending, model.OrderRefunding, true},
		{model.OrderDepositPending, model.OrderFinalPaidEscrow, false},
		{model.OrderDepositPaid, model.OrderWaitFinal, true},
		{model.OrderDepositPaid, model.OrderCancelled, true},
		{model.OrderDepositPaid, model.OrderRefunding, true},
		{model.OrderWaitFinal, model.OrderFinalPaidEscrow, true},
		{model.OrderWaitFinal, model.OrderCancelled, false},
		{model.OrderWaitFinal, model.OrderRefunding, true},
		{model.OrderFinalPaidEscrow, model.OrderReadyToSettle, true},
		{model.OrderFinalPaidEscrow, model.OrderCancelled, false},
		{model.OrderFinalPaidEscrow, model.OrderRefunding, true},
		{model.OrderReadyToSettle, model.OrderCompleted, true},
		{model.OrderReadyToSettle, model.OrderCancelled, false},
		{model.OrderReadyToSettle, model.OrderRefunding, true},
		{model.OrderRefunding, model.OrderRefunded, true},
		{model.OrderRefunding, model.OrderDepositPaid, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	terminals := []model.OrderStatus{model.OrderCompleted, model.OrderCancelled, model.OrderRefunded}
	all := []model.OrderStatus{
		model.OrderDepositPending, model.OrderDepositPaid, model.OrderWaitFinal,
		model.OrderFinalPaidEscrow, model.OrderReadyToSettle, model.OrderCompleted,
		model.OrderCancelled, model.OrderRefunding, model.OrderRefunded,
	}
	for _, from := range terminals {
		if !from.IsTerminal() {
			t.Errorf("%s 应为终态", from)
		}
		for _, to := range all {
			if CanTransition(from, to) {
				t.Errorf("终态%s不应允许迁移到%s", from, to)
			}
		}
	}
}

func TestTransitionRejectsInvalid(t *testing.T) {
	o := &model.Order{Status: model.OrderDepositPending}
	err := Transition(o, model.OrderCompleted)
	if err == nil {
		t.Fatal("期望迁移被拒绝")
	}
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Fatalf("期望CONFLICT错误，实际: %v", err)
	}
	if o.Status != model.OrderDepositPending {
		t.Fatalf("迁移被拒后状态不应变化，实际: %s", o.Status)
	}

	if err := Transition(o, model.OrderDepositPaid); err != nil {
		t.Fatalf("合法迁移失败: %v", err)
	}
	if o.Status != model.OrderDepositPaid {
		t.Fatalf("期望状态DEPOSIT_PAID，实际: %s", o.Status)
	}
}

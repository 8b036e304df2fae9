package service

import (
	"fmt"

	"techmart/internal/apperr"
	"techmart/internal/model"
)

// 订单状态机。键为当前状态，值为允许迁入的目标状态集合。
// 不在表中的迁移一律拒绝，终态没有出边。
// CANCELLED只能从订金阶段进入；签约之后的资金退出一律走退款审批，
// 因此COMPLETED之前的所有状态都有到REFUNDING的边。
var orderTransitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderDepositPending:  {model.OrderDepositPaid, model.OrderCancelled, model.OrderRefunding},
	model.OrderDepositPaid:     {model.OrderWaitFinal, model.OrderCancelled, model.OrderRefunding},
	model.OrderWaitFinal:       {model.OrderFinalPaidEscrow, model.OrderRefunding},
	model.OrderFinalPaidEscrow: {model.OrderReadyToSettle, model.OrderRefunding},
	model.OrderReadyToSettle:   {model.OrderCompleted, model.OrderRefunding},
	model.OrderRefunding:       {model.OrderRefunded},
	model.OrderCompleted:       {},
	model.OrderCancelled:       {},
	model.OrderRefunded:        {},
}

// CanTransition 状态机是否允许 from -> to
func CanTransition(from, to model.OrderStatus) bool {
	for _, t := range orderTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Transition 校验并在内存中应用状态迁移，持久化由调用方负责
func Transition(o *model.Order, to model.OrderStatus) error {
	if !CanTransition(o.Status, to) {
		return apperr.New(apperr.Conflict,
			fmt.Sprintf("订单状态不允许从%s变更为%s", o.Status, to))
	}
	o.Status = to
	return nil
}

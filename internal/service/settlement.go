package service

import (
	"math"

	"techmart/internal/apperr"
	"techmart/internal/model"
)

// ComputeSettlement 按交易规则计算结算金额。
// 佣金 = clamp(round(成交价 × 费率), 下限, 上限)，打款额 = 成交价 - 佣金。
// 打款额为负时返回VALIDATION，不落库。
func ComputeSettlement(dealAmountFen int64, rules *model.TradeRules) (commissionFen, payoutFen int64, err error) {
	commissionFen = int64(math.Round(float64(dealAmountFen) * rules.CommissionRate))
	if commissionFen < rules.CommissionMinFen {
		commissionFen = rules.CommissionMinFen
	}
	if commissionFen > rules.CommissionMaxFen {
		commissionFen = rules.CommissionMaxFen
	}
	payoutFen = dealAmountFen - commissionFen
	if payoutFen < 0 {
		return 0, 0, apperr.New(apperr.Validation, "成交价低于平台佣金下限，无法结算")
	}
	return commissionFen, payoutFen, nil
}

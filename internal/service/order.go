package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"techmart/internal/apperr"
	"techmart/internal/constants"
	"techmart/internal/model"
	"techmart/internal/repository"
	"techmart/pkg/lock"
	"techmart/pkg/logger"
	"techmart/pkg/payment"

	"github.com/google/uuid"
	"k8s.io/apimachinery/pkg/util/rand"
)

const orderLockTTL = 5 * time.Second

// OrderStore 订单存储
type OrderStore interface {
	Create(ctx context.Context, o *model.Order) error
	GetByID(ctx context.Context, id string) (*model.Order, error)
	List(ctx context.Context, f repository.OrderListFilter) ([]model.Order, int, error)
	UpdateCAS(ctx context.Context, o *model.Order) (bool, error)
	ListDepositPendingBefore(ctx context.Context, cutoff time.Time) ([]model.Order, error)
}

// PaymentStore 支付流水存储
type PaymentStore interface {
	Create(ctx context.Context, p *model.Payment) error
	GetPaid(ctx context.Context, orderID, payType string) (*model.Payment, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*model.Payment, error)
	ListByOrder(ctx context.Context, orderID string) ([]model.Payment, error)
	MarkPaid(ctx context.Context, id, tradeNo string, paidAt time.Time) error
	MarkFailed(ctx context.Context, id string) error
}

// RefundStore 退款申请存储
type RefundStore interface {
	Create(ctx context.Context, req *model.RefundRequest) error
	GetByID(ctx context.Context, id string) (*model.RefundRequest, error)
	GetPendingByOrder(ctx context.Context, orderID string) (*model.RefundRequest, error)
	ListByOrder(ctx context.Context, orderID string) ([]model.RefundRequest, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// SettlementStore 结算单存储
type SettlementStore interface {
	Create(ctx context.Context, s *model.Settlement) error
	GetByOrder(ctx context.Context, orderID string) (*model.Settlement, error)
	MarkPayoutSucceeded(ctx context.Context, id string, payoutAt time.Time) error
	MarkPayoutFailed(ctx context.Context, id string) error
}

// OrderDetail 订单详情（含支付流水）
type OrderDetail struct {
	Order    *model.Order    `json:"order"`
	Payments []model.Payment `json:"payments"`
}

// OrderOrchestrator 订单生命周期编排。所有订单状态变更都经由它，
// 同一订单的临界区用pkg/lock串行化，状态落库用版本号CAS兜底。
// 锁从不跨支付服务商往返持有：请求在锁内建流水，放锁后调渠道，
// 回执路径重新拿锁、重读订单、复查前置状态后才应用迁移。
type OrderOrchestrator struct {
	orders      OrderStore
	payments    PaymentStore
	refunds     RefundStore
	settlements SettlementStore
	listings    ListingStore
	tracker     *MilestoneTracker
	registry    *CaseRegistry
	rules       *TradeRuleService
	provider    payment.Provider
	locker      lock.Locker
	audit       *AuditService
	logger      *logger.Logger
	now         func() time.Time
}

// NewOrderOrchestrator 创建订单编排器
func NewOrderOrchestrator(
	orders OrderStore,
	payments PaymentStore,
	refunds RefundStore,
	settlements SettlementStore,
	listings ListingStore,
	tracker *MilestoneTracker,
	registry *CaseRegistry,
	rules *TradeRuleService,
	provider payment.Provider,
	locker lock.Locker,
	audit *AuditService,
	log *logger.Logger,
) *OrderOrchestrator {
	return &OrderOrchestrator{
		orders:      orders,
		payments:    payments,
		refunds:     refunds,
		settlements: settlements,
		listings:    listings,
		tracker:     tracker,
		registry:    registry,
		rules:       rules,
		provider:    provider,
		locker:      locker,
		audit:       audit,
		logger:      log,
		now:         time.Now,
	}
}

// generateOrderNo 生成对外订单号
func generateOrderNo(now time.Time) string {
	return fmt.Sprintf("TTM%s%s", now.Format("20060102150405"), rand.String(6))
}

// CreateOrder 买家对挂牌下单。订金金额从挂牌快照，之后规则变更不影响已建订单。
func (s *OrderOrchestrator) CreateOrder(ctx context.Context, buyer *model.User, listingID string) (*model.Order, error) {
	listing, err := GetTradableListing(ctx, s.listings, listingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerUserID == buyer.ID {
		return nil, apperr.New(apperr.Validation, "不能购买自己的挂牌")
	}

	now := s.now()
	order := &model.Order{
		ID:               uuid.NewString(),
		OrderNo:          generateOrderNo(now),
		ListingID:        listing.ID,
		BuyerUserID:      buyer.ID,
		SellerUserID:     listing.SellerUserID,
		Status:           model.OrderDepositPending,
		DepositAmountFen: listing.DepositAmountFen,
		Version:          1,
		CreatedAt:        now,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, apperr.Wrap(err, "创建订单失败")
	}
	s.logger.Info("订单已创建", "order_id", order.ID, "order_no", order.OrderNo,
		"listing_id", listing.ID, "deposit_fen", order.DepositAmountFen)
	return order, nil
}

// GetOrder 获取订单详情。仅买家、卖家和平台人员可见。
func (s *OrderOrchestrator) GetOrder(ctx context.Context, user *model.User, orderID string) (*OrderDetail, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.mustStakeholder(user, order); err != nil {
		return nil, err
	}
	payments, err := s.payments.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, apperr.Wrap(err, "查询支付流水失败")
	}
	return &OrderDetail{Order: order, Payments: payments}, nil
}

// ListOrders 订单列表。普通用户只能看自己买入或卖出的订单。
func (s *OrderOrchestrator) ListOrders(ctx context.Context, user *model.User, f repository.OrderListFilter) ([]model.Order, int, error) {
	if !user.IsStaff() {
		if f.SellerUserID == user.ID {
			f.BuyerUserID = ""
		} else {
			f.BuyerUserID = user.ID
			f.SellerUserID = ""
		}
	}
	orders, total, err := s.orders.List(ctx, f)
	if err != nil {
		return nil, 0, apperr.Wrap(err, "查询订单列表失败")
	}
	return orders, total, nil
}

// 支付类型对应的前置状态、金额与成功后的目标状态
func (s *OrderOrchestrator) chargePlan(order *model.Order, payType string) (requireStatus, targetStatus model.OrderStatus, amountFen int64, err error) {
	switch payType {
	case model.PayTypeDeposit:
		return model.OrderDepositPending, model.OrderDepositPaid, order.DepositAmountFen, nil
	case model.PayTypeFinal:
		if !order.FinalAmountFen.Valid {
			return "", "", 0, apperr.New(apperr.Conflict, "尾款金额尚未确定")
		}
		return model.OrderWaitFinal, model.OrderFinalPaidEscrow, order.FinalAmountFen.Int64, nil
	default:
		return "", "", 0, apperr.New(apperr.Validation, constants.ErrPayTypeInvalid)
	}
}

// RequestPayment 买家发起订金/尾款支付。
// 幂等键固定为 charge:<订单>:<类型>，重复请求不会二次扣款；
// 已有PAID流水时直接返回现有流水。
func (s *OrderOrchestrator) RequestPayment(ctx context.Context, user *model.User, orderID, payType string) (*model.Payment, error) {
	idemKey := fmt.Sprintf("charge:%s:%s", orderID, payType)

	var p *model.Payment
	var amountFen int64
	err := s.withOrderLock(ctx, orderID, func() error {
		order, err := s.loadOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order.BuyerUserID != user.ID {
			return apperr.New(apperr.Forbidden, constants.ErrNotOrderStakeholder)
		}

		requireStatus, _, amount, err := s.chargePlan(order, payType)
		if err != nil {
			return err
		}

		if paid, err := s.payments.GetPaid(ctx, orderID, payType); err != nil {
			return apperr.Wrap(err, "查询支付流水失败")
		} else if paid != nil {
			p = paid
			return nil
		}

		if order.Status != requireStatus {
			return apperr.New(apperr.Conflict, constants.ErrOrderStatusConflict)
		}
		amountFen = amount

		existing, err := s.payments.GetByIdempotencyKey(ctx, idemKey)
		if err != nil {
			return apperr.Wrap(err, "查询支付流水失败")
		}
		if existing != nil {
			p = existing
			return nil
		}
		p = &model.Payment{
			ID:             uuid.NewString(),
			OrderID:        orderID,
			PayType:        payType,
			Channel:        "ESCROW_GATEWAY",
			AmountFen:      amount,
			Status:         model.PaymentPending,
			IdempotencyKey: idemKey,
		}
		if err := s.payments.Create(ctx, p); err != nil {
			return apperr.Wrap(err, "创建支付流水失败")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if p.Status == model.PaymentPaid {
		return p, nil
	}

	// 锁已释放，再调服务商
	result, err := s.provider.Charge(ctx, payment.ChargeRequest{
		OrderID:        orderID,
		PayType:        payType,
		AmountFen:      amountFen,
		IdempotencyKey: idemKey,
	})
	if err != nil {
		s.logger.Error("支付服务商不可用", "order_id", orderID, "pay_type", payType, "error", err)
		return nil, apperr.New(apperr.Retryable, constants.ErrPaymentUnavailable)
	}
	return s.ApplyChargeResult(ctx, idemKey, result)
}

// ApplyChargeResult 应用扣款结果（同步返回与webhook回执共用）。
// 重新拿锁并复查订单前置状态，订单已被别的路径推进时返回CONFLICT。
func (s *OrderOrchestrator) ApplyChargeResult(ctx context.Context, idemKey string, result *payment.ChargeResult) (*model.Payment, error) {
	p, err := s.payments.GetByIdempotencyKey(ctx, idemKey)
	if err != nil {
		return nil, apperr.Wrap(err, "查询支付流水失败")
	}
	if p == nil {
		return nil, apperr.New(apperr.NotFound, "支付流水不存在")
	}

	err = s.withOrderLock(ctx, p.OrderID, func() error {
		// 拿锁后重读流水，并发的重复请求在此收敛
		fresh, err := s.payments.GetByIdempotencyKey(ctx, idemKey)
		if err != nil {
			return apperr.Wrap(err, "查询支付流水失败")
		}
		if fresh != nil {
			p = fresh
		}
		if p.Status == model.PaymentPaid {
			return nil
		}

		if result.Status != payment.ResultPaid {
			if err := s.payments.MarkFailed(ctx, p.ID); err != nil {
				return apperr.Wrap(err, "更新支付流水失败")
			}
			p.Status = model.PaymentFailed
			return apperr.New(apperr.Validation, "支付未成功："+result.Reason)
		}

		order, err := s.loadOrder(ctx, p.OrderID)
		if err != nil {
			return err
		}
		requireStatus, targetStatus, _, err := s.chargePlan(order, p.PayType)
		if err != nil {
			return err
		}
		if order.Status != requireStatus {
			return apperr.New(apperr.Conflict, constants.ErrOrderStatusConflict)
		}

		paidAt := result.PaidAt
		if paidAt.IsZero() {
			paidAt = s.now()
		}
		if err := s.payments.MarkPaid(ctx, p.ID, result.TradeNo, paidAt); err != nil {
			return apperr.Wrap(err, "更新支付流水失败")
		}
		p.Status = model.PaymentPaid
		p.TradeNo = sql.NullString{String: result.TradeNo, Valid: result.TradeNo != ""}
		p.PaidAt = sql.NullTime{Time: paidAt, Valid: true}

		if err := Transition(order, targetStatus); err != nil {
			return err
		}
		ok, err := s.orders.UpdateCAS(ctx, order)
		if err != nil {
			return apperr.Wrap(err, "更新订单失败")
		}
		if !ok {
			return apperr.New(apperr.Conflict, constants.ErrOrderStatusConflict)
		}
		s.logger.Info("支付成功，订单已推进", "order_id", order.ID,
			"pay_type", p.PayType, "status", order.Status, "trade_no", result.TradeNo)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ConfirmContractSigned 管理员确认双方签约并录入成交价。
// 成交价不得低于订金；尾款 = 成交价 - 订金。
func (s *OrderOrchestrator) ConfirmContractSigned(ctx context.Context, admin *model.User, orderID string, dealAmountFen int64) (*model.Order, error) {
	var order *model.Order
	err := s.withOrderLock(ctx, orderID, func() error {
		var err error
		order, err = s.loadOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if dealAmountFen < order.DepositAmountFen {
			return apperr.New(apperr.Validation, constants.ErrDealBelowDeposit)
		}
		if !CanTransition(order.Status, model.OrderWaitFinal) {
			return apperr.New(apperr.Conflict, constants.ErrOrderStatusConflict)
		}

		// 先落签约里程碑再推进订单；里程碑失败则整个操作失败。
		// MarkDone幂等，CAS失败后的重试会收敛。
		if _, err := s.tracker.EnsureCaseForOrder(ctx, orderID); err != nil {
			return err
		}
		if err := s.tracker.MarkDone(ctx, orderID, model.MilestoneContractSigned); err != nil {
			return err
		}

		before := orderSnapshot(order)
		order.DealAmountFen = sql.NullInt64{Int64: dealAmountFen, Valid: true}
		order.FinalAmountFen = sql.NullInt64{Int64: dealAmountFen - order.DepositAmountFen, Valid: true}
		if err := Transition(order, model.OrderWaitFinal); err != nil {
			return err
		}
		ok, err := s.orders.UpdateCAS(ctx, order)
		if err != nil {
			return apperr.Wrap(err, "更新订单失败")
		}
		if !ok {
			return apperr.New(apperr.Conflict, constants.ErrOrderStatusConflict)
		}

		s.audit.Record(admin.ID, "order.contract_signed", "order", order.ID, before, orderSnapshot(order))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ConfirmTransferCompleted 管理员确认过户完成，订单进入待结算。
// 前置条件：订单处于尾款已托管状态且签约里程碑已完成。
func (s *OrderOrchestrator) ConfirmTransferCompleted(ctx context.Context, admin *model.User, orderID string) (*model.Order, error) {
	var order *model.Order
	err := s.withOrderLock(ctx, orderID, func() error {
		var err error
		order, err = s.loadOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !CanTransition(order.Status, model.OrderReadyToSettle) {
			return apperr.New(apperr.Conflict, constants.ErrOrderStatusConflict)
		}

		view, err := s.tracker.EnsureCaseForOrder(ctx, orderID)
		if err != nil {
			return err
		}
		signed := false
		for _, m := range view.Milestones {
			if m.Name == model.MilestoneContractSigned && m.Status == model.MilestoneDone {
				signed = true
				break
			}
		}
		if !signed {
			return apperr.New(apperr.Conflict, "签约里程碑未完成，不能确认过户")
		}
		if err := s.tracker.MarkDone(ctx, orderID, model.MilestoneTransferSubmitted); err != nil {
			return err
		}
		if err := s.tracker.MarkDone(ctx, orderID, model.MilestoneTransferCompleted); err != nil {
			return err
		}

		before := orderSnapshot(order)
		if err := Transition(order, model.OrderReadyToSettle); err != nil {
			return err
		}
		ok, err := s.orders.UpdateCAS(ctx, order)
		if err != nil {
			return apperr.Wrap(err, "更新订单失败")
		}
		if !ok {
			return apperr.New(apperr.Conflict, constants.ErrOrderStatusConflict)
		}
		s.audit.Record(admin.ID, "order.transfer_completed", "order", order.ID, before, orderSnapshot(order))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// CancelOrder 取消订单。仅订金阶段（签约前）允许取消，买家本人或平台人员可操作；
// 签约之后的资金退出一律走退款申请流程，此处只变更订单状态。
func (s *OrderOrchestrator) CancelOrder(ctx context.Context, user *model.User, orderID string) (*model.Order, error) {
	var order *model.Order
	err := s.withOrderLock(ctx, orderID, func() error {
		var err error
		order, err = s.loadOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order.BuyerUserID != user.ID && !user.IsStaff() {
			return apperr.New(apperr.Forbidden, constants.ErrNotOrderStakeholder)
		}
		before := orderSnapshot(order)
		if err := Transition(order, model.OrderCancelled); err != nil {
			return err
		}
		ok, err := s.orders.UpdateCAS(ctx, order)
		if err != nil {
			return apperr.Wrap(err, "更新订单失败")
		}
		if !ok {
			return apperr.New(apperr.Conflict, constants.ErrOrderStatusConflict)
		}
		if user.IsStaff() {
			s.audit.Record(user.ID, "order.cancel", "order", order.ID, before, orderSnapshot(order))
		}
		s.logger.Info("订单已取消", "order_id", order.ID, "operator", user.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// GetSettlement 获取订单结算单，首次读取时按当前规则计算并落库。
// 结算单建成后规则变更不再影响它。
func (s *OrderOrchestrator) GetSettlement(ctx context.Context, orderID string) (*model.Settlement, error) {
	var settlement *model.Settlement
	err := s.withOrderLock(ctx, orderID, func() error {
		order, err := s.loadOrder(ctx, orderID)
		if err != nil {
			return err
		}
		settlement, err = s.ensureSettlement(ctx, order)
		return err
	})
	if err != nil {
		return nil, err
	}
	return settlement, nil
}

func (s *OrderOrchestrator) ensureSettlement(ctx context.Context, order *model.Order) (*model.Settlement, error) {
	existing, err := s.settlements.GetByOrder(ctx, order.ID)
	if err != nil {
		return nil, apperr.Wrap(err, "查询结算单失败")
	}
	if existing != nil {
		return existing, nil
	}

	if order.Status != model.OrderReadyToSettle && order.Status != model.OrderCompleted {
		return nil, apperr.New(apperr.Conflict, "订单尚未到结算阶段")
	}
	if !order.DealAmountFen.Valid {
		return nil, apperr.New(apperr.Conflict, "成交价未录入，无法结算")
	}

	rules, err := s.rules.Current(ctx)
	if err != nil {
		return nil, err
	}
	commission, payout, err := ComputeSettlement(order.DealAmountFen.Int64, rules)
	if err != nil {
		return nil, err
	}
	settlement := &model.Settlement{
		ID:                  uuid.NewString(),
		OrderID:             order.ID,
		GrossAmountFen:      order.DealAmountFen.Int64,
		CommissionAmountFen: commission,
		PayoutAmountFen:     payout,
		PayoutMethod:        rules.PayoutMethodDefault,
		PayoutStatus:        model.PayoutPending,
		Status:              model.SettlementPending,
		CreatedAt:           s.now(),
	}
	if err := s.settlements.Create(ctx, settlement); err != nil {
		return nil, apperr.Wrap(err, "创建结算单失败")
	}
	s.logger.Info("结算单已生成", "order_id", order.ID, "settlement_id", settlement.ID,
		"gross_fen", settlement.GrossAmountFen, "commission_fen", commission, "payout_fen", payout)
	return settlement, nil
}

// ManualPayout 管理员向卖家打款。打款成功后结算单不可变，重复调用
// 原样返回既有结算单；服务商返回FAILED时结算单标记失败，订单不动，可重试。
func (s *OrderOrchestrator) ManualPayout(ctx context.Context, admin *model.User, orderID string) (*model.Settlement, error) {
	var settlement *model.Settlement
	var payee string
	err := s.withOrderLock(ctx, orderID, func() error {
		order, err := s.loadOrder(ctx, orderID)
		if err != nil {
			return err
		}
		payee = order.SellerUserID
		settlement, err = s.ensureSettlement(ctx, order)
		if err != nil {
			return err
		}
		if settlement.PayoutStatus == model.PayoutSucceeded {
			return nil
		}
		if order.Status != model.OrderReadyToSettle {
			return apperr.New(apperr.Conflict, constants.ErrOrderStatusConflict)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if settlement.PayoutStatus == model.PayoutSucceeded {
		return settlement, nil
	}

	// 锁外调服务商，幂等键绑定结算单
	result, err := s.provider.Payout(ctx, payment.PayoutRequest{
		OrderID:        orderID,
		PayeeUserID:    payee,
		AmountFen:      settlement.PayoutAmountFen,
		Method:         settlement.PayoutMethod,
		IdempotencyKey: "payout:" + settlement.ID,
	})
	if err != nil {
		s.logger.Error("打款服务商不可用", "order_id", orderID, "error", err)
		return nil, apperr.New(apperr.Retryable, constants.ErrPaymentUnavailable)
	}

	err = s.withOrderLock(ctx, orderID, func() error {
		order, err := s.loadOrder(ctx, orderID)
		if err != nil {
			return err
		}
		current, err := s.settlements.GetByOrder(ctx, orderID)
		if err != nil {
			return apperr.Wrap(err, "查询结算单失败")
		}
		settlement = current
		if settlement.PayoutStatus == model.PayoutSucceeded {
			return nil
		}

		if result.Status != payment.ResultPaid {
			if err := s.settlements.MarkPayoutFailed(ctx, settlement.ID); err != nil {
				return apperr.Wrap(err, "更新结算单失败")
			}
			settlement.PayoutStatus = model.PayoutFailed
			s.logger.Warn("打款失败", "order_id", orderID, "reason", result.Reason)
			return nil
		}

		now := s.now()
		if err := s.settlements.MarkPayoutSucceeded(ctx, settlement.ID, now); err != nil {
			return apperr.Wrap(err, "更新结算单失败")
		}
		settlement.PayoutStatus = model.PayoutSucceeded
		settlement.Status = model.SettlementCompleted
		settlement.PayoutAt = sql.NullTime{Time: now, Valid: true}

		before := orderSnapshot(order)
		if err := Transition(order, model.OrderCompleted); err != nil {
			return err
		}
		ok, err := s.orders.UpdateCAS(ctx, order)
		if err != nil {
			return apperr.Wrap(err, "更新订单失败")
		}
		if !ok {
			return apperr.New(apperr.Conflict, constants.ErrOrderStatusConflict)
		}
		if err := s.listings.MarkSold(ctx, order.ListingID); err != nil {
			s.logger.Warn("更新挂牌为已成交失败", "listing_id", order.ListingID, "error", err)
		}
		s.audit.Record(admin.ID, "order.payout", "order", order.ID, before, orderSnapshot(order))
		s.logger.Info("打款成功，订单完成", "order_id", order.ID,
			"payout_fen", settlement.PayoutAmountFen, "trade_no", result.TradeNo)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return settlement, nil
}

// CreateRefundRequest 买家（或平台人员代客）提交退款申请。
// 同一订单同时只允许一条待处理申请，锁内复查。
func (s *OrderOrchestrator) CreateRefundRequest(ctx context.Context, user *model.User, orderID, reasonCode, reasonText string) (*model.RefundRequest, error) {
	if reasonCode == "" {
		return nil, apperr.New(apperr.Validation, "退款原因不能为空")
	}
	var req *model.RefundRequest
	err := s.withOrderLock(ctx, orderID, func() error {
		order, err := s.loadOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order.BuyerUserID != user.ID && !user.IsStaff() {
			return apperr.New(apperr.Forbidden, constants.ErrNotOrderStakeholder)
		}
		if order.Status.IsTerminal() {
			return apperr.New(apperr.Conflict, "订单已结束，不能申请退款")
		}
		pending, err := s.refunds.GetPendingByOrder(ctx, orderID)
		if err != nil {
			return apperr.Wrap(err, "查询退款申请失败")
		}
		if pending != nil {
			return apperr.New(apperr.Conflict, constants.ErrRefundPendingExists)
		}
		req = &model.RefundRequest{
			ID:         uuid.NewString(),
			OrderID:    orderID,
			ReasonCode: reasonCode,
			Status:     model.RefundPending,
			CreatedAt:  s.now(),
		}
		if reasonText != "" {
			req.ReasonText = sql.NullString{String: reasonText, Valid: true}
		}
		if err := s.refunds.Create(ctx, req); err != nil {
			return apperr.Wrap(err, "创建退款申请失败")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// ListRefundRequests 查看订单的退款申请
func (s *OrderOrchestrator) ListRefundRequests(ctx context.Context, user *model.User, orderID string) ([]model.RefundRequest, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.mustStakeholder(user, order); err != nil {
		return nil, err
	}
	list, err := s.refunds.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, apperr.Wrap(err, "查询退款申请失败")
	}
	return list, nil
}

// ResolveRefund 管理员处理退款申请。
// 通过：订单转REFUNDING，退已付款项，服务商确认后转REFUNDED；
// 驳回：申请关闭，订单不动。服务商不可用时申请保持APPROVED，可重试。
func (s *OrderOrchestrator) ResolveRefund(ctx context.Context, admin *model.User, refundID string, approve bool) (*model.RefundRequest, error) {
	req, err := s.refunds.GetByID(ctx, refundID)
	if err != nil {
		return nil, apperr.Wrap(err, "查询退款申请失败")
	}
	if req == nil {
		return nil, apperr.New(apperr.NotFound, constants.ErrRefundNotFound)
	}

	if !approve {
		err := s.withOrderLock(ctx, req.OrderID, func() error {
			// 锁外的读取可能已过期，持锁后重读再判状态
			fresh, err := s.refunds.GetByID(ctx, refundID)
			if err != nil {
				return apperr.Wrap(err, "查询退款申请失败")
			}
			if fresh == nil || fresh.Status != model.RefundPending {
				return apperr.New(apperr.Conflict, constants.ErrRefundAlreadyHandled)
			}
			if err := s.refunds.UpdateStatus(ctx, fresh.ID, model.RefundRejected); err != nil {
				return apperr.Wrap(err, "更新退款申请失败")
			}
			fresh.Status = model.RefundRejected
			req = fresh
			s.audit.Record(admin.ID, "refund.reject", "refund_request", req.ID, nil, req)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return req, nil
	}

	var refundAmountFen int64
	err = s.withOrderLock(ctx, req.OrderID, func() error {
		fresh, err := s.refunds.GetByID(ctx, refundID)
		if err != nil {
			return apperr.Wrap(err, "查询退款申请失败")
		}
		if fresh == nil {
			return apperr.New(apperr.NotFound, constants.ErrRefundNotFound)
		}
		req = fresh
		order, err := s.loadOrder(ctx, req.OrderID)
		if err != nil {
			return err
		}
		switch req.Status {
		case model.RefundRejected:
			return apperr.New(apperr.Conflict, constants.ErrRefundAlreadyHandled)
		case model.RefundApproved:
			// 上次服务商往返未完成，直接进入重试
		case model.RefundPending:
			before := orderSnapshot(order)
			if err := Transition(order, model.OrderRefunding); err != nil {
				return err
			}
			ok, err := s.orders.UpdateCAS(ctx, order)
			if err != nil {
				return apperr.Wrap(err, "更新订单失败")
			}
			if !ok {
				return apperr.New(apperr.Conflict, constants.ErrOrderStatusConflict)
			}
			if err := s.refunds.UpdateStatus(ctx, req.ID, model.RefundApproved); err != nil {
				return apperr.Wrap(err, "更新退款申请失败")
			}
			req.Status = model.RefundApproved
			s.audit.Record(admin.ID, "refund.approve", "order", order.ID, before, orderSnapshot(order))
		}

		payments, err := s.payments.ListByOrder(ctx, req.OrderID)
		if err != nil {
			return apperr.Wrap(err, "查询支付流水失败")
		}
		for _, p := range payments {
			if p.Status == model.PaymentPaid {
				refundAmountFen += p.AmountFen
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result, err := s.provider.Refund(ctx, payment.RefundRequest{
		OrderID:        req.OrderID,
		AmountFen:      refundAmountFen,
		IdempotencyKey: "refund:" + req.ID,
	})
	if err != nil {
		s.logger.Error("退款服务商不可用", "order_id", req.OrderID, "error", err)
		return nil, apperr.New(apperr.Retryable, constants.ErrPaymentUnavailable)
	}
	if result.Status != payment.ResultPaid {
		s.logger.Warn("退款执行失败", "order_id", req.OrderID, "reason", result.Reason)
		return nil, apperr.New(apperr.Retryable, "退款执行失败，请重试")
	}

	err = s.withOrderLock(ctx, req.OrderID, func() error {
		order, err := s.loadOrder(ctx, req.OrderID)
		if err != nil {
			return err
		}
		if order.Status != model.OrderRefunding {
			return nil
		}
		if err := Transition(order, model.OrderRefunded); err != nil {
			return err
		}
		ok, err := s.orders.UpdateCAS(ctx, order)
		if err != nil {
			return apperr.Wrap(err, "更新订单失败")
		}
		if !ok {
			return apperr.New(apperr.Conflict, constants.ErrOrderStatusConflict)
		}
		s.logger.Info("退款完成", "order_id", order.ID, "amount_fen", refundAmountFen)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// RequestInvoice 买家申请开票，生成一条工单由平台跟进
func (s *OrderOrchestrator) RequestInvoice(ctx context.Context, buyer *model.User, orderID string) (*model.SupportCase, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerUserID != buyer.ID {
		return nil, apperr.New(apperr.Forbidden, constants.ErrNotOrderStakeholder)
	}
	if order.InvoiceNo.Valid {
		return nil, apperr.New(apperr.Conflict, "发票已开具")
	}
	return s.registry.Create(ctx, CreateCaseInput{
		Title:         "发票申请：" + order.OrderNo,
		Type:          model.CaseTypeOrder,
		OrderID:       order.ID,
		RequesterName: buyer.Nickname,
	})
}

// AdminIssueInvoice 管理员录入发票号
func (s *OrderOrchestrator) AdminIssueInvoice(ctx context.Context, admin *model.User, orderID, invoiceNo string) (*model.Order, error) {
	if invoiceNo == "" {
		return nil, apperr.New(apperr.Validation, "发票号不能为空")
	}
	var order *model.Order
	err := s.withOrderLock(ctx, orderID, func() error {
		var err error
		order, err = s.loadOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order.InvoiceNo.Valid {
			return apperr.New(apperr.Conflict, "发票已开具")
		}
		before := orderSnapshot(order)
		order.InvoiceNo = sql.NullString{String: invoiceNo, Valid: true}
		order.InvoiceIssuedAt = sql.NullTime{Time: s.now(), Valid: true}
		ok, err := s.orders.UpdateCAS(ctx, order)
		if err != nil {
			return apperr.Wrap(err, "更新订单失败")
		}
		if !ok {
			return apperr.New(apperr.Conflict, constants.ErrOrderStatusConflict)
		}
		s.audit.Record(admin.ID, "order.invoice_issued", "order", order.ID, before, orderSnapshot(order))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ExpireStaleDepositOrders 取消超过支付时限仍未付订金的订单，返回取消数量
func (s *OrderOrchestrator) ExpireStaleDepositOrders(ctx context.Context) (int, error) {
	rules, err := s.rules.Current(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := s.now().Add(-time.Duration(rules.AutoRefundWindowMinutes) * time.Minute)
	stale, err := s.orders.ListDepositPendingBefore(ctx, cutoff)
	if err != nil {
		return 0, apperr.Wrap(err, "查询超时订单失败")
	}

	cancelled := 0
	for i := range stale {
		orderID := stale[i].ID
		err := s.withOrderLock(ctx, orderID, func() error {
			order, err := s.loadOrder(ctx, orderID)
			if err != nil {
				return err
			}
			if order.Status != model.OrderDepositPending {
				return nil
			}
			if err := Transition(order, model.OrderCancelled); err != nil {
				return err
			}
			ok, err := s.orders.UpdateCAS(ctx, order)
			if err != nil {
				return apperr.Wrap(err, "更新订单失败")
			}
			if ok {
				cancelled++
				s.logger.Info("超时未付订金，订单自动取消", "order_id", order.ID)
			}
			return nil
		})
		if err != nil {
			s.logger.Warn("自动取消订单失败", "order_id", orderID, "error", err)
		}
	}
	return cancelled, nil
}

func (s *OrderOrchestrator) withOrderLock(ctx context.Context, orderID string, fn func() error) error {
	release, err := s.locker.Acquire(ctx, "order:"+orderID, orderLockTTL)
	if err != nil {
		return apperr.Wrap(err, "获取订单锁失败")
	}
	defer release()
	return fn()
}

func (s *OrderOrchestrator) loadOrder(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, apperr.Wrap(err, "查询订单失败")
	}
	if order == nil {
		return nil, apperr.New(apperr.NotFound, constants.ErrOrderNotFound)
	}
	return order, nil
}

func (s *OrderOrchestrator) mustStakeholder(user *model.User, order *model.Order) error {
	if user.IsStaff() || order.BuyerUserID == user.ID || order.SellerUserID == user.ID {
		return nil
	}
	return apperr.New(apperr.Forbidden, constants.ErrNotOrderStakeholder)
}

// orderSnapshot 审计日志用的订单关键字段快照
func orderSnapshot(o *model.Order) map[string]interface{} {
	snap := map[string]interface{}{
		"status":             string(o.Status),
		"deposit_amount_fen": o.DepositAmountFen,
	}
	if o.DealAmountFen.Valid {
		snap["deal_amount_fen"] = o.DealAmountFen.Int64
	}
	if o.FinalAmountFen.Valid {
		snap["final_amount_fen"] = o.FinalAmountFen.Int64
	}
	if o.InvoiceNo.Valid {
		snap["invoice_no"] = o.InvoiceNo.String
	}
	return snap
}

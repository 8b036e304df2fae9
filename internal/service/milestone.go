package service

import (
	"context"
	"database/sql"
	"time"

	"techmart/internal/apperr"
	"techmart/internal/model"
	"techmart/pkg/logger"

	"github.com/google/uuid"
)

// TradeCaseStore 履约跟进单存储
type TradeCaseStore interface {
	GetByOrder(ctx context.Context, orderID string) (*model.TradeCase, error)
	Create(ctx context.Context, c *model.TradeCase) error
	CreateMilestones(ctx context.Context, milestones []model.Milestone) error
	ListMilestones(ctx context.Context, caseID string) ([]model.Milestone, error)
	MarkMilestoneDone(ctx context.Context, caseID, name string, now time.Time) error
	UpdateMilestoneDue(ctx context.Context, caseID, name string, dueAt time.Time) error
	ListOverdue(ctx context.Context, now time.Time) ([]model.Milestone, error)
}

// AddBusinessDays 从start起顺延n个工作日（跳过周六周日）
func AddBusinessDays(start time.Time, n int) time.Time {
	t := start
	for added := 0; added < n; {
		t = t.AddDate(0, 0, 1)
		if t.Weekday() != time.Saturday && t.Weekday() != time.Sunday {
			added++
		}
	}
	return t
}

// MilestoneView 带派生超期标记的里程碑视图
type MilestoneView struct {
	model.Milestone
	Overdue bool `json:"overdue"`
}

// TradeCaseView 跟进单视图
type TradeCaseView struct {
	Case       *model.TradeCase `json:"case"`
	Milestones []MilestoneView  `json:"milestones"`
}

// MilestoneTracker 履约里程碑跟踪。
// 跟进单在首次查看时惰性创建，里程碑按固定顺序生成。
type MilestoneTracker struct {
	cases  TradeCaseStore
	rules  *TradeRuleService
	logger *logger.Logger
	now    func() time.Time
}

// NewMilestoneTracker 创建里程碑跟踪器
func NewMilestoneTracker(cases TradeCaseStore, rules *TradeRuleService, log *logger.Logger) *MilestoneTracker {
	return &MilestoneTracker{cases: cases, rules: rules, logger: log, now: time.Now}
}

// EnsureCaseForOrder 获取订单跟进单，不存在则创建（含三个里程碑）。
// CONTRACT_SIGNED按规则顺延工作日；TRANSFER_COMPLETED的截止在签约完成后才计算。
func (t *MilestoneTracker) EnsureCaseForOrder(ctx context.Context, orderID string) (*TradeCaseView, error) {
	c, err := t.cases.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, apperr.Wrap(err, "读取跟进单失败")
	}
	if c == nil {
		rules, err := t.rules.Current(ctx)
		if err != nil {
			return nil, err
		}
		now := t.now()
		c = &model.TradeCase{
			ID:        uuid.NewString(),
			OrderID:   orderID,
			Status:    model.TradeCaseOpen,
			CreatedAt: now,
		}
		if err := t.cases.Create(ctx, c); err != nil {
			return nil, apperr.Wrap(err, "创建跟进单失败")
		}

		signDue := AddBusinessDays(now, rules.ContractSignedDeadlineBusinessDays)
		milestones := []model.Milestone{
			{
				ID: uuid.NewString(), CaseID: c.ID, OrderID: orderID,
				Name: model.MilestoneContractSigned, Status: model.MilestonePending,
				DueAt: sql.NullTime{Time: signDue, Valid: true},
			},
			{
				ID: uuid.NewString(), CaseID: c.ID, OrderID: orderID,
				Name: model.MilestoneTransferSubmitted, Status: model.MilestonePending,
			},
			{
				ID: uuid.NewString(), CaseID: c.ID, OrderID: orderID,
				Name: model.MilestoneTransferCompleted, Status: model.MilestonePending,
			},
		}
		if err := t.cases.CreateMilestones(ctx, milestones); err != nil {
			return nil, apperr.Wrap(err, "创建里程碑失败")
		}
		t.logger.Info("跟进单已创建", "order_id", orderID, "case_id", c.ID)
	}
	return t.buildView(ctx, c)
}

// MarkDone 标记里程碑完成。
// TRANSFER_COMPLETED必须在CONTRACT_SIGNED完成之后；CONTRACT_SIGNED完成时
// 按日历天SLA计算TRANSFER_COMPLETED的截止时间。
func (t *MilestoneTracker) MarkDone(ctx context.Context, orderID, name string) error {
	c, err := t.cases.GetByOrder(ctx, orderID)
	if err != nil {
		return apperr.Wrap(err, "读取跟进单失败")
	}
	if c == nil {
		return apperr.New(apperr.NotFound, "跟进单不存在")
	}

	milestones, err := t.cases.ListMilestones(ctx, c.ID)
	if err != nil {
		return apperr.Wrap(err, "读取里程碑失败")
	}
	byName := make(map[string]*model.Milestone, len(milestones))
	for i := range milestones {
		byName[milestones[i].Name] = &milestones[i]
	}

	target, ok := byName[name]
	if !ok {
		return apperr.New(apperr.NotFound, "里程碑不存在")
	}
	if target.Status == model.MilestoneDone {
		return nil
	}
	if name == model.MilestoneTransferCompleted {
		signed := byName[model.MilestoneContractSigned]
		if signed == nil || signed.Status != model.MilestoneDone {
			return apperr.New(apperr.Conflict, "签约里程碑未完成，不能标记过户完成")
		}
	}

	now := t.now()
	if err := t.cases.MarkMilestoneDone(ctx, c.ID, name, now); err != nil {
		return apperr.Wrap(err, "更新里程碑失败")
	}

	if name == model.MilestoneContractSigned {
		rules, err := t.rules.Current(ctx)
		if err != nil {
			return err
		}
		due := now.AddDate(0, 0, rules.TransferCompletedSlaDays)
		if err := t.cases.UpdateMilestoneDue(ctx, c.ID, model.MilestoneTransferCompleted, due); err != nil {
			return apperr.Wrap(err, "更新过户截止时间失败")
		}
	}
	return nil
}

// ListOverdue 获取所有超期的PENDING里程碑（SLA调度器用）
func (t *MilestoneTracker) ListOverdue(ctx context.Context) ([]model.Milestone, error) {
	return t.cases.ListOverdue(ctx, t.now())
}

func (t *MilestoneTracker) buildView(ctx context.Context, c *model.TradeCase) (*TradeCaseView, error) {
	milestones, err := t.cases.ListMilestones(ctx, c.ID)
	if err != nil {
		return nil, apperr.Wrap(err, "读取里程碑失败")
	}
	now := t.now()
	views := make([]MilestoneView, 0, len(milestones))
	for _, m := range milestones {
		views = append(views, MilestoneView{Milestone: m, Overdue: m.IsOverdue(now)})
	}
	return &TradeCaseView{Case: c, Milestones: views}, nil
}

package service

import (
	"context"
	"testing"
	"time"

	"techmart/internal/apperr"
	"techmart/internal/model"
)

func TestAddBusinessDays(t *testing.T) {
	// 2026-08-28是周五
	friday := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	// 周五+1个工作日 = 下周一
	got := AddBusinessDays(friday, 1)
	if got.Weekday() != time.Monday || got.Day() != 31 {
		t.Errorf("周五+1个工作日应为下周一8/31，实际: %v", got)
	}

	// 周五+10个工作日 = 两周后的周五
	got = AddBusinessDays(friday, 10)
	want := time.Date(2026, 9, 11, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("周五+10个工作日应为%v，实际: %v", want, got)
	}

	// 周一+5个工作日 = 下周一
	monday := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	got = AddBusinessDays(monday, 5)
	if got.Weekday() != time.Monday || got.Day() != 7 {
		t.Errorf("周一+5个工作日应为下周一9/7，实际: %v", got)
	}
}

func TestEnsureCaseForOrderCreatesMilestones(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	view, err := env.tracker.EnsureCaseForOrder(ctx, "order-1")
	if err != nil {
		t.Fatalf("创建跟进单失败: %v", err)
	}
	if view.Case.Status != model.TradeCaseOpen {
		t.Errorf("期望跟进单OPEN，实际: %s", view.Case.Status)
	}
	if len(view.Milestones) != 3 {
		t.Fatalf("期望3个里程碑，实际: %d", len(view.Milestones))
	}
	names := []string{
		model.MilestoneContractSigned,
		model.MilestoneTransferSubmitted,
		model.MilestoneTransferCompleted,
	}
	for i, m := range view.Milestones {
		if m.Name != names[i] {
			t.Errorf("里程碑[%d]期望%s，实际%s", i, names[i], m.Name)
		}
		if m.Status != model.MilestonePending {
			t.Errorf("里程碑%s应为PENDING", m.Name)
		}
	}
	// 签约里程碑有截止时间，过户完成的截止要等签约后才计算
	if !view.Milestones[0].DueAt.Valid {
		t.Error("签约里程碑应有截止时间")
	}
	if view.Milestones[2].DueAt.Valid {
		t.Error("过户完成里程碑的截止时间应在签约后才设置")
	}

	// 再次访问不重复创建
	again, err := env.tracker.EnsureCaseForOrder(ctx, "order-1")
	if err != nil {
		t.Fatalf("二次访问失败: %v", err)
	}
	if again.Case.ID != view.Case.ID {
		t.Error("二次访问应返回同一跟进单")
	}
}

func TestMarkDoneOrdering(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	if _, err := env.tracker.EnsureCaseForOrder(ctx, "order-1"); err != nil {
		t.Fatalf("创建跟进单失败: %v", err)
	}

	// 签约未完成时不能标记过户完成
	err := env.tracker.MarkDone(ctx, "order-1", model.MilestoneTransferCompleted)
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Fatalf("期望CONFLICT，实际: %v", err)
	}

	if err := env.tracker.MarkDone(ctx, "order-1", model.MilestoneContractSigned); err != nil {
		t.Fatalf("标记签约失败: %v", err)
	}
	// 签约完成后过户完成里程碑获得SLA截止时间
	view, _ := env.tracker.EnsureCaseForOrder(ctx, "order-1")
	if !view.Milestones[2].DueAt.Valid {
		t.Error("签约后过户完成里程碑应有截止时间")
	}

	if err := env.tracker.MarkDone(ctx, "order-1", model.MilestoneTransferCompleted); err != nil {
		t.Fatalf("标记过户完成失败: %v", err)
	}
	// 重复标记幂等
	if err := env.tracker.MarkDone(ctx, "order-1", model.MilestoneTransferCompleted); err != nil {
		t.Fatalf("重复标记应幂等: %v", err)
	}
}

func TestMilestoneOverdue(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	base := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC) // 周一
	env.tracker.now = func() time.Time { return base }
	if _, err := env.tracker.EnsureCaseForOrder(ctx, "order-1"); err != nil {
		t.Fatalf("创建跟进单失败: %v", err)
	}

	// 截止前无超期
	overdue, err := env.tracker.ListOverdue(ctx)
	if err != nil {
		t.Fatalf("查询超期失败: %v", err)
	}
	if len(overdue) != 0 {
		t.Errorf("截止前不应有超期里程碑，实际: %d", len(overdue))
	}

	// 时间推到签约截止（10个工作日）之后
	env.tracker.now = func() time.Time { return base.AddDate(0, 0, 20) }
	overdue, err = env.tracker.ListOverdue(ctx)
	if err != nil {
		t.Fatalf("查询超期失败: %v", err)
	}
	if len(overdue) != 1 || overdue[0].Name != model.MilestoneContractSigned {
		t.Fatalf("期望仅签约里程碑超期，实际: %+v", overdue)
	}

	// DONE的里程碑不算超期
	if err := env.tracker.MarkDone(ctx, "order-1", model.MilestoneContractSigned); err != nil {
		t.Fatalf("标记签约失败: %v", err)
	}
	overdue, _ = env.tracker.ListOverdue(ctx)
	if len(overdue) != 0 {
		t.Errorf("完成后不应再超期，实际: %d", len(overdue))
	}
}

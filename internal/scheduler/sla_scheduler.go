package scheduler

import (
	"context"
	"time"

	"techmart/internal/service"
	"techmart/pkg/logger"
)

// SlaScheduler SLA调度器。周期性地：
// 1. 取消超过支付时限仍未付订金的订单
// 2. 为里程碑超期的订单开升级工单
// 3. 记录超期未关闭的客服工单
type SlaScheduler struct {
	orders   *service.OrderOrchestrator
	tracker  *service.MilestoneTracker
	registry *service.CaseRegistry
	interval time.Duration
	logger   *logger.Logger
	quit     chan struct{}
}

// NewSlaScheduler 创建SLA调度器实例
func NewSlaScheduler(
	orders *service.OrderOrchestrator,
	tracker *service.MilestoneTracker,
	registry *service.CaseRegistry,
	interval time.Duration,
	logger *logger.Logger,
) *SlaScheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SlaScheduler{
		orders:   orders,
		tracker:  tracker,
		registry: registry,
		interval: interval,
		logger:   logger,
		quit:     make(chan struct{}),
	}
}

// Start 启动SLA调度器
func (s *SlaScheduler) Start() {
	go s.loop()
	s.logger.Info("SLA调度器启动", "interval", s.interval)
}

// Stop 停止SLA调度器
func (s *SlaScheduler) Stop() {
	close(s.quit)
	s.logger.Info("SLA调度器停止")
}

func (s *SlaScheduler) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce()
		case <-s.quit:
			return
		}
	}
}

func (s *SlaScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.expireStaleOrders(ctx)
	s.escalateOverdueMilestones(ctx)
	s.reportOverdueCases(ctx)
}

func (s *SlaScheduler) expireStaleOrders(ctx context.Context) {
	cancelled, err := s.orders.ExpireStaleDepositOrders(ctx)
	if err != nil {
		s.logger.Error("订金超时扫描失败", "error", err)
		return
	}
	if cancelled > 0 {
		s.logger.Info("订金超时订单已取消", "count", cancelled)
	}
}

func (s *SlaScheduler) escalateOverdueMilestones(ctx context.Context) {
	overdue, err := s.tracker.ListOverdue(ctx)
	if err != nil {
		s.logger.Error("里程碑超期扫描失败", "error", err)
		return
	}
	for _, m := range overdue {
		if err := s.registry.EnsureEscalationForOrder(ctx, m.OrderID, m.Name); err != nil {
			s.logger.Error("开升级工单失败", "order_id", m.OrderID, "milestone", m.Name, "error", err)
		}
	}
}

func (s *SlaScheduler) reportOverdueCases(ctx context.Context) {
	cases, err := s.registry.ListOverdueOpen(ctx)
	if err != nil {
		s.logger.Error("工单超期扫描失败", "error", err)
		return
	}
	for _, c := range cases {
		s.logger.Warn("工单已超期", "case_id", c.ID, "type", c.Type,
			"priority", c.Priority, "due_at", c.DueAt.Time)
	}
}

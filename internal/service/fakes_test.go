package service

import (
	"context"
	"sync"
	"time"

	"techmart/internal/model"
	"techmart/internal/repository"
	"techmart/pkg/async"
	"techmart/pkg/lock"
	"techmart/pkg/logger"
	"techmart/pkg/payment"
)

// 内存版存储实现，行为对齐sqlx存储库：读返回副本，未命中返回(nil, nil)。

type fakeKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeKV() *fakeKV { return &fakeKV{data: make(map[string]string)} }

func (s *fakeKV) GetValue(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key], nil
}

func (s *fakeKV) SetValue(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

type fakeOrderStore struct {
	mu     sync.Mutex
	orders map[string]model.Order
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[string]model.Order)}
}

func (s *fakeOrderStore) Create(_ context.Context, o *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = *o
	return nil
}

func (s *fakeOrderStore) GetByID(_ context.Context, id string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (s *fakeOrderStore) List(_ context.Context, f repository.OrderListFilter) ([]model.Order, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Order
	for _, o := range s.orders {
		if f.BuyerUserID != "" && o.BuyerUserID != f.BuyerUserID {
			continue
		}
		if f.SellerUserID != "" && o.SellerUserID != f.SellerUserID {
			continue
		}
		if f.Status != "" && string(o.Status) != f.Status {
			continue
		}
		out = append(out, o)
	}
	return out, len(out), nil
}

func (s *fakeOrderStore) UpdateCAS(_ context.Context, o *model.Order) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.orders[o.ID]
	if !ok || stored.Version != o.Version {
		return false, nil
	}
	next := *o
	next.Version = o.Version + 1
	s.orders[o.ID] = next
	o.Version++
	return true, nil
}

func (s *fakeOrderStore) ListDepositPendingBefore(_ context.Context, cutoff time.Time) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Order
	for _, o := range s.orders {
		if o.Status == model.OrderDepositPending && o.CreatedAt.Before(cutoff) {
			out = append(out, o)
		}
	}
	return out, nil
}

type fakePaymentStore struct {
	mu       sync.Mutex
	payments map[string]model.Payment // key: id
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{payments: make(map[string]model.Payment)}
}

func (s *fakePaymentStore) Create(_ context.Context, p *model.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[p.ID] = *p
	return nil
}

func (s *fakePaymentStore) GetPaid(_ context.Context, orderID, payType string) (*model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.OrderID == orderID && p.PayType == payType && p.Status == model.PaymentPaid {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakePaymentStore) GetByIdempotencyKey(_ context.Context, key string) (*model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.IdempotencyKey == key {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakePaymentStore) ListByOrder(_ context.Context, orderID string) ([]model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Payment
	for _, p := range s.payments {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakePaymentStore) MarkPaid(_ context.Context, id, tradeNo string, paidAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.payments[id]
	p.Status = model.PaymentPaid
	p.TradeNo.String, p.TradeNo.Valid = tradeNo, tradeNo != ""
	p.PaidAt.Time, p.PaidAt.Valid = paidAt, true
	s.payments[id] = p
	return nil
}

func (s *fakePaymentStore) MarkFailed(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.payments[id]
	p.Status = model.PaymentFailed
	s.payments[id] = p
	return nil
}

func (s *fakePaymentStore) paidCount(orderID, payType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.payments {
		if p.OrderID == orderID && p.PayType == payType && p.Status == model.PaymentPaid {
			n++
		}
	}
	return n
}

type fakeRefundStore struct {
	mu      sync.Mutex
	refunds map[string]model.RefundRequest
}

func newFakeRefundStore() *fakeRefundStore {
	return &fakeRefundStore{refunds: make(map[string]model.RefundRequest)}
}

func (s *fakeRefundStore) Create(_ context.Context, req *model.RefundRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refunds[req.ID] = *req
	return nil
}

func (s *fakeRefundStore) GetByID(_ context.Context, id string) (*model.RefundRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.refunds[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *fakeRefundStore) GetPendingByOrder(_ context.Context, orderID string) (*model.RefundRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.refunds {
		if r.OrderID == orderID && r.Status == model.RefundPending {
			cp := r
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeRefundStore) ListByOrder(_ context.Context, orderID string) ([]model.RefundRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.RefundRequest
	for _, r := range s.refunds {
		if r.OrderID == orderID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeRefundStore) UpdateStatus(_ context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.refunds[id]
	r.Status = status
	s.refunds[id] = r
	return nil
}

type fakeSettlementStore struct {
	mu          sync.Mutex
	settlements map[string]model.Settlement // key: order_id
}

func newFakeSettlementStore() *fakeSettlementStore {
	return &fakeSettlementStore{settlements: make(map[string]model.Settlement)}
}

func (s *fakeSettlementStore) Create(_ context.Context, st *model.Settlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settlements[st.OrderID] = *st
	return nil
}

func (s *fakeSettlementStore) GetByOrder(_ context.Context, orderID string) (*model.Settlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.settlements[orderID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (s *fakeSettlementStore) MarkPayoutSucceeded(_ context.Context, id string, payoutAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for orderID, st := range s.settlements {
		if st.ID == id && st.PayoutStatus != model.PayoutSucceeded {
			st.PayoutStatus = model.PayoutSucceeded
			st.Status = model.SettlementCompleted
			st.PayoutAt.Time, st.PayoutAt.Valid = payoutAt, true
			s.settlements[orderID] = st
		}
	}
	return nil
}

func (s *fakeSettlementStore) MarkPayoutFailed(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for orderID, st := range s.settlements {
		if st.ID == id && st.PayoutStatus != model.PayoutSucceeded {
			st.PayoutStatus = model.PayoutFailed
			s.settlements[orderID] = st
		}
	}
	return nil
}

type fakeListingStore struct {
	mu       sync.Mutex
	listings map[string]model.Listing
}

func newFakeListingStore() *fakeListingStore {
	return &fakeListingStore{listings: make(map[string]model.Listing)}
}

func (s *fakeListingStore) put(l model.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings[l.ID] = l
}

func (s *fakeListingStore) GetByID(_ context.Context, id string) (*model.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (s *fakeListingStore) MarkSold(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.listings[id]
	l.Status = model.ListingSold
	s.listings[id] = l
	return nil
}

type fakeTradeCaseStore struct {
	mu         sync.Mutex
	cases      map[string]model.TradeCase // key: order_id
	milestones []model.Milestone
}

func newFakeTradeCaseStore() *fakeTradeCaseStore {
	return &fakeTradeCaseStore{cases: make(map[string]model.TradeCase)}
}

func (s *fakeTradeCaseStore) GetByOrder(_ context.Context, orderID string) (*model.TradeCase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[orderID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *fakeTradeCaseStore) Create(_ context.Context, c *model.TradeCase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases[c.OrderID] = *c
	return nil
}

func (s *fakeTradeCaseStore) CreateMilestones(_ context.Context, milestones []model.Milestone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.milestones = append(s.milestones, milestones...)
	return nil
}

func (s *fakeTradeCaseStore) ListMilestones(_ context.Context, caseID string) ([]model.Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Milestone
	for _, m := range s.milestones {
		if m.CaseID == caseID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeTradeCaseStore) MarkMilestoneDone(_ context.Context, caseID, name string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.milestones {
		m := &s.milestones[i]
		if m.CaseID == caseID && m.Name == name && m.Status == model.MilestonePending {
			m.Status = model.MilestoneDone
			m.DoneAt.Time, m.DoneAt.Valid = now, true
		}
	}
	return nil
}

func (s *fakeTradeCaseStore) UpdateMilestoneDue(_ context.Context, caseID, name string, dueAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.milestones {
		m := &s.milestones[i]
		if m.CaseID == caseID && m.Name == name {
			m.DueAt.Time, m.DueAt.Valid = dueAt, true
		}
	}
	return nil
}

func (s *fakeTradeCaseStore) ListOverdue(_ context.Context, now time.Time) ([]model.Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Milestone
	for _, m := range s.milestones {
		if m.IsOverdue(now) {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeSupportCaseStore struct {
	mu        sync.Mutex
	cases     map[string]model.SupportCase
	notes     []model.CaseNote
	evidences []model.CaseEvidence
}

func newFakeSupportCaseStore() *fakeSupportCaseStore {
	return &fakeSupportCaseStore{cases: make(map[string]model.SupportCase)}
}

func (s *fakeSupportCaseStore) Create(_ context.Context, c *model.SupportCase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases[c.ID] = *c
	return nil
}

func (s *fakeSupportCaseStore) GetByID(_ context.Context, id string) (*model.SupportCase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *fakeSupportCaseStore) GetOpenByOrderAndType(_ context.Context, orderID, caseType string) (*model.SupportCase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cases {
		if c.OrderID.Valid && c.OrderID.String == orderID && c.Type == caseType &&
			c.Status != model.CaseResolved && c.Status != model.CaseClosed {
			cp := c
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeSupportCaseStore) List(_ context.Context, f repository.CaseListFilter) ([]model.SupportCase, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.SupportCase
	for _, c := range s.cases {
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.Type != "" && c.Type != f.Type {
			continue
		}
		if f.AssigneeID != "" && (!c.AssigneeID.Valid || c.AssigneeID.String != f.AssigneeID) {
			continue
		}
		if f.OrderID != "" && (!c.OrderID.Valid || c.OrderID.String != f.OrderID) {
			continue
		}
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

func (s *fakeSupportCaseStore) UpdateStatus(_ context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cases[id]
	c.Status = status
	s.cases[id] = c
	return nil
}

func (s *fakeSupportCaseStore) Assign(_ context.Context, id, assigneeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cases[id]
	c.AssigneeID.String, c.AssigneeID.Valid = assigneeID, true
	if c.Status == model.CaseNew {
		c.Status = model.CaseInProgress
	}
	s.cases[id] = c
	return nil
}

func (s *fakeSupportCaseStore) UpdatePriority(_ context.Context, id, priority string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cases[id]
	c.Priority = priority
	s.cases[id] = c
	return nil
}

func (s *fakeSupportCaseStore) ListOverdueOpen(_ context.Context, now time.Time) ([]model.SupportCase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.SupportCase
	for _, c := range s.cases {
		if c.DueAt.Valid && now.After(c.DueAt.Time) &&
			c.Status != model.CaseResolved && c.Status != model.CaseClosed {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeSupportCaseStore) AddNote(_ context.Context, n *model.CaseNote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, *n)
	return nil
}

func (s *fakeSupportCaseStore) ListNotes(_ context.Context, caseID string) ([]model.CaseNote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.CaseNote
	for _, n := range s.notes {
		if n.CaseID == caseID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *fakeSupportCaseStore) AddEvidence(_ context.Context, e *model.CaseEvidence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evidences = append(s.evidences, *e)
	return nil
}

func (s *fakeSupportCaseStore) ListEvidences(_ context.Context, caseID string) ([]model.CaseEvidence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.CaseEvidence
	for _, e := range s.evidences {
		if e.CaseID == caseID {
			out = append(out, e)
		}
	}
	return out, nil
}

// testEnv 测试装配：内存存储 + 进程内锁 + 模拟服务商
type testEnv struct {
	orders      *fakeOrderStore
	payments    *fakePaymentStore
	refunds     *fakeRefundStore
	settlements *fakeSettlementStore
	listings    *fakeListingStore
	tradeCases  *fakeTradeCaseStore
	support     *fakeSupportCaseStore
	provider    *payment.MockProvider
	rules       *TradeRuleService
	tracker     *MilestoneTracker
	registry    *CaseRegistry
	svc         *OrderOrchestrator
	worker      *async.Worker
}

func newTestEnv() *testEnv {
	log := logger.NewLogger("error")
	worker := async.NewWorker(64, log)
	worker.Start(1)

	env := &testEnv{
		orders:      newFakeOrderStore(),
		payments:    newFakePaymentStore(),
		refunds:     newFakeRefundStore(),
		settlements: newFakeSettlementStore(),
		listings:    newFakeListingStore(),
		tradeCases:  newFakeTradeCaseStore(),
		support:     newFakeSupportCaseStore(),
		provider:    payment.NewMockProvider(),
		worker:      worker,
	}
	env.rules = NewTradeRuleService(newFakeKV(), nil, log)
	env.tracker = NewMilestoneTracker(env.tradeCases, env.rules, log)
	env.registry = NewCaseRegistry(env.support, log)
	audit := NewAuditService(&nopAuditStore{}, worker, log)
	env.svc = NewOrderOrchestrator(
		env.orders, env.payments, env.refunds, env.settlements, env.listings,
		env.tracker, env.registry, env.rules, env.provider,
		lock.NewMemoryLocker(), audit, log)
	return env
}

type nopAuditStore struct{}

func (nopAuditStore) Create(context.Context, *model.AuditLog) error { return nil }
func (nopAuditStore) ListByTarget(context.Context, string, string) ([]model.AuditLog, error) {
	return nil, nil
}

func (e *testEnv) seedListing(id, sellerID string, depositFen int64) {
	e.listings.put(model.Listing{
		ID:               id,
		SellerUserID:     sellerID,
		Title:            "测试挂牌",
		DepositAmountFen: depositFen,
		AuditStatus:      model.AuditApproved,
		Status:           model.ListingActive,
	})
}

var (
	testBuyer  = &model.User{ID: "buyer-1", Username: "buyer", Nickname: "买家", Role: model.RoleUser}
	testSeller = &model.User{ID: "seller-1", Username: "seller", Nickname: "卖家", Role: model.RoleUser}
	testAdmin  = &model.User{ID: "admin-1", Username: "admin", Nickname: "管理员", Role: model.RoleAdmin}
)

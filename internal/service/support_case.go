package service

import (
	"context"
	"database/sql"
	"time"

	"techmart/internal/apperr"
	"techmart/internal/constants"
	"techmart/internal/model"
	"techmart/internal/repository"
	"techmart/pkg/logger"

	"github.com/google/uuid"
)

// SupportCaseStore 客服工单存储
type SupportCaseStore interface {
	Create(ctx context.Context, c *model.SupportCase) error
	GetByID(ctx context.Context, id string) (*model.SupportCase, error)
	GetOpenByOrderAndType(ctx context.Context, orderID, caseType string) (*model.SupportCase, error)
	List(ctx context.Context, f repository.CaseListFilter) ([]model.SupportCase, int64, error)
	UpdateStatus(ctx context.Context, id, status string) error
	Assign(ctx context.Context, id, assigneeID string) error
	UpdatePriority(ctx context.Context, id, priority string) error
	ListOverdueOpen(ctx context.Context, now time.Time) ([]model.SupportCase, error)
	AddNote(ctx context.Context, n *model.CaseNote) error
	ListNotes(ctx context.Context, caseID string) ([]model.CaseNote, error)
	AddEvidence(ctx context.Context, e *model.CaseEvidence) error
	ListEvidences(ctx context.Context, caseID string) ([]model.CaseEvidence, error)
}

// 工单状态流转表
var caseTransitions = map[string][]string{
	model.CaseNew:             {model.CaseInProgress, model.CaseClosed},
	model.CaseInProgress:      {model.CaseWaitingMaterial, model.CaseResolved, model.CaseClosed},
	model.CaseWaitingMaterial: {model.CaseInProgress, model.CaseResolved, model.CaseClosed},
	model.CaseResolved:        {model.CaseClosed, model.CaseInProgress},
	model.CaseClosed:          {},
}

// CreateCaseInput 创建工单参数
type CreateCaseInput struct {
	Title         string
	Type          string
	OrderID       string
	RequesterName string
	Priority      string
	Description   string
}

// CaseView 工单详情视图，含派生SLA状态
type CaseView struct {
	model.SupportCase
	SlaStatus string               `json:"sla_status,omitempty"`
	Notes     []model.CaseNote     `json:"notes,omitempty"`
	Evidences []model.CaseEvidence `json:"evidences,omitempty"`
}

// CaseRegistry 客服工单登记处
type CaseRegistry struct {
	cases  SupportCaseStore
	logger *logger.Logger
	now    func() time.Time
}

// NewCaseRegistry 创建工单登记处
func NewCaseRegistry(cases SupportCaseStore, log *logger.Logger) *CaseRegistry {
	return &CaseRegistry{cases: cases, logger: log, now: time.Now}
}

// 按工单类型给出默认处理时限
func defaultDueOffset(caseType string) time.Duration {
	switch caseType {
	case model.CaseTypeAuditMaterial:
		return 3 * 24 * time.Hour
	case model.CaseTypeRefund:
		return 5 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}

// Create 创建工单，未指定优先级时为MEDIUM，截止时间按类型默认时限
func (r *CaseRegistry) Create(ctx context.Context, in CreateCaseInput) (*model.SupportCase, error) {
	if in.Title == "" {
		return nil, apperr.New(apperr.Validation, "工单标题不能为空")
	}
	switch in.Type {
	case model.CaseTypeOrder, model.CaseTypeRefund, model.CaseTypeAuditMaterial, model.CaseTypeDispute:
	default:
		return nil, apperr.New(apperr.Validation, "无效的工单类型")
	}
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}

	now := r.now()
	c := &model.SupportCase{
		ID:            uuid.NewString(),
		Title:         in.Title,
		Type:          in.Type,
		Status:        model.CaseNew,
		RequesterName: in.RequesterName,
		Priority:      in.Priority,
		DueAt:         sql.NullTime{Time: now.Add(defaultDueOffset(in.Type)), Valid: true},
		CreatedAt:     now,
	}
	if in.OrderID != "" {
		c.OrderID = sql.NullString{String: in.OrderID, Valid: true}
	}
	if in.Description != "" {
		c.Description = sql.NullString{String: in.Description, Valid: true}
	}
	if err := r.cases.Create(ctx, c); err != nil {
		return nil, apperr.Wrap(err, "创建工单失败")
	}
	return c, nil
}

// Get 获取工单详情（含备注、证据与SLA状态）
func (r *CaseRegistry) Get(ctx context.Context, id string) (*CaseView, error) {
	c, err := r.cases.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "查询工单失败")
	}
	if c == nil {
		return nil, apperr.New(apperr.NotFound, constants.ErrCaseNotFound)
	}
	notes, err := r.cases.ListNotes(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "查询工单备注失败")
	}
	evidences, err := r.cases.ListEvidences(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "查询工单证据失败")
	}
	return &CaseView{
		SupportCase: *c,
		SlaStatus:   c.SlaStatus(r.now()),
		Notes:       notes,
		Evidences:   evidences,
	}, nil
}

// List 分页查询工单
func (r *CaseRegistry) List(ctx context.Context, f repository.CaseListFilter) ([]CaseView, int64, error) {
	list, total, err := r.cases.List(ctx, f)
	if err != nil {
		return nil, 0, apperr.Wrap(err, "查询工单列表失败")
	}
	now := r.now()
	views := make([]CaseView, 0, len(list))
	for _, c := range list {
		views = append(views, CaseView{SupportCase: c, SlaStatus: c.SlaStatus(now)})
	}
	return views, total, nil
}

// Assign 指派处理人
func (r *CaseRegistry) Assign(ctx context.Context, id, assigneeID string) error {
	if _, err := r.mustGet(ctx, id); err != nil {
		return err
	}
	if err := r.cases.Assign(ctx, id, assigneeID); err != nil {
		return apperr.Wrap(err, "指派工单失败")
	}
	return nil
}

// UpdateStatus 按流转表推进工单状态
func (r *CaseRegistry) UpdateStatus(ctx context.Context, id, status string) error {
	c, err := r.mustGet(ctx, id)
	if err != nil {
		return err
	}
	allowed := false
	for _, s := range caseTransitions[c.Status] {
		if s == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return apperr.New(apperr.Conflict, "工单状态不允许此变更")
	}
	if err := r.cases.UpdateStatus(ctx, id, status); err != nil {
		return apperr.Wrap(err, "更新工单状态失败")
	}
	return nil
}

// AddNote 添加处理备注
func (r *CaseRegistry) AddNote(ctx context.Context, id string, author *model.User, content string) (*model.CaseNote, error) {
	if content == "" {
		return nil, apperr.New(apperr.Validation, "备注内容不能为空")
	}
	if _, err := r.mustGet(ctx, id); err != nil {
		return nil, err
	}
	n := &model.CaseNote{
		ID:         uuid.NewString(),
		CaseID:     id,
		AuthorID:   author.ID,
		AuthorName: author.Nickname,
		Content:    content,
		CreatedAt:  r.now(),
	}
	if err := r.cases.AddNote(ctx, n); err != nil {
		return nil, apperr.Wrap(err, "添加备注失败")
	}
	return n, nil
}

// AddEvidence 添加证据附件
func (r *CaseRegistry) AddEvidence(ctx context.Context, id, fileID, fileName, url string) (*model.CaseEvidence, error) {
	if fileID == "" || fileName == "" {
		return nil, apperr.New(apperr.Validation, "证据文件信息不完整")
	}
	if _, err := r.mustGet(ctx, id); err != nil {
		return nil, err
	}
	e := &model.CaseEvidence{
		ID:        uuid.NewString(),
		CaseID:    id,
		FileID:    fileID,
		FileName:  fileName,
		CreatedAt: r.now(),
	}
	if url != "" {
		e.URL = sql.NullString{String: url, Valid: true}
	}
	if err := r.cases.AddEvidence(ctx, e); err != nil {
		return nil, apperr.Wrap(err, "添加证据失败")
	}
	return e, nil
}

// UpdateSla 调整工单优先级
func (r *CaseRegistry) UpdateSla(ctx context.Context, id, priority string) error {
	switch priority {
	case model.PriorityLow, model.PriorityMedium, model.PriorityHigh:
	default:
		return apperr.New(apperr.Validation, "无效的优先级")
	}
	if _, err := r.mustGet(ctx, id); err != nil {
		return err
	}
	if err := r.cases.UpdatePriority(ctx, id, priority); err != nil {
		return apperr.Wrap(err, "更新优先级失败")
	}
	return nil
}

// EnsureEscalationForOrder 为里程碑超期订单开升级工单。
// 同一订单已有未关闭的DISPUTE工单时不重复创建。
func (r *CaseRegistry) EnsureEscalationForOrder(ctx context.Context, orderID, milestoneName string) error {
	existing, err := r.cases.GetOpenByOrderAndType(ctx, orderID, model.CaseTypeDispute)
	if err != nil {
		return apperr.Wrap(err, "查询升级工单失败")
	}
	if existing != nil {
		return nil
	}
	c := &model.SupportCase{
		ID:            uuid.NewString(),
		Title:         "订单履约超期：" + milestoneName,
		Type:          model.CaseTypeDispute,
		Status:        model.CaseNew,
		OrderID:       sql.NullString{String: orderID, Valid: true},
		RequesterName: "system",
		Priority:      model.PriorityHigh,
		DueAt:         sql.NullTime{Time: r.now().Add(defaultDueOffset(model.CaseTypeDispute)), Valid: true},
	}
	if err := r.cases.Create(ctx, c); err != nil {
		return apperr.Wrap(err, "创建升级工单失败")
	}
	r.logger.Warn("订单里程碑超期，已开升级工单", "order_id", orderID, "milestone", milestoneName, "case_id", c.ID)
	return nil
}

// ListOverdueOpen 获取超期未关闭工单（SLA调度器用）
func (r *CaseRegistry) ListOverdueOpen(ctx context.Context) ([]model.SupportCase, error) {
	return r.cases.ListOverdueOpen(ctx, r.now())
}

func (r *CaseRegistry) mustGet(ctx context.Context, id string) (*model.SupportCase, error) {
	c, err := r.cases.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "查询工单失败")
	}
	if c == nil {
		return nil, apperr.New(apperr.NotFound, constants.ErrCaseNotFound)
	}
	return c, nil
}

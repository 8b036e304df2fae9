package repository

import (
	"context"
	"database/sql"
	"time"

	"techmart/internal/model"

	"github.com/jmoiron/sqlx"
)

// SupportCaseRepository 客服工单存储库
type SupportCaseRepository struct {
	db *sqlx.DB
}

// NewSupportCaseRepository 创建客服工单存储库
func NewSupportCaseRepository(db *sqlx.DB) *SupportCaseRepository {
	return &SupportCaseRepository{db: db}
}

// Create 创建工单
func (r *SupportCaseRepository) Create(ctx context.Context, c *model.SupportCase) error {
	query := `
		INSERT INTO support_cases (id, title, type, status, order_id, requester_name,
			assignee_id, priority, description, due_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.Title, c.Type, c.Status, c.OrderID, c.RequesterName,
		c.AssigneeID, c.Priority, c.Description, c.DueAt)
	return err
}

// GetByID 根据ID获取工单，不存在时返回(nil, nil)
func (r *SupportCaseRepository) GetByID(ctx context.Context, id string) (*model.SupportCase, error) {
	var c model.SupportCase
	err := r.db.GetContext(ctx, &c, `SELECT * FROM support_cases WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetOpenByOrderAndType 获取订单下指定类型的未关闭工单，不存在时返回(nil, nil)
func (r *SupportCaseRepository) GetOpenByOrderAndType(ctx context.Context, orderID, caseType string) (*model.SupportCase, error) {
	var c model.SupportCase
	query := `
		SELECT * FROM support_cases
		WHERE order_id = ? AND type = ? AND status NOT IN (?, ?)
		LIMIT 1
	`
	err := r.db.GetContext(ctx, &c, query, orderID, caseType, model.CaseResolved, model.CaseClosed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CaseListFilter 工单列表查询条件
type CaseListFilter struct {
	Status     string
	Type       string
	AssigneeID string
	OrderID    string
	Page       int
	PageSize   int
}

// List 分页查询工单列表
func (r *SupportCaseRepository) List(ctx context.Context, f CaseListFilter) ([]model.SupportCase, int64, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	if f.Status != "" {
		where += " AND status = ?"
		args = append(args, f.Status)
	}
	if f.Type != "" {
		where += " AND type = ?"
		args = append(args, f.Type)
	}
	if f.AssigneeID != "" {
		where += " AND assignee_id = ?"
		args = append(args, f.AssigneeID)
	}
	if f.OrderID != "" {
		where += " AND order_id = ?"
		args = append(args, f.OrderID)
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM support_cases"+where, args...); err != nil {
		return nil, 0, err
	}

	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
	query := "SELECT * FROM support_cases" + where + " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)

	var list []model.SupportCase
	if err := r.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// UpdateStatus 更新工单状态
func (r *SupportCaseRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE support_cases SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, status, id)
	return err
}

// Assign 指派处理人，同时将NEW工单推进到IN_PROGRESS
func (r *SupportCaseRepository) Assign(ctx context.Context, id, assigneeID string) error {
	query := `
		UPDATE support_cases
		SET assignee_id = ?, status = CASE WHEN status = ? THEN ? ELSE status END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query, assigneeID, model.CaseNew, model.CaseInProgress, id)
	return err
}

// UpdatePriority 调整工单优先级
func (r *SupportCaseRepository) UpdatePriority(ctx context.Context, id, priority string) error {
	query := `UPDATE support_cases SET priority = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, priority, id)
	return err
}

// ListOverdueOpen 获取截止时间已过且未关闭的工单
func (r *SupportCaseRepository) ListOverdueOpen(ctx context.Context, now time.Time) ([]model.SupportCase, error) {
	var list []model.SupportCase
	query := `
		SELECT * FROM support_cases
		WHERE due_at IS NOT NULL AND due_at < ? AND status NOT IN (?, ?)
	`
	err := r.db.SelectContext(ctx, &list, query, now, model.CaseResolved, model.CaseClosed)
	return list, err
}

// AddNote 添加处理备注
func (r *SupportCaseRepository) AddNote(ctx context.Context, n *model.CaseNote) error {
	query := `
		INSERT INTO case_notes (id, case_id, author_id, author_name, content)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, n.ID, n.CaseID, n.AuthorID, n.AuthorName, n.Content)
	return err
}

// ListNotes 获取工单备注列表
func (r *SupportCaseRepository) ListNotes(ctx context.Context, caseID string) ([]model.CaseNote, error) {
	var list []model.CaseNote
	query := `SELECT * FROM case_notes WHERE case_id = ? ORDER BY created_at ASC`
	err := r.db.SelectContext(ctx, &list, query, caseID)
	return list, err
}

// AddEvidence 添加证据附件
func (r *SupportCaseRepository) AddEvidence(ctx context.Context, e *model.CaseEvidence) error {
	query := `
		INSERT INTO case_evidences (id, case_id, file_id, file_name, url)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, e.ID, e.CaseID, e.FileID, e.FileName, e.URL)
	return err
}

// ListEvidences 获取工单证据列表
func (r *SupportCaseRepository) ListEvidences(ctx context.Context, caseID string) ([]model.CaseEvidence, error) {
	var list []model.CaseEvidence
	query := `SELECT * FROM case_evidences WHERE case_id = ? ORDER BY created_at ASC`
	err := r.db.SelectContext(ctx, &list, query, caseID)
	return list, err
}

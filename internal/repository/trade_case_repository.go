package repository

import (
	"context"
	"database/sql"
	"time"

	"techmart/internal/model"

	"github.com/jmoiron/sqlx"
)

// TradeCaseRepository 履约跟进单存储库
type TradeCaseRepository struct {
	db *sqlx.DB
}

// NewTradeCaseRepository 创建履约跟进单存储库
func NewTradeCaseRepository(db *sqlx.DB) *TradeCaseRepository {
	return &TradeCaseRepository{db: db}
}

// GetByOrder 获取订单的跟进单，不存在时返回(nil, nil)
func (r *TradeCaseRepository) GetByOrder(ctx context.Context, orderID string) (*model.TradeCase, error) {
	var c model.TradeCase
	err := r.db.GetContext(ctx, &c, `SELECT * FROM trade_cases WHERE order_id = ?`, orderID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create 创建跟进单
func (r *TradeCaseRepository) Create(ctx context.Context, c *model.TradeCase) error {
	query := `INSERT INTO trade_cases (id, order_id, status) VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.OrderID, c.Status)
	return err
}

// CreateMilestones 批量创建里程碑
func (r *TradeCaseRepository) CreateMilestones(ctx context.Context, milestones []model.Milestone) error {
	query := `INSERT INTO milestones (id, case_id, order_id, name, status, due_at) VALUES (?, ?, ?, ?, ?, ?)`
	for i := range milestones {
		m := &milestones[i]
		if _, err := r.db.ExecContext(ctx, query, m.ID, m.CaseID, m.OrderID, m.Name, m.Status, m.DueAt); err != nil {
			return err
		}
	}
	return nil
}

// ListMilestones 按创建顺序获取跟进单的里程碑
func (r *TradeCaseRepository) ListMilestones(ctx context.Context, caseID string) ([]model.Milestone, error) {
	var milestones []model.Milestone
	query := `SELECT * FROM milestones WHERE case_id = ? ORDER BY created_at ASC, name ASC`
	err := r.db.SelectContext(ctx, &milestones, query, caseID)
	return milestones, err
}

// MarkMilestoneDone 里程碑置为DONE（只允许PENDING -> DONE）
func (r *TradeCaseRepository) MarkMilestoneDone(ctx context.Context, caseID, name string, now time.Time) error {
	query := `
		UPDATE milestones
		SET status = ?, done_at = ?
		WHERE case_id = ? AND name = ? AND status = ?
	`
	_, err := r.db.ExecContext(ctx, query, model.MilestoneDone, now, caseID, name, model.MilestonePending)
	return err
}

// UpdateMilestoneDue 更新里程碑截止时间
func (r *TradeCaseRepository) UpdateMilestoneDue(ctx context.Context, caseID, name string, dueAt time.Time) error {
	query := `UPDATE milestones SET due_at = ? WHERE case_id = ? AND name = ?`
	_, err := r.db.ExecContext(ctx, query, dueAt, caseID, name)
	return err
}

// ListOverdue 获取所有已超期的PENDING里程碑
func (r *TradeCaseRepository) ListOverdue(ctx context.Context, now time.Time) ([]model.Milestone, error) {
	var milestones []model.Milestone
	query := `SELECT * FROM milestones WHERE status = ? AND due_at IS NOT NULL AND due_at < ?`
	err := r.db.SelectContext(ctx, &milestones, query, model.MilestonePending, now)
	return milestones, err
}

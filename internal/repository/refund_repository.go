package repository

import (
	"context"
	"database/sql"

	"techmart/internal/model"

	"github.com/jmoiron/sqlx"
)

// RefundRepository 退款申请存储库
type RefundRepository struct {
	db *sqlx.DB
}

// NewRefundRepository 创建退款申请存储库
func NewRefundRepository(db *sqlx.DB) *RefundRepository {
	return &RefundRepository{db: db}
}

// Create 创建退款申请
func (r *RefundRepository) Create(ctx context.Context, req *model.RefundRequest) error {
	query := `
		INSERT INTO refund_requests (id, order_id, reason_code, reason_text, status)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, req.ID, req.OrderID, req.ReasonCode, req.ReasonText, req.Status)
	return err
}

// GetByID 根据ID获取退款申请，不存在时返回(nil, nil)
func (r *RefundRepository) GetByID(ctx context.Context, id string) (*model.RefundRequest, error) {
	var req model.RefundRequest
	err := r.db.GetContext(ctx, &req, `SELECT * FROM refund_requests WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// GetPendingByOrder 获取订单的PENDING退款申请，不存在时返回(nil, nil)
func (r *RefundRepository) GetPendingByOrder(ctx context.Context, orderID string) (*model.RefundRequest, error) {
	var req model.RefundRequest
	query := `SELECT * FROM refund_requests WHERE order_id = ? AND status = ?`
	err := r.db.GetContext(ctx, &req, query, orderID, model.RefundPending)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListByOrder 获取订单的全部退款申请
func (r *RefundRepository) ListByOrder(ctx context.Context, orderID string) ([]model.RefundRequest, error) {
	var list []model.RefundRequest
	query := `SELECT * FROM refund_requests WHERE order_id = ? ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &list, query, orderID)
	return list, err
}

// UpdateStatus 更新退款申请状态
func (r *RefundRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE refund_requests SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, status, id)
	return err
}

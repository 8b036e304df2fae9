package repository

import (
	"context"
	"database/sql"
	"time"

	"techmart/internal/model"

	"github.com/jmoiron/sqlx"
)

// SettlementRepository 结算单存储库
type SettlementRepository struct {
	db *sqlx.DB
}

// NewSettlementRepository 创建结算单存储库
func NewSettlementRepository(db *sqlx.DB) *SettlementRepository {
	return &SettlementRepository{db: db}
}

// Create 创建结算单。order_id唯一索引保证与订单1:1。
func (r *SettlementRepository) Create(ctx context.Context, s *model.Settlement) error {
	query := `
		INSERT INTO settlements (id, order_id, gross_amount_fen, commission_amount_fen,
			payout_amount_fen, payout_method, payout_status, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.OrderID, s.GrossAmountFen, s.CommissionAmountFen,
		s.PayoutAmountFen, s.PayoutMethod, s.PayoutStatus, s.Status)
	return err
}

// GetByOrder 根据订单ID获取结算单，不存在时返回(nil, nil)
func (r *SettlementRepository) GetByOrder(ctx context.Context, orderID string) (*model.Settlement, error) {
	var s model.Settlement
	err := r.db.GetContext(ctx, &s, `SELECT * FROM settlements WHERE order_id = ?`, orderID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// MarkPayoutSucceeded 打款成功，仅允许从非SUCCEEDED状态推进
func (r *SettlementRepository) MarkPayoutSucceeded(ctx context.Context, id string, payoutAt time.Time) error {
	query := `
		UPDATE settlements
		SET payout_status = ?, payout_at = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND payout_status != ?
	`
	_, err := r.db.ExecContext(ctx, query,
		model.PayoutSucceeded, payoutAt, model.SettlementCompleted, id, model.PayoutSucceeded)
	return err
}

// MarkPayoutFailed 打款失败，允许后续重试
func (r *SettlementRepository) MarkPayoutFailed(ctx context.Context, id string) error {
	query := `
		UPDATE settlements SET payout_status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND payout_status != ?
	`
	_, err := r.db.ExecContext(ctx, query, model.PayoutFailed, id, model.PayoutSucceeded)
	return err
}

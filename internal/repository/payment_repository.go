package repository

import (
	"context"
	"database/sql"
	"time"

	"techmart/internal/model"

	"github.com/jmoiron/sqlx"
)

// PaymentRepository 支付流水存储库
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository 创建支付流水存储库
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create 创建支付流水
func (r *PaymentRepository) Create(ctx context.Context, p *model.Payment) error {
	query := `
		INSERT INTO payments (
			id, order_id, pay_type, channel, trade_no, amount_fen, status, idempotency_key
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.OrderID, p.PayType, p.Channel, p.TradeNo, p.AmountFen, p.Status, p.IdempotencyKey,
	)
	return err
}

// GetPaid 获取某订单某支付类型的PAID流水，不存在时返回(nil, nil)
func (r *PaymentRepository) GetPaid(ctx context.Context, orderID, payType string) (*model.Payment, error) {
	var p model.Payment
	query := `SELECT * FROM payments WHERE order_id = ? AND pay_type = ? AND status = ?`
	err := r.db.GetContext(ctx, &p, query, orderID, payType, model.PaymentPaid)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByIdempotencyKey 根据幂等键获取支付流水，不存在时返回(nil, nil)
func (r *PaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*model.Payment, error) {
	var p model.Payment
	err := r.db.GetContext(ctx, &p, `SELECT * FROM payments WHERE idempotency_key = ?`, key)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByOrder 获取订单的全部支付流水
func (r *PaymentRepository) ListByOrder(ctx context.Context, orderID string) ([]model.Payment, error) {
	var payments []model.Payment
	query := `SELECT * FROM payments WHERE order_id = ? ORDER BY created_at ASC`
	err := r.db.SelectContext(ctx, &payments, query, orderID)
	return payments, err
}

// MarkPaid 将流水标记为已支付
func (r *PaymentRepository) MarkPaid(ctx context.Context, id, tradeNo string, paidAt time.Time) error {
	query := `
		UPDATE payments
		SET status = ?, trade_no = ?, paid_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	nullTradeNo := sql.NullString{String: tradeNo, Valid: tradeNo != ""}
	_, err := r.db.ExecContext(ctx, query, model.PaymentPaid, nullTradeNo, paidAt, id)
	return err
}

// MarkFailed 将流水标记为失败
func (r *PaymentRepository) MarkFailed(ctx context.Context, id string) error {
	query := `UPDATE payments SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, model.PaymentFailed, id)
	return err
}

package repository

import (
	"context"
	"database/sql"

	"techmart/internal/model"

	"github.com/jmoiron/sqlx"
)

// ListingRepository 挂牌存储库。交易引擎只读，目录维护在别处。
type ListingRepository struct {
	db *sqlx.DB
}

// NewListingRepository 创建挂牌存储库
func NewListingRepository(db *sqlx.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// Create 创建挂牌（后台录入/测试数据用）
func (r *ListingRepository) Create(ctx context.Context, l *model.Listing) error {
	query := `
		INSERT INTO listings (id, seller_user_id, title, deposit_amount_fen, audit_status, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		l.ID, l.SellerUserID, l.Title, l.DepositAmountFen, l.AuditStatus, l.Status)
	return err
}

// GetByID 根据ID获取挂牌，不存在时返回(nil, nil)
func (r *ListingRepository) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	var l model.Listing
	err := r.db.GetContext(ctx, &l, `SELECT * FROM listings WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// MarkSold 订单完成后将挂牌置为已成交
func (r *ListingRepository) MarkSold(ctx context.Context, id string) error {
	query := `UPDATE listings SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, model.ListingSold, id)
	return err
}

package repository

import (
	"context"
	"database/sql"
	"time"

	"techmart/internal/model"

	"github.com/jmoiron/sqlx"
)

// OrderListFilter 订单列表查询条件
type OrderListFilter struct {
	BuyerUserID  string
	SellerUserID string
	Status       string
	Page         int
	PageSize     int
}

// OrderRepository 订单存储库
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository 创建订单存储库
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create 创建订单
func (r *OrderRepository) Create(ctx context.Context, o *model.Order) error {
	query := `
		INSERT INTO orders (
			id, order_no, listing_id, buyer_user_id, seller_user_id,
			status, deposit_amount_fen, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, 1)
	`
	_, err := r.db.ExecContext(ctx, query,
		o.ID, o.OrderNo, o.ListingID, o.BuyerUserID, o.SellerUserID,
		o.Status, o.DepositAmountFen,
	)
	return err
}

// GetByID 根据ID获取订单，不存在时返回(nil, nil)
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	var o model.Order
	err := r.db.GetContext(ctx, &o, `SELECT * FROM orders WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// List 按买家/卖家/状态过滤 + 分页
func (r *OrderRepository) List(ctx context.Context, f OrderListFilter) ([]model.Order, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	if f.BuyerUserID != "" {
		where += " AND buyer_user_id = ?"
		args = append(args, f.BuyerUserID)
	}
	if f.SellerUserID != "" {
		where += " AND seller_user_id = ?"
		args = append(args, f.SellerUserID)
	}
	if f.Status != "" {
		where += " AND status = ?"
		args = append(args, f.Status)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM orders"+where, args...); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []model.Order{}, 0, nil
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	pageSize := f.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 50 {
		pageSize = 50
	}

	var orders []model.Order
	query := "SELECT * FROM orders" + where + " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, pageSize, (page-1)*pageSize)
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateCAS 基于版本号的乐观更新。版本不匹配时返回false，由上层转为CONFLICT。
// 更新status以及可空的成交价/尾款/发票字段，版本号+1。
func (r *OrderRepository) UpdateCAS(ctx context.Context, o *model.Order) (bool, error) {
	query := `
		UPDATE orders
		SET status = ?, deal_amount_fen = ?, final_amount_fen = ?,
			invoice_no = ?, invoice_issued_at = ?,
			version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?
	`
	res, err := r.db.ExecContext(ctx, query,
		o.Status, o.DealAmountFen, o.FinalAmountFen,
		o.InvoiceNo, o.InvoiceIssuedAt,
		o.ID, o.Version,
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}
	o.Version++
	return true, nil
}

// ListDepositPendingBefore 获取创建时间早于cutoff且仍待付订金的订单（超时取消用）
func (r *OrderRepository) ListDepositPendingBefore(ctx context.Context, cutoff time.Time) ([]model.Order, error) {
	var orders []model.Order
	query := `SELECT * FROM orders WHERE status = ? AND created_at < ?`
	err := r.db.SelectContext(ctx, &orders, query, model.OrderDepositPending, cutoff)
	return orders, err
}

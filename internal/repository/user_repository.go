package repository

import (
	"context"
	"database/sql"

	"techmart/internal/model"

	"github.com/jmoiron/sqlx"
)

// UserRepository 用户存储库
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository 创建用户存储库
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID 根据ID获取用户，不存在时返回(nil, nil)
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, `SELECT * FROM users WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByUsername 根据用户名获取用户，不存在时返回(nil, nil)
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, `SELECT * FROM users WHERE username = ?`, username)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// SystemRepository 系统配置存储库
type SystemRepository struct {
	db *sqlx.DB
}

// NewSystemRepository 创建系统配置存储库
func NewSystemRepository(db *sqlx.DB) *SystemRepository {
	return &SystemRepository{db: db}
}

// GetValue 获取配置项的值，不存在时返回("", nil)
func (r *SystemRepository) GetValue(ctx context.Context, key string) (string, error) {
	var v string
	err := r.db.GetContext(ctx, &v, `SELECT v FROM system_configs WHERE k = ?`, key)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// SetValue 写入配置项，存在则覆盖
func (r *SystemRepository) SetValue(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO system_configs (k, v) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE v = VALUES(v), updated_at = CURRENT_TIMESTAMP
	`
	_, err := r.db.ExecContext(ctx, query, key, value)
	return err
}

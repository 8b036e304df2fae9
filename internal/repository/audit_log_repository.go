package repository

import (
	"context"

	"techmart/internal/model"

	"github.com/jmoiron/sqlx"
)

// AuditLogRepository 审计日志存储库
type AuditLogRepository struct {
	db *sqlx.DB
}

// NewAuditLogRepository 创建审计日志存储库
func NewAuditLogRepository(db *sqlx.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Create 写入一条审计日志
func (r *AuditLogRepository) Create(ctx context.Context, log *model.AuditLog) error {
	query := `
		INSERT INTO audit_logs (id, actor_user_id, action, target_type, target_id, before_json, after_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		log.ID, log.ActorUserID, log.Action, log.TargetType, log.TargetID, log.BeforeJSON, log.AfterJSON)
	return err
}

// ListByTarget 查询某对象的审计轨迹
func (r *AuditLogRepository) ListByTarget(ctx context.Context, targetType, targetID string) ([]model.AuditLog, error) {
	var list []model.AuditLog
	query := `
		SELECT * FROM audit_logs
		WHERE target_type = ? AND target_id = ?
		ORDER BY created_at DESC
	`
	err := r.db.SelectContext(ctx, &list, query, targetType, targetID)
	return list, err
}

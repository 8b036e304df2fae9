package model

import (
	"database/sql"
	"time"
)

// AuditLog 审计日志，记录所有管理员触发的状态变更
type AuditLog struct {
	ID          string         `db:"id" json:"id"`
	ActorUserID string         `db:"actor_user_id" json:"actor_user_id"`
	Action      string         `db:"action" json:"action"`
	TargetType  string         `db:"target_type" json:"target_type"`
	TargetID    string         `db:"target_id" json:"target_id"`
	BeforeJSON  sql.NullString `db:"before_json" json:"before_json,omitempty"`
	AfterJSON   sql.NullString `db:"after_json" json:"after_json,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

package service

import (
	"context"
	"database/sql"
	"encoding/json"

	"techmart/internal/model"
	"techmart/pkg/async"
	"techmart/pkg/logger"

	"github.com/google/uuid"
)

// AuditLogStore 审计日志存储
type AuditLogStore interface {
	Create(ctx context.Context, log *model.AuditLog) error
	ListByTarget(ctx context.Context, targetType, targetID string) ([]model.AuditLog, error)
}

// AuditService 审计日志服务。
// 写入走异步队列，失败只记日志，不影响主流程。
type AuditService struct {
	store  AuditLogStore
	worker *async.Worker
	logger *logger.Logger
}

// NewAuditService 创建审计日志服务
func NewAuditService(store AuditLogStore, worker *async.Worker, log *logger.Logger) *AuditService {
	return &AuditService{store: store, worker: worker, logger: log}
}

// Record 记录一条审计日志。before/after为nil时对应列为NULL。
func (s *AuditService) Record(actorUserID, action, targetType, targetID string, before, after interface{}) {
	entry := &model.AuditLog{
		ID:          uuid.NewString(),
		ActorUserID: actorUserID,
		Action:      action,
		TargetType:  targetType,
		TargetID:    targetID,
		BeforeJSON:  marshalNullable(before),
		AfterJSON:   marshalNullable(after),
	}
	s.worker.Submit(async.Task{
		ID: "audit_" + entry.ID,
		Handler: func(ctx context.Context) error {
			return s.store.Create(ctx, entry)
		},
		RetryMax: 2,
	})
}

// ListByTarget 查询某对象的审计轨迹
func (s *AuditService) ListByTarget(ctx context.Context, targetType, targetID string) ([]model.AuditLog, error) {
	return s.store.ListByTarget(ctx, targetType, targetID)
}

func marshalNullable(v interface{}) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(data), Valid: true}
}

package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 业务错误分类
type Kind string

const (
	Validation Kind = "VALIDATION"  // 参数非法或派生金额为负
	NotFound   Kind = "NOT_FOUND"   // 订单/挂牌/工单/退款申请不存在
	Forbidden  Kind = "FORBIDDEN"   // 非干系人或权限不足
	Conflict   Kind = "CONFLICT"    // 状态前置条件不满足、重复的待处理退款
	Retryable  Kind = "RETRYABLE"   // 下游服务商超时/5xx，可稍后重试
	Internal   Kind = "INTERNAL"    // 未预期错误
)

// Error 业务错误。Message对外可见，Err仅用于日志。
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New 创建业务错误
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap 包装未预期错误
func Wrap(err error, message string) *Error {
	return &Error{Kind: Internal, Message: message, Err: err}
}

// As 提取业务错误
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind 判断错误分类
func IsKind(err error, kind Kind) bool {
	if e, ok := As(err); ok {
		return e.Kind == kind
	}
	return false
}

// HTTPStatus 错误分类到HTTP状态码的映射
func HTTPStatus(err error) int {
	if e, ok := As(err); ok {
		switch e.Kind {
		case Validation:
			return http.StatusBadRequest
		case NotFound:
			return http.StatusNotFound
		case Forbidden:
			return http.StatusForbidden
		case Conflict:
			return http.StatusConflict
		case Retryable:
			return http.StatusServiceUnavailable
		}
	}
	return http.StatusInternalServerError
}

// PublicMessage 对外展示的错误信息
func PublicMessage(err error) string {
	if e, ok := As(err); ok && e.Message != "" {
		return e.Message
	}
	return "服务器内部错误"
}

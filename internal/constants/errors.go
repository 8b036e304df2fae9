package constants

// 通用错误消息
const (
	// 认证相关错误
	ErrUnauthorized           = "未授权，请先登录"
	ErrInvalidToken           = "无效的Token"
	ErrInsufficientPermission = "权限不足"

	// 参数相关错误
	ErrInvalidParams  = "参数错误"
	ErrInvalidRequest = "无效请求格式"

	// 订单相关错误
	ErrOrderNotFound       = "订单不存在"
	ErrListingNotFound     = "挂牌不存在"
	ErrListingNotTradable  = "挂牌不可交易"
	ErrOrderStatusConflict = "订单状态已变化，请刷新后重试"
	ErrNotOrderStakeholder = "无权访问此订单"
	ErrDealBelowDeposit    = "成交价不能低于订金"

	// 支付相关错误
	ErrPaymentUnavailable = "支付服务暂不可用，请稍后重试"
	ErrPayTypeInvalid     = "无效的支付类型"

	// 退款相关错误
	ErrRefundNotFound       = "退款申请不存在"
	ErrRefundPendingExists  = "已存在待处理的退款申请"
	ErrRefundAlreadyHandled = "退款申请已处理"

	// 工单相关错误
	ErrCaseNotFound = "工单不存在"

	// 系统错误
	ErrInternalServer = "服务器内部错误"
)

// 成功消息
const (
	SuccessLogin  = "登录成功"
	SuccessCreate = "创建成功"
	SuccessUpdate = "更新成功"
	SuccessGet    = "获取成功"
)

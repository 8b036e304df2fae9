package service

import (
	"context"
	"encoding/json"
	"time"

	"techmart/internal/apperr"
	"techmart/internal/model"
	"techmart/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const (
	tradeRulesKey      = "trade_rules"
	tradeRulesCacheKey = "cache:trade_rules"
	tradeRulesCacheTTL = 30 * time.Second
)

// SystemConfigStore 系统配置键值存储
type SystemConfigStore interface {
	GetValue(ctx context.Context, key string) (string, error)
	SetValue(ctx context.Context, key, value string) error
}

// TradeRuleService 交易规则服务。
// 规则整体作为JSON存在system_configs中，读多写少，经Redis做短TTL缓存。
type TradeRuleService struct {
	store  SystemConfigStore
	redis  *redis.Client
	logger *logger.Logger
}

// NewTradeRuleService 创建交易规则服务
func NewTradeRuleService(store SystemConfigStore, redisClient *redis.Client, log *logger.Logger) *TradeRuleService {
	return &TradeRuleService{store: store, redis: redisClient, logger: log}
}

// Current 获取当前生效的交易规则。库中无记录时返回默认规则。
func (s *TradeRuleService) Current(ctx context.Context) (*model.TradeRules, error) {
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, tradeRulesCacheKey).Result(); err == nil {
			var rules model.TradeRules
			if json.Unmarshal([]byte(cached), &rules) == nil {
				return &rules, nil
			}
		}
	}

	raw, err := s.store.GetValue(ctx, tradeRulesKey)
	if err != nil {
		return nil, apperr.Wrap(err, "读取交易规则失败")
	}

	rules := model.DefaultTradeRules()
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), rules); err != nil {
			s.logger.Error("交易规则JSON损坏，回退默认规则", "error", err)
			rules = model.DefaultTradeRules()
		}
	}

	if s.redis != nil {
		if data, err := json.Marshal(rules); err == nil {
			s.redis.Set(ctx, tradeRulesCacheKey, data, tradeRulesCacheTTL)
		}
	}
	return rules, nil
}

// Update 更新交易规则。版本号在当前基础上+1，旧订单的订金快照不受影响。
func (s *TradeRuleService) Update(ctx context.Context, rules *model.TradeRules) (*model.TradeRules, error) {
	if rules.DepositRate < 0 || rules.DepositRate > 1 || rules.CommissionRate < 0 || rules.CommissionRate > 1 {
		return nil, apperr.New(apperr.Validation, "费率必须在0~1之间")
	}
	if rules.CommissionMinFen < 0 || rules.CommissionMaxFen < rules.CommissionMinFen {
		return nil, apperr.New(apperr.Validation, "佣金上下限非法")
	}
	if rules.PayoutMethodDefault != model.PayoutMethodManual && rules.PayoutMethodDefault != model.PayoutMethodWechat {
		return nil, apperr.New(apperr.Validation, "不支持的打款方式")
	}

	current, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	rules.Version = current.Version + 1

	data, err := json.Marshal(rules)
	if err != nil {
		return nil, apperr.Wrap(err, "序列化交易规则失败")
	}
	if err := s.store.SetValue(ctx, tradeRulesKey, string(data)); err != nil {
		return nil, apperr.Wrap(err, "保存交易规则失败")
	}

	if s.redis != nil {
		s.redis.Del(ctx, tradeRulesCacheKey)
	}
	s.logger.Info("交易规则已更新", "version", rules.Version)
	return rules, nil
}

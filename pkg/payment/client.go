package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"techmart/pkg/logger"
)

// Config HTTP客户端配置
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// Client 支付网关HTTP客户端
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient 创建支付网关客户端
func NewClient(cfg Config, logger *logger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Charge 发起扣款
func (c *Client) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	var result ChargeResult
	if err := c.post(ctx, "/v1/charges", req.IdempotencyKey, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Refund 发起退款
func (c *Client) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	var result RefundResult
	if err := c.post(ctx, "/v1/refunds", req.IdempotencyKey, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Payout 发起打款
func (c *Client) Payout(ctx context.Context, req PayoutRequest) (*PayoutResult, error) {
	var result PayoutResult
	if err := c.post(ctx, "/v1/payouts", req.IdempotencyKey, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// post 带重试的POST请求。超时和5xx按指数退避重试，重试耗尽返回ErrUnavailable。
func (c *Client) post(ctx context.Context, path, idempotencyKey string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("序列化请求失败: %w", err)
	}

	backoff := 200 * time.Millisecond
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Idempotency-Key", idempotencyKey)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			lastErr = err
			c.logger.Warn("支付网关请求失败", "path", path, "attempt", attempt+1, "error", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("支付网关返回%d", resp.StatusCode)
			c.logger.Warn("支付网关5xx", "path", path, "status", resp.StatusCode, "attempt", attempt+1)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("支付网关返回%d: %s", resp.StatusCode, string(respBody))
		}

		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("解析响应失败: %w", err)
		}
		return nil
	}

	return fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

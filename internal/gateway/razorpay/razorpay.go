package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	ErrConfigInvalid    = errors.New("razorpay config invalid")
	ErrRequestFailed    = errors.New("razorpay request failed")
	ErrResponseInvalid  = errors.New("razorpay response invalid")
	ErrSignatureInvalid = errors.New("razorpay signature invalid")
)

// Config Razorpay 配置
type Config struct {
	BaseURL   string `json:"base_url"`   // 网关地址，默认 https://api.razorpay.com
	KeyID     string `json:"key_id"`     // API Key
	KeySecret string `json:"key_secret"` // API Secret（同时用于回调验签）
	Currency  string `json:"currency"`   // 币种，默认 INR
	TimeoutMS int    `json:"timeout_ms"` // 请求超时毫秒数
}

// CreateIntentInput 创建支付意向输入
type CreateIntentInput struct {
	AmountMinor int64  // 最小货币单位金额（INR 为 paise）
	Currency    string
	Receipt     string // 商户侧收据标识
}

// CreateIntentResult 创建支付意向结果
type CreateIntentResult struct {
	IntentRef   string                 // 网关订单标识（order_xxx）
	AmountMinor int64                  // 金额（最小货币单位）
	Currency    string                 // 币种
	Raw         map[string]interface{} // 原始响应
}

// ParseConfig 解析配置
func ParseConfig(raw map[string]interface{}) (*Config, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: empty config", ErrConfigInvalid)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal config failed", ErrConfigInvalid)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshal config failed", ErrConfigInvalid)
	}
	cfg.Normalize()
	return &cfg, nil
}

// ValidateConfig 校验配置
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.KeyID) == "" {
		return fmt.Errorf("%w: key_id is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.KeySecret) == "" {
		return fmt.Errorf("%w: key_secret is required", ErrConfigInvalid)
	}
	return nil
}

// Normalize 规整配置默认值
func (c *Config) Normalize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.KeyID = strings.TrimSpace(c.KeyID)
	c.KeySecret = strings.TrimSpace(c.KeySecret)
	c.Currency = strings.ToUpper(strings.TrimSpace(c.Currency))
	if c.BaseURL == "" {
		c.BaseURL = "https://api.razorpay.com"
	}
	if c.Currency == "" {
		c.Currency = "INR"
	}
	if c.TimeoutMS <= 0 {
		c.TimeoutMS = 15000
	}
}

// CreateIntent 创建支付意向（服务端预下单）
func CreateIntent(ctx context.Context, cfg *Config, input CreateIntentInput) (*CreateIntentResult, error) {
	if cfg == nil {
		return nil, ErrConfigInvalid
	}
	if input.AmountMinor <= 0 {
		return nil, fmt.Errorf("%w: invalid amount", ErrConfigInvalid)
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = cfg.Currency
	}

	params := map[string]interface{}{
		"amount":   input.AmountMinor,
		"currency": currency,
	}
	if input.Receipt != "" {
		params["receipt"] = input.Receipt
	}

	endpoint := cfg.BaseURL + "/v1/orders"
	respBytes, err := postJSON(ctx, cfg, endpoint, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	var resp struct {
		ID       string `json:"id"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Status   string `json:"status"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("%w: missing order id", ErrResponseInvalid)
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(respBytes, &raw)

	return &CreateIntentResult{
		IntentRef:   resp.ID,
		AmountMinor: resp.Amount,
		Currency:    resp.Currency,
		Raw:         raw,
	}, nil
}

// Sign 计算回调签名
// 签名规则：HMAC-SHA256(intentRef + "|" + paymentRef, key_secret)，十六进制小写。
func Sign(intentRef, paymentRef, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(intentRef + "|" + paymentRef))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature 验证回调签名（常量时间比较）
// 这是确认支付真实成功的唯一信任边界，任何路径不得绕过。
func VerifySignature(cfg *Config, intentRef, paymentRef, signature string) error {
	if cfg == nil {
		return ErrConfigInvalid
	}
	expected := Sign(intentRef, paymentRef, cfg.KeySecret)
	provided, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return ErrSignatureInvalid
	}
	expectedBytes, _ := hex.DecodeString(expected)
	if !hmac.Equal(expectedBytes, provided) {
		return ErrSignatureInvalid
	}
	return nil
}

func postJSON(ctx context.Context, cfg *Config, endpoint string, params map[string]interface{}) ([]byte, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(cfg.KeyID, cfg.KeySecret)

	client := &http.Client{Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

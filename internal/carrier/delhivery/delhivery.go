package delhivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

var (
	ErrConfigInvalid   = errors.New("delhivery config invalid")
	ErrRequestFailed   = errors.New("delhivery request failed")
	ErrResponseInvalid = errors.New("delhivery response invalid")
	ErrWaybillMissing  = errors.New("delhivery waybill missing")
)

// 承运商载荷约束：自由文本中禁止出现这些字符
var unsafeCharsPattern = regexp.MustCompile(`[&#%;\\]`)

// 非数字字符，用于手机号归一化
var nonDigitPattern = regexp.MustCompile(`\D`)

// Config Delhivery 配置
type Config struct {
	BaseURL        string `json:"base_url"`        // 网关地址，如 https://track.delhivery.com
	APIToken       string `json:"api_token"`       // API Token
	PickupLocation string `json:"pickup_location"` // 固定揽收点名称
	TimeoutMS      int    `json:"timeout_ms"`      // 请求超时毫秒数
}

// CreateInput 创建运单输入
type CreateInput struct {
	OrderRef    string // 商户订单标识（超长将被截断）
	PaymentMode string // Prepaid / COD
	TotalAmount string // 订单金额
	CODAmount   string // 货到付款金额（Prepaid 时为空）
	Name        string
	Address     string
	City        string
	State       string
	PostalCode  string
	Country     string
	Phone       string
	WeightGrams int // 为 0 时使用默认值
	Quantity    int // 为 0 时使用默认值
	DimensionCM int // 长宽高统一边长，为 0 时使用默认值
	ProductDesc string
}

// 承运商默认件型参数
const (
	DefaultWeightGrams = 500
	DefaultQuantity    = 1
	DefaultDimensionCM = 10
	OrderRefMaxLen     = 45
	PhoneDigits        = 10
)

// CreateResult 创建运单结果
type CreateResult struct {
	Waybill string                 // 运单号
	Status  string                 // 承运商返回状态
	Remark  string                 // 承运商备注（失败原因）
	Raw     map[string]interface{} // 原始响应
}

// TrackResult 运单跟踪结果
type TrackResult struct {
	Status string                 // 实时状态
	Raw    map[string]interface{} // 原始响应
}

// ValidateConfig 校验配置
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return fmt.Errorf("%w: base_url is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.APIToken) == "" {
		return fmt.Errorf("%w: api_token is required", ErrConfigInvalid)
	}
	return nil
}

// Normalize 规整配置默认值
func (c *Config) Normalize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.APIToken = strings.TrimSpace(c.APIToken)
	c.PickupLocation = strings.TrimSpace(c.PickupLocation)
	if c.TimeoutMS <= 0 {
		c.TimeoutMS = 15000
	}
}

// SanitizeText 清洗自由文本：去掉承运商拒收的字符并裁剪首尾空白
func SanitizeText(s string) string {
	return strings.TrimSpace(unsafeCharsPattern.ReplaceAllString(s, ""))
}

// NormalizePhone 手机号归一化：剥离非数字后取末 10 位
func NormalizePhone(s string) string {
	digits := nonDigitPattern.ReplaceAllString(s, "")
	if len(digits) > PhoneDigits {
		return digits[len(digits)-PhoneDigits:]
	}
	return digits
}

// TruncateOrderRef 订单标识截断到承运商允许的最大长度
func TruncateOrderRef(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > OrderRefMaxLen {
		return s[:OrderRefMaxLen]
	}
	return s
}

// BuildShipmentPayload 构建创建运单的 JSON 载荷
func BuildShipmentPayload(cfg *Config, input CreateInput) map[string]interface{} {
	weight := input.WeightGrams
	if weight <= 0 {
		weight = DefaultWeightGrams
	}
	quantity := input.Quantity
	if quantity <= 0 {
		quantity = DefaultQuantity
	}
	dimension := input.DimensionCM
	if dimension <= 0 {
		dimension = DefaultDimensionCM
	}

	shipment := map[string]interface{}{
		"order":           TruncateOrderRef(input.OrderRef),
		"payment_mode":    input.PaymentMode,
		"total_amount":    input.TotalAmount,
		"cod_amount":      input.CODAmount,
		"name":            SanitizeText(input.Name),
		"add":             SanitizeText(input.Address),
		"city":            SanitizeText(input.City),
		"state":           SanitizeText(input.State),
		"pin":             SanitizeText(input.PostalCode),
		"country":         SanitizeText(input.Country),
		"phone":           NormalizePhone(input.Phone),
		"weight":          weight,
		"quantity":        quantity,
		"shipment_length": dimension,
		"shipment_width":  dimension,
		"shipment_height": dimension,
	}
	if desc := SanitizeText(input.ProductDesc); desc != "" {
		shipment["products_desc"] = desc
	}

	return map[string]interface{}{
		"shipments": []map[string]interface{}{shipment},
		"pickup_location": map[string]interface{}{
			"name": cfg.PickupLocation,
		},
	}
}

// CreateShipment 创建运单
// 请求为表单编码：format=json&data=<JSON 载荷>。
// 响应缺少运单号视为失败，并尽量透出承运商自己的备注原因。
func CreateShipment(ctx context.Context, cfg *Config, input CreateInput) (*CreateResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	payload := BuildShipmentPayload(cfg, input)
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal payload failed", ErrRequestFailed)
	}

	form := url.Values{}
	form.Set("format", "json")
	form.Set("data", string(data))

	endpoint := cfg.BaseURL + "/api/cmu/create.json"
	respBytes, err := postForm(ctx, cfg, endpoint, form)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	var resp struct {
		Packages []struct {
			Waybill string `json:"waybill"`
			Status  string `json:"status"`
			Remarks string `json:"remarks"`
			Rmk     string `json:"rmk"`
		} `json:"packages"`
		Rmk string `json:"rmk"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(respBytes, &raw)

	if len(resp.Packages) == 0 {
		remark := strings.TrimSpace(resp.Rmk)
		if remark != "" {
			return nil, fmt.Errorf("%w: %s", ErrWaybillMissing, remark)
		}
		return nil, ErrWaybillMissing
	}

	pkg := resp.Packages[0]
	if strings.TrimSpace(pkg.Waybill) == "" {
		remark := strings.TrimSpace(pkg.Rmk)
		if remark == "" {
			remark = strings.TrimSpace(pkg.Remarks)
		}
		if remark != "" {
			return nil, fmt.Errorf("%w: %s", ErrWaybillMissing, remark)
		}
		return nil, ErrWaybillMissing
	}

	return &CreateResult{
		Waybill: pkg.Waybill,
		Status:  pkg.Status,
		Remark:  pkg.Rmk,
		Raw:     raw,
	}, nil
}

// TrackShipment 查询运单实时状态
func TrackShipment(ctx context.Context, cfg *Config, waybill string) (*TrackResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	waybill = strings.TrimSpace(waybill)
	if waybill == "" {
		return nil, fmt.Errorf("%w: waybill is required", ErrRequestFailed)
	}

	endpoint := fmt.Sprintf("%s/api/v1/packages/json/?waybill=%s", cfg.BaseURL, url.QueryEscape(waybill))
	respBytes, err := getJSON(ctx, cfg, endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	var resp struct {
		ShipmentData []struct {
			Shipment struct {
				Status struct {
					Status string `json:"Status"`
				} `json:"Status"`
			} `json:"Shipment"`
		} `json:"ShipmentData"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if len(resp.ShipmentData) == 0 {
		return nil, fmt.Errorf("%w: empty shipment data", ErrResponseInvalid)
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(respBytes, &raw)

	return &TrackResult{
		Status: resp.ShipmentData[0].Shipment.Status.Status,
		Raw:    raw,
	}, nil
}

func postForm(ctx context.Context, cfg *Config, endpoint string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Token "+cfg.APIToken)

	return doRequest(cfg, req)
}

func getJSON(ctx context.Context, cfg *Config, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Token "+cfg.APIToken)

	return doRequest(cfg, req)
}

func doRequest(cfg *Config, req *http.Request) ([]byte, error) {
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

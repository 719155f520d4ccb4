package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/CyberNilsen/CyberNetMon/internal/model"
)

// Provider 外部地理位置查询后端
type Provider interface {
	Lookup(ctx context.Context, ip string) (model.GeoInfo, error)
}

// DefaultEndpoint 默认地理位置服务地址
const DefaultEndpoint = "https://ipapi.co"

// DefaultLookupTimeout 单次查询的默认超时
const DefaultLookupTimeout = 4 * time.Second

// HTTPProvider 基于 ipapi.co 的查询客户端
type HTTPProvider struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
}

// apiResponse ipapi.co 的响应体
type apiResponse struct {
	CountryName string `json:"country_name"`
	City        string `json:"city"`
	Org         string `json:"org"`
	CountryCode string `json:"country_code"`
	Error       bool   `json:"error"`
	Reason      string `json:"reason"`
}

// NewHTTPProvider 创建 HTTP 查询客户端
func NewHTTPProvider(endpoint string, timeout time.Duration) *HTTPProvider {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}

	return &HTTPProvider{
		endpoint: trimTrailingSlash(endpoint),
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Lookup 查询单个 IP 的地理信息，超时受 timeout 约束
func (p *HTTPProvider) Lookup(ctx context.Context, ip string) (model.GeoInfo, error) {
	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	reqURL := fmt.Sprintf("%s/%s/json/", p.endpoint, url.PathEscape(ip))
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, reqURL, nil)
	if err != nil {
		return model.GeoInfo{}, fmt.Errorf("创建查询请求失败: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return model.GeoInfo{}, fmt.Errorf("地理位置查询失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return model.GeoInfo{}, fmt.Errorf("地理位置查询返回状态 %d: %s", resp.StatusCode, string(body))
	}

	var data apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return model.GeoInfo{}, fmt.Errorf("解析查询响应失败: %w", err)
	}
	if data.Error {
		return model.GeoInfo{}, fmt.Errorf("地理位置服务拒绝查询: %s", data.Reason)
	}

	return model.GeoInfo{
		Country: orDefault(data.CountryName, "Unknown"),
		City:    orDefault(data.City, "Unknown"),
		Org:     orDefault(data.Org, "Unknown ISP"),
		Flag:    CountryFlag(data.CountryCode),
	}, nil
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

package otx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"otx2crits/pkg/util"
)

// Client 抽象 OTX 订阅源。modifiedSince 为零值时表示不限制时间。
type Client interface {
	ListSubscribedPulses(ctx context.Context, modifiedSince time.Time) ([]Pulse, error)
}

// StaticClient 用于测试或最小实现，直接返回内存中的 pulse 列表。
// 与真实服务端一致，modifiedSince 过滤在返回前完成。
type StaticClient struct {
	Pulses []Pulse
	Err    error
}

// ListSubscribedPulses 返回预设列表，按修改时间过滤。
func (c *StaticClient) ListSubscribedPulses(_ context.Context, modifiedSince time.Time) ([]Pulse, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	if modifiedSince.IsZero() {
		return c.Pulses, nil
	}
	out := make([]Pulse, 0, len(c.Pulses))
	for _, p := range c.Pulses {
		mod, err := p.ModifiedTime()
		if err != nil {
			continue
		}
		if mod.After(modifiedSince) {
			out = append(out, p)
		}
	}
	return out, nil
}

// HTTPConfig 配置 OTX HTTP 客户端。
type HTTPConfig struct {
	BaseURL      string
	APIKey       string
	PageLimit    int
	Timeout      time.Duration
	CustomClient *http.Client
	RetryTimes   int
	RetryBackoff time.Duration
}

// HTTPClient 实现 Client，通过 HTTP 与 OTX 通信。
type HTTPClient struct {
	baseURL      string
	apiKey       string
	pageLimit    int
	httpClient   *http.Client
	retryTimes   int
	retryBackoff time.Duration
}

// 订阅接口不带 limit 时服务端只会返回 5 条，必须显式分页。
const defaultPageLimit = 10

// NewHTTPClient 根据配置创建 OTX HTTP 客户端。
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("otx base url 不能为空")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("otx api key 不能为空")
	}
	client := cfg.CustomClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	limit := cfg.PageLimit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	return &HTTPClient{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		pageLimit:    limit,
		httpClient:   client,
		retryTimes:   cfg.RetryTimes,
		retryBackoff: backoff,
	}, nil
}

type subscribedResponse struct {
	Results []Pulse `json:"results"`
	Next    string  `json:"next"`
}

// ListSubscribedPulses 分页拉取订阅的全部 pulse。
func (c *HTTPClient) ListSubscribedPulses(ctx context.Context, modifiedSince time.Time) ([]Pulse, error) {
	if c == nil {
		return nil, errors.New("otx http client 未初始化")
	}

	endpoint, err := url.Parse(c.baseURL + "/pulses/subscribed")
	if err != nil {
		return nil, fmt.Errorf("解析请求地址失败: %w", err)
	}
	query := endpoint.Query()
	if !modifiedSince.IsZero() {
		query.Set("modified_since", modifiedSince.UTC().Format("2006-01-02 15:04:05.000000"))
	}
	query.Set("limit", strconv.Itoa(c.pageLimit))
	query.Set("page", "1")
	endpoint.RawQuery = query.Encode()

	var all []Pulse
	next := endpoint.String()
	for next != "" {
		page, err := c.fetchPage(ctx, next)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Results...)
		next = page.Next
	}
	return all, nil
}

func (c *HTTPClient) fetchPage(ctx context.Context, pageURL string) (subscribedResponse, error) {
	var out subscribedResponse
	err := util.Retry(ctx, c.retryTimes, c.retryBackoff, func() error {
		return c.getJSON(ctx, pageURL, &out)
	})
	if err != nil {
		return subscribedResponse{}, fmt.Errorf("拉取 pulse 分页失败: %w", err)
	}
	return out, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("构建请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-OTX-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("请求 OTX 失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取 OTX 响应失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("OTX 返回状态码 %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("解析 OTX 响应失败: %w", err)
	}
	return nil
}

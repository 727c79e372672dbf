package crits

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"otx2crits/internal/store"
)

// CRITs 侧的固定取值，与原有导入通道保持一致。
const (
	eventType      = "Intel Sharing"
	importMethod   = "otx2crits"
	relType        = "Related To"
	relConfidence  = "high"
	relReason      = "Related during automatic OTX import"
	ticketDateFmt  = "2006-01-02 15:04:05.000000"
	defaultTimeout = 15 * time.Second
)

// Config 配置 CRITs REST 客户端。
type Config struct {
	BaseURL      string
	Username     string
	APIKey       string
	Source       string
	Verify       bool
	Timeout      time.Duration
	CustomClient *http.Client
}

// Client 通过 CRITs REST API 实现 store.Client。
type Client struct {
	baseURL    string
	username   string
	apiKey     string
	source     string
	httpClient *http.Client
}

// NewClient 根据配置创建 CRITs 客户端。
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("crits base url 不能为空")
	}
	if cfg.Username == "" || cfg.APIKey == "" {
		return nil, errors.New("crits 用户名和 api key 不能为空")
	}
	client := cfg.CustomClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
		if !cfg.Verify {
			client.Transport = &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			}
		}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		username:   cfg.Username,
		apiKey:     cfg.APIKey,
		source:     cfg.Source,
		httpClient: client,
	}, nil
}

// apiResponse 覆盖 CRITs 各写接口的公共字段。
type apiResponse struct {
	ReturnCode int    `json:"return_code"`
	ID         string `json:"id"`
	Message    string `json:"message"`
}

type listResponse struct {
	Meta struct {
		TotalCount int `json:"total_count"`
	} `json:"meta"`
	Objects []struct {
		ID string `json:"id"`
	} `json:"objects"`
}

// CreateEvent 创建 Event 并随即挂上凭据。凭据挂载失败视为创建失败，
// 调用方据此放弃该集合，避免产生无凭据的重复 Event。
func (c *Client) CreateEvent(ctx context.Context, ev store.Event) (store.EventID, error) {
	form := url.Values{}
	form.Set("type", eventType)
	form.Set("title", ev.Title)
	form.Set("description", ev.Description)
	form.Set("source", c.source)
	form.Set("reference", ev.Reference)
	form.Set("bucket_list", strings.Join(ev.Buckets, ","))
	form.Set("method", importMethod)

	var out apiResponse
	if err := c.submitForm(ctx, http.MethodPost, "/api/v1/events/", form, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("%w: 创建 event 未返回 id: %s", store.ErrRejected, out.Message)
	}
	if err := c.addTicket(ctx, out.ID, ev.Ticket.Number, ev.Ticket.Date); err != nil {
		return "", fmt.Errorf("event %s 挂载凭据失败: %w", out.ID, err)
	}
	return store.EventID(out.ID), nil
}

func (c *Client) addTicket(ctx context.Context, eventID, ticketNumber string, date time.Time) error {
	if date.IsZero() {
		date = time.Now()
	}
	payload := map[string]any{
		"action": "ticket_add",
		"ticket": map[string]string{
			"ticket_number": ticketNumber,
			"date":          date.Format(ticketDateFmt),
		},
	}
	return c.submitJSON(ctx, http.MethodPatch, "/api/v1/events/"+eventID+"/", payload, nil)
}

// FindOrCreateIndicator 先按 (type, value) 精确检索，命中则复用。
func (c *Client) FindOrCreateIndicator(ctx context.Context, typ, value string) (store.IndicatorID, bool, error) {
	query := url.Values{}
	query.Set("c-ind_type", typ)
	query.Set("c-value", value)
	query.Set("only", "id")
	query.Set("limit", "1")

	var found listResponse
	if err := c.getJSON(ctx, "/api/v1/indicators/", query, &found); err != nil {
		return "", false, err
	}
	if found.Meta.TotalCount > 0 && len(found.Objects) > 0 {
		return store.IndicatorID(found.Objects[0].ID), false, nil
	}

	form := url.Values{}
	form.Set("type", typ)
	form.Set("value", value)
	form.Set("source", c.source)
	form.Set("method", importMethod)

	var out apiResponse
	if err := c.submitForm(ctx, http.MethodPost, "/api/v1/indicators/", form, &out); err != nil {
		return "", false, err
	}
	if out.ReturnCode != 0 || out.ID == "" {
		return "", false, fmt.Errorf("%w: 创建 indicator 失败: %s", store.ErrRejected, out.Message)
	}
	return store.IndicatorID(out.ID), true, nil
}

// LinkEventToIndicator 在 Event 上锻造一条指向 Indicator 的关系。
func (c *Client) LinkEventToIndicator(ctx context.Context, eventID store.EventID, indicatorID store.IndicatorID) error {
	form := url.Values{}
	form.Set("action", "forge_relationship")
	form.Set("right_type", "Indicator")
	form.Set("right_id", string(indicatorID))
	form.Set("rel_type", relType)
	form.Set("rel_confidence", relConfidence)
	form.Set("rel_reason", relReason)
	return c.submitForm(ctx, http.MethodPatch, "/api/v1/events/"+string(eventID)+"/", form, nil)
}

// TicketExists 按 ticket_number 统计 Event 数量。
func (c *Client) TicketExists(ctx context.Context, collectionID string) (bool, error) {
	query := url.Values{}
	query.Set("c-tickets.ticket_number", collectionID)
	query.Set("only", "id")
	query.Set("limit", "1")

	var out listResponse
	if err := c.getJSON(ctx, "/api/v1/events/", query, &out); err != nil {
		return false, err
	}
	return out.Meta.TotalCount > 0, nil
}

func (c *Client) submitForm(ctx context.Context, method, path string, form url.Values, out *apiResponse) error {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, nil), strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("构建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

func (c *Client) submitJSON(ctx context.Context, method, path string, payload any, out *apiResponse) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("编码请求失败: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, nil), strings.NewReader(string(body)))
	if err != nil {
		return fmt.Errorf("构建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, query), nil)
	if err != nil {
		return fmt.Errorf("构建请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: 读取响应失败: %v", store.ErrUnavailable, err)
	}
	if err := statusError(resp.StatusCode, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: 解析响应失败: %v", store.ErrRejected, err)
	}
	return nil
}

func (c *Client) do(req *http.Request, out *apiResponse) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: 读取响应失败: %v", store.ErrUnavailable, err)
	}
	if err := statusError(resp.StatusCode, body); err != nil {
		return err
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("%w: 解析响应失败: %v", store.ErrRejected, err)
		}
		if out.ReturnCode != 0 {
			return fmt.Errorf("%w: %s", store.ErrRejected, out.Message)
		}
	}
	return nil
}

// endpoint 拼接请求地址，认证始终走查询参数，与 CRITs API 约定一致。
func (c *Client) endpoint(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("username", c.username)
	query.Set("api_key", c.apiKey)
	return c.baseURL + path + "?" + query.Encode()
}

func statusError(code int, body []byte) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code >= 500:
		return fmt.Errorf("%w: 状态码 %d", store.ErrUnavailable, code)
	default:
		return fmt.Errorf("%w: 状态码 %d: %s", store.ErrRejected, code, truncate(body, 200))
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

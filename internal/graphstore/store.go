package graphstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"otx2crits/internal/cypher"
	"otx2crits/internal/domain"
	"otx2crits/internal/store"
	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// 关系边上的固定属性，与 CRITs 后端保持同一语义。
const (
	relConfidence = "high"
	relReason     = "Related during automatic OTX import"
)

// Store 用 Neo4j 图实现 store.Client：Event/Indicator 节点加 RELATED_TO 边，
// 凭据作为 Event 节点属性持久化。
type Store struct {
	client *Client
}

// NewStore 基于已连通的客户端构建 Store。
func NewStore(client *Client) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("graphstore 需要 neo4j client")
	}
	return &Store{client: client}, nil
}

// Close 释放底层连接。
func (s *Store) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

// EnsureSchema 初始化唯一性约束，幂等。
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := splitStatements(cypher.MustAsset("init_schema.cql"))
	for _, query := range statements {
		if err := s.client.RunRaw(ctx, query, nil); err != nil {
			return fmt.Errorf("执行 schema 语句失败: %w", wrapErr(err))
		}
	}
	return nil
}

// CreateEvent 创建 Event 节点并把凭据写进节点属性。
func (s *Store) CreateEvent(ctx context.Context, ev store.Event) (store.EventID, error) {
	id := uuid.NewString()
	params := map[string]any{
		"id":            id,
		"title":         ev.Title,
		"description":   ev.Description,
		"reference":     ev.Reference,
		"buckets":       ev.Buckets,
		"ticket_number": ev.Ticket.Number,
		"ticket_date":   ev.Ticket.Date.UTC().Format(time.RFC3339),
		"now":           time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := s.client.RunWrite(ctx, cypher.MustAsset("create_event.cql"), params); err != nil {
		return "", wrapErr(err)
	}
	return store.EventID(id), nil
}

// FindOrCreateIndicator MERGE (type, value)，通过返回的 id 是否为本次生成判断新建。
func (s *Store) FindOrCreateIndicator(ctx context.Context, typ, value string) (store.IndicatorID, bool, error) {
	id := uuid.NewString()
	params := map[string]any{
		"type":  typ,
		"value": value,
		"id":    id,
		"now":   time.Now().UTC().Format(time.RFC3339),
	}
	records, err := s.client.RunWrite(ctx, cypher.MustAsset("merge_indicator.cql"), params)
	if err != nil {
		return "", false, wrapErr(err)
	}
	if len(records) == 0 {
		return "", false, fmt.Errorf("%w: merge indicator 未返回记录", store.ErrRejected)
	}
	got, _ := records[0]["id"].(string)
	if got == "" {
		return "", false, fmt.Errorf("%w: merge indicator 返回的 id 为空", store.ErrRejected)
	}
	return store.IndicatorID(got), got == id, nil
}

// LinkEventToIndicator MERGE 一条关系边，重复调用不会产生第二条。
func (s *Store) LinkEventToIndicator(ctx context.Context, eventID store.EventID, indicatorID store.IndicatorID) error {
	query := cypher.MustTemplate("link_event_indicator.cql", map[string]string{
		"RelType": ":" + domain.RelRelatedTo,
	})
	params := map[string]any{
		"event_id":     string(eventID),
		"indicator_id": string(indicatorID),
		"confidence":   relConfidence,
		"reason":       relReason,
		"now":          time.Now().UTC().Format(time.RFC3339),
	}
	records, err := s.client.RunWrite(ctx, query, params)
	if err != nil {
		return wrapErr(err)
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: event 或 indicator 不存在", store.ErrRejected)
	}
	return nil
}

// TicketExists 按凭据号统计 Event 节点。
func (s *Store) TicketExists(ctx context.Context, collectionID string) (bool, error) {
	records, err := s.client.RunRead(ctx, cypher.MustAsset("ticket_exists.cql"), map[string]any{
		"ticket_number": collectionID,
	})
	if err != nil {
		return false, wrapErr(err)
	}
	if len(records) == 0 {
		return false, nil
	}
	total, _ := records[0]["total"].(int64)
	return total > 0, nil
}

// wrapErr 把 driver 错误折算到情报库错误分类上。
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if neo4j.IsConnectivityError(err) {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return fmt.Errorf("%w: %v", store.ErrRejected, err)
}

func splitStatements(raw string) []string {
	var out []string
	for _, stmt := range strings.Split(raw, ";") {
		if query := strings.TrimSpace(stmt); query != "" {
			out = append(out, query)
		}
	}
	return out
}

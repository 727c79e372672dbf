package store

import (
	"context"
	"errors"

	"otx2crits/internal/domain"
)

// 情报库错误分类。Unavailable 为瞬时连接类错误，下次调度自然重试；
// Rejected 为库侧校验失败，按单集合导入失败处理。
var (
	ErrUnavailable = errors.New("情报库暂时不可用")
	ErrRejected    = errors.New("情报库拒绝了请求")
)

// EventID 与 IndicatorID 是情报库对象标识。
type (
	EventID     string
	IndicatorID string
)

// Event 描述创建父记录所需的全部字段，Ticket 随创建一并落库。
type Event struct {
	Title       string
	Description string
	Reference   string
	Buckets     []string
	Ticket      domain.Ticket
}

// Client 是情报库的最小写入与查询契约，所有调用同步请求/响应。
type Client interface {
	// CreateEvent 创建父记录并嵌入导入凭据。
	CreateEvent(ctx context.Context, ev Event) (EventID, error)
	// FindOrCreateIndicator 按 (type, value) 查找或创建指标，返回是否新建。
	FindOrCreateIndicator(ctx context.Context, typ, value string) (IndicatorID, bool, error)
	// LinkEventToIndicator 在父记录与指标之间建立关系边。
	LinkEventToIndicator(ctx context.Context, eventID EventID, indicatorID IndicatorID) error
	// TicketExists 查询某个集合标识对应的凭据是否已存在。
	TicketExists(ctx context.Context, collectionID string) (bool, error)
}

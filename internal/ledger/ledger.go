package ledger

import (
	"context"
	"fmt"
	"sync"
)

// TicketChecker 是台账对情报库的唯一依赖。
type TicketChecker interface {
	TicketExists(ctx context.Context, collectionID string) (bool, error)
}

// Ledger 回答"某个集合是否已导入"。真实凭据存在情报库里，
// 本地缓存只是其读优化视图；缓存未命中时回源查询。
type Ledger struct {
	store TicketChecker

	mu   sync.Mutex
	seen map[string]bool
}

// New 构建台账。
func New(store TicketChecker) *Ledger {
	return &Ledger{store: store, seen: make(map[string]bool)}
}

// HasImported 检查集合是否已导入。
// 查询失败时返回错误而不是 false——宁可跳过也不能冒重复导入的风险。
func (l *Ledger) HasImported(ctx context.Context, collectionID string) (bool, error) {
	l.mu.Lock()
	if l.seen[collectionID] {
		l.mu.Unlock()
		return true, nil
	}
	l.mu.Unlock()

	exists, err := l.store.TicketExists(ctx, collectionID)
	if err != nil {
		return false, fmt.Errorf("台账查询失败: %w", err)
	}
	if exists {
		l.record(collectionID)
	}
	return exists, nil
}

// RecordImported 在导入全部完成后登记缓存。
// 凭据本体已随 Event 创建落库，这里只补写读优化视图，
// 因此必须发生在所有关系边创建之后。
func (l *Ledger) RecordImported(collectionID string) {
	l.record(collectionID)
}

func (l *Ledger) record(collectionID string) {
	l.mu.Lock()
	l.seen[collectionID] = true
	l.mu.Unlock()
}

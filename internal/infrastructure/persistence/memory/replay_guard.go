package memory

import (
	"context"
	"sync"
	"time"
)

// ReplayGuard プロセス内メモリのReplayGuard実装
type ReplayGuard struct {
	mu       sync.Mutex
	consumed map[string]time.Time
	ttl      time.Duration
	now      func() time.Time
}

// NewReplayGuard 新しいReplayGuardを作成
func NewReplayGuard(ttl time.Duration) *ReplayGuard {
	return &ReplayGuard{
		consumed: make(map[string]time.Time),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Consume 初回の消費であればtrueを返す
func (g *ReplayGuard) Consume(ctx context.Context, token string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.evict(now)

	if _, ok := g.consumed[token]; ok {
		return false, nil
	}
	g.consumed[token] = now.Add(g.ttl)
	return true, nil
}

// evict 期限切れの記録を削除する
func (g *ReplayGuard) evict(now time.Time) {
	for token, expiresAt := range g.consumed {
		if !now.Before(expiresAt) {
			delete(g.consumed, token)
		}
	}
}

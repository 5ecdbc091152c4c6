package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// keyPrefix 使い捨てトークンのキー接頭辞
const keyPrefix = "donation:ivr:token:"

// ReplayGuard Redis実装のReplayGuard
// 複数インスタンスで同じトークンを共有できる。
type ReplayGuard struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

// NewReplayGuard 新しいReplayGuardを作成
func NewReplayGuard(client goredis.UniversalClient, ttl time.Duration) *ReplayGuard {
	return &ReplayGuard{client: client, ttl: ttl}
}

// Consume SET NXでトークンを記録し、初回であればtrueを返す
func (g *ReplayGuard) Consume(ctx context.Context, token string) (bool, error) {
	ok, err := g.client.SetNX(ctx, keyPrefix+token, 1, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to consume replay token: %w", err)
	}
	return ok, nil
}

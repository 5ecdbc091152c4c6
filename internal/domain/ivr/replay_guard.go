package ivr

import (
	"context"
)

// ReplayGuard 使い捨てトークンの消費を記録する
// 金額確認の入力とタイムアウト時の遷移は同じトークンを持ち、先に届いた方だけが処理される。
type ReplayGuard interface {
	// Consume 初回の消費であればtrueを返す
	Consume(ctx context.Context, token string) (bool, error)
}

package session

import (
	"context"
)

// SessionStore 送信者をキーとしたセッションストアインターフェース
type SessionStore interface {
	// Get セッションを取得。存在しない場合はErrSessionNotFound
	Get(ctx context.Context, sender string) (*Session, error)

	// Save セッションを保存
	Save(ctx context.Context, session *Session) error

	// Delete セッションを削除
	Delete(ctx context.Context, sender string) error

	// Lock 送信者単位の排他ロックを取得し、解放関数を返す
	Lock(sender string) (unlock func())
}

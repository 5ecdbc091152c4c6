package memory

import (
	"context"
	"sync"
	"time"

	"donation-server/internal/domain/session"
)

// SessionStore プロセス内メモリのSessionStore実装
// 再起動でセッションは失われる。
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
	locks    map[string]*senderLock
	ttl      time.Duration
	now      func() time.Time
}

// senderLock 送信者ごとのロックと待機数
type senderLock struct {
	mu   sync.Mutex
	refs int
}

// NewSessionStore 新しいSessionStoreを作成。ttlが0以下の場合は期限切れにしない
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*session.Session),
		locks:    make(map[string]*senderLock),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get セッションを取得
func (s *SessionStore) Get(ctx context.Context, sender string) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sender]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	if sess.IsExpired(s.now(), s.ttl) {
		delete(s.sessions, sender)
		return nil, session.ErrSessionNotFound
	}
	return sess, nil
}

// Save セッションを保存
func (s *SessionStore) Save(ctx context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sess.Sender()] = sess
	return nil
}

// Delete セッションを削除
func (s *SessionStore) Delete(ctx context.Context, sender string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sender)
	return nil
}

// Lock 送信者単位のロックを取得する
func (s *SessionStore) Lock(sender string) func() {
	s.mu.Lock()
	l, ok := s.locks[sender]
	if !ok {
		l = &senderLock{}
		s.locks[sender] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()

			s.mu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(s.locks, sender)
			}
			s.mu.Unlock()
		})
	}
}

// Len 保持しているセッション数を返す
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

// Sweep 期限切れのセッションを削除し、削除数を返す
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for sender, sess := range s.sessions {
		if sess.IsExpired(now, s.ttl) {
			delete(s.sessions, sender)
			removed++
		}
	}
	return removed
}

// RunSweeper ctxが終了するまでintervalごとにSweepを実行する
func (s *SessionStore) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

package session

import (
	"time"
)

// Session SMS寄付の会話セッション
// 項目はステップ順にのみ埋まり、一度埋まった項目は書き換えない。
type Session struct {
	sender     string
	step       Step
	amount     string
	cardNumber string
	expiry     string
	cvv        string
	zip        string
	updatedAt  time.Time
}

// NewSession 金額待ちの新しいセッションを作成
func NewSession(sender string) *Session {
	return &Session{
		sender:    sender,
		step:      StepAwaitingAmount,
		updatedAt: time.Now(),
	}
}

// Sender 送信者を返す
func (s *Session) Sender() string {
	return s.sender
}

// Step 現在のステップを返す
func (s *Session) Step() Step {
	return s.step
}

// Amount 金額を返す
func (s *Session) Amount() string {
	return s.amount
}

// CardNumber カード番号を返す
func (s *Session) CardNumber() string {
	return s.cardNumber
}

// Expiry 有効期限を返す
func (s *Session) Expiry() string {
	return s.expiry
}

// CVV CVVを返す
func (s *Session) CVV() string {
	return s.cvv
}

// ZIP 郵便番号を返す
func (s *Session) ZIP() string {
	return s.zip
}

// UpdatedAt 最終更新日時を返す
func (s *Session) UpdatedAt() time.Time {
	return s.updatedAt
}

// IsExpired 最終更新からttlを超えているかどうかを返す
func (s *Session) IsExpired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(s.updatedAt) > ttl
}

// Advance 現在のステップの値を記録して次のステップへ進める
// 最終ステップでは値を記録するだけでステップは変わらない。
func (s *Session) Advance(step Step, value string) error {
	if step != s.step {
		return ErrStepMismatch
	}
	if s.IsComplete() {
		return ErrAlreadyComplete
	}

	switch step {
	case StepAwaitingAmount:
		s.amount = value
	case StepAwaitingCard:
		s.cardNumber = value
	case StepAwaitingExpiry:
		s.expiry = value
	case StepAwaitingCVV:
		s.cvv = value
	case StepAwaitingZIP:
		s.zip = value
	}

	if next, ok := step.Next(); ok {
		s.step = next
	}
	s.updatedAt = time.Now()
	return nil
}

// IsComplete 全項目が揃っているかどうかを返す
func (s *Session) IsComplete() bool {
	return s.zip != ""
}

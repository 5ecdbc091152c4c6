package session

import "fmt"

// Step SMS会話で現在収集中の項目
type Step string

const (
	StepAwaitingAmount Step = "awaiting_amount" // 金額待ち
	StepAwaitingCard   Step = "awaiting_card"   // カード番号待ち
	StepAwaitingExpiry Step = "awaiting_expiry" // 有効期限待ち
	StepAwaitingCVV    Step = "awaiting_cvv"    // CVV待ち
	StepAwaitingZIP    Step = "awaiting_zip"    // 郵便番号待ち
)

var stepOrder = []Step{
	StepAwaitingAmount,
	StepAwaitingCard,
	StepAwaitingExpiry,
	StepAwaitingCVV,
	StepAwaitingZIP,
}

// NewStep 文字列からStepを作成
func NewStep(s string) (Step, error) {
	for _, step := range stepOrder {
		if string(step) == s {
			return step, nil
		}
	}
	return "", fmt.Errorf("invalid step: %s", s)
}

// String 文字列表現を返す
func (s Step) String() string {
	return string(s)
}

// Next 次のステップを返す。最終ステップの場合はfalse
func (s Step) Next() (Step, bool) {
	for i, step := range stepOrder {
		if step == s && i+1 < len(stepOrder) {
			return stepOrder[i+1], true
		}
	}
	return "", false
}

// IsFinal 最終ステップ(郵便番号待ち)かどうかを返す
func (s Step) IsFinal() bool {
	return s == StepAwaitingZIP
}

package ivr

import "fmt"

// Stage 電話での入力収集の段階
type Stage string

const (
	StageCollectingAmount Stage = "collecting_amount" // 金額入力
	StageConfirmingAmount Stage = "confirming_amount" // 金額確認
	StageCollectingCard   Stage = "collecting_card"   // カード番号入力
	StageCollectingExpiry Stage = "collecting_expiry" // 有効期限入力
	StageCollectingCVV    Stage = "collecting_cvv"    // CVV入力
	StageCollectingZIP    Stage = "collecting_zip"    // 郵便番号入力
	StageRetryOrEnd       Stage = "retry_or_end"      // 拒否後の再試行選択
)

// EntryPath 着信時に最初に呼ばれるパス
const EntryPath = "/voice"

var stagePaths = map[Stage]string{
	StageCollectingAmount: "/voice/amount",
	StageConfirmingAmount: "/voice/confirm",
	StageCollectingCard:   "/voice/card",
	StageCollectingExpiry: "/voice/expiry",
	StageCollectingCVV:    "/voice/cvv",
	StageCollectingZIP:    "/voice/zip",
	StageRetryOrEnd:       "/voice/retry",
}

// String 文字列表現を返す
func (s Stage) String() string {
	return string(s)
}

// Path 段階に対応するコールバックアドレスのパスを返す
func (s Stage) Path() string {
	return stagePaths[s]
}

// NewStage 文字列からStageを作成
func NewStage(s string) (Stage, error) {
	stage := Stage(s)
	if _, ok := stagePaths[stage]; !ok {
		return "", fmt.Errorf("invalid stage: %s", s)
	}
	return stage, nil
}

// RequiredFields 段階に入るために通話コンテキストに揃っている必要がある項目数
func (s Stage) RequiredFields() int {
	switch s {
	case StageConfirmingAmount, StageCollectingCard, StageRetryOrEnd:
		return 1
	case StageCollectingExpiry:
		return 2
	case StageCollectingCVV:
		return 3
	case StageCollectingZIP:
		return 4
	default:
		return 0
	}
}

// StageFromPath コールバックアドレスのパスからStageを引く
func StageFromPath(path string) (Stage, error) {
	for stage, p := range stagePaths {
		if p == path {
			return stage, nil
		}
	}
	return "", fmt.Errorf("unknown stage path: %s", path)
}

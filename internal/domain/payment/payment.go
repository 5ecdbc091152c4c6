package payment

import (
	"context"
)

// ChargeRequest カード決済(売上)リクエスト
type ChargeRequest struct {
	Amount     string
	CardNumber string
	Expiry     string // MMYY
	CVV        string
	ZIP        string
	Phone      string
}

// ChargeResult ゲートウェイの応答を解釈した結果
type ChargeResult struct {
	Approved        bool
	ReferenceNumber string
	// Reason 拒否時のゲートウェイのエラー内容(診断用)
	Reason string
	// Unparsable 応答本文を解釈できなかった。Approvedは常にfalse
	Unparsable bool
}

// Gateway カード決済ゲートウェイインターフェース
// 1回の呼び出しで1回だけ外部送信し、自動リトライは行わない。
// 応答が得られなかった場合のみErrGatewayUnavailableを包んだエラーを返す。
type Gateway interface {
	Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error)
}

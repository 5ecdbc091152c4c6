package eventlog

import (
	"strings"
	"time"

	"donation-server/internal/domain/donation"
)

// Field エントリのDataが表す入力項目。マスク処理の判定に使う
type Field string

const (
	FieldNone       Field = ""
	FieldAmount     Field = "amount"
	FieldCardNumber Field = "card_number"
	FieldExpiry     Field = "expiry"
	FieldCVV        Field = "cvv"
	FieldZIP        Field = "zip"
)

// Entry ステップ遷移またはエラーの記録
type Entry struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Channel       string    `json:"channel"`
	CorrelationID string    `json:"correlation_id"`
	Step          string    `json:"step"`
	Field         Field     `json:"field,omitempty"`
	Data          string    `json:"data"`
	Error         string    `json:"error,omitempty"`
}

// HasError エラー記録かどうかを返す
func (e Entry) HasError() bool {
	return e.Error != ""
}

// Redacted カード情報をマスクしたコピーを返す
func (e Entry) Redacted() Entry {
	switch e.Field {
	case FieldCardNumber:
		e.Data = donation.MaskCardNumber(e.Data)
	case FieldExpiry, FieldCVV:
		e.Data = strings.Repeat("*", len(e.Data))
	}
	return e
}

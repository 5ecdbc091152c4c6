package donation

import (
	"time"

	"donation-server/internal/domain/donation"
)

// Outcome 決済試行の結果区分
type Outcome string

const (
	OutcomeApproved        Outcome = "approved"         // 承認
	OutcomeDeclined        Outcome = "declined"         // 拒否
	OutcomeInvalidResponse Outcome = "invalid_response" // 応答本文を解釈できない
	OutcomeTransportError  Outcome = "transport_error"  // 応答なし
)

// SubmitRequest 決済送信リクエスト
type SubmitRequest struct {
	Channel       donation.Channel
	CorrelationID string
	Caller        string
	Amount        string
	CardNumber    string
	Expiry        string
	CVV           string
	ZIP           string
}

// SubmitResponse 決済送信レスポンス
type SubmitResponse struct {
	DonationID      string
	Outcome         Outcome
	ReferenceNumber string
	Reason          string
}

// Approved 承認されたかどうかを返す
func (r *SubmitResponse) Approved() bool {
	return r.Outcome == OutcomeApproved
}

// TransportError ゲートウェイに到達できなかったかどうかを返す
func (r *SubmitResponse) TransportError() bool {
	return r.Outcome == OutcomeTransportError
}

// InvalidResponse ゲートウェイの応答を解釈できなかったかどうかを返す
func (r *SubmitResponse) InvalidResponse() bool {
	return r.Outcome == OutcomeInvalidResponse
}

// DonationDTO 台帳の寄付記録
type DonationDTO struct {
	DonationID      string
	Channel         string
	Caller          string
	Amount          string
	CardLast4       string
	Status          string
	ReferenceNumber string
	ErrorMessage    string
	CreatedAt       time.Time
}

// ListDonationsRequest 寄付一覧取得リクエスト
type ListDonationsRequest struct {
	Limit int
}

// ListDonationsResponse 寄付一覧取得レスポンス
type ListDonationsResponse struct {
	Donations []DonationDTO
}

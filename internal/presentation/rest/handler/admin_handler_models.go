package handler

// EventItem イベントログのエントリ
// @Description イベントログのエントリ（カード情報はマスク済み）
type EventItem struct {
	ID            string `json:"id" example:"5f0c6a9e-8d7b-4e21-9a55-0b3c2d1e4f60"`
	Timestamp     string `json:"timestamp" example:"2024-01-01T12:00:00Z"`
	Channel       string `json:"channel" example:"sms"`
	CorrelationID string `json:"correlation_id" example:"+15551234567"`
	Step          string `json:"step" example:"awaiting_card"`
	Field         string `json:"field,omitempty" example:"card_number"`
	Data          string `json:"data" example:"************1111"`
	Error         string `json:"error,omitempty" example:"Invalid card number"`
}

// ListEventsResponse イベント一覧レスポンス
// @Description イベント一覧レスポンス
type ListEventsResponse struct {
	Events   []EventItem `json:"events"`
	Total    int         `json:"total" example:"42"`
	Capacity int         `json:"capacity" example:"100"`
}

// DonationItem 台帳の寄付記録
// @Description 台帳の寄付記録（カード番号は下4桁のみ）
type DonationItem struct {
	DonationID      string `json:"donation_id" example:"0b9f1c2e-6d4a-4f3e-8a7b-1c2d3e4f5a6b"`
	Channel         string `json:"channel" example:"voice"`
	Caller          string `json:"caller" example:"+15551234567"`
	Amount          string `json:"amount" example:"25"`
	CardLast4       string `json:"card_last4" example:"1111"`
	Status          string `json:"status" example:"approved"`
	ReferenceNumber string `json:"reference_number,omitempty" example:"123456789"`
	ErrorMessage    string `json:"error_message,omitempty" example:""`
	CreatedAt       string `json:"created_at" example:"2024-01-01T12:00:00Z"`
}

// ListDonationsResponse 寄付一覧レスポンス
// @Description 寄付一覧レスポンス
type ListDonationsResponse struct {
	Donations []DonationItem `json:"donations"`
	Count     int            `json:"count" example:"1"`
}

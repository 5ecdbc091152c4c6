package eventlog

import "donation-server/internal/domain/eventlog"

// ListEventsRequest イベント一覧取得リクエスト
type ListEventsRequest struct {
	Channel       string // 空の場合は全チャネル
	CorrelationID string // 空の場合は全件
	ErrorsOnly    bool
	Limit         int // 0以下の場合は全件
}

// ListEventsResponse イベント一覧取得レスポンス
type ListEventsResponse struct {
	Events   []eventlog.Entry
	Total    int // フィルタ前の保持件数
	Capacity int
}

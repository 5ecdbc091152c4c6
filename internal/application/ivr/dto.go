package ivr

import "net/url"

// InboundCall 電話の着信イベント
type InboundCall struct {
	CallSID string
	Caller  string
	// Digits 本文で受け取ったキー入力
	Digits string
	// Query コールバックアドレスのクエリ
	Query url.Values
}

func (c *InboundCall) query() url.Values {
	if c.Query == nil {
		return url.Values{}
	}
	return c.Query
}

func (c *InboundCall) correlationID() string {
	if c.Caller != "" {
		return c.Caller
	}
	return c.CallSID
}

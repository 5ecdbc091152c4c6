package ivr

import (
	"net/url"
	"strings"

	"donation-server/internal/domain/donation"
)

// クエリパラメータ名
const (
	ParamAmount = "amount"
	ParamCard   = "cc"
	ParamExpiry = "exp"
	ParamCVV    = "cvv"
	ParamZIP    = "zip"
	ParamToken  = "t"
)

// CallContext 検証済みの入力項目を収集順に並べたもの
// サーバー側には保存せず、次のコールバックアドレスのクエリとして受け渡す。
type CallContext struct {
	Amount     string
	CardNumber string
	Expiry     string
	CVV        string
	ZIP        string
}

// ParseCallContext クエリから通話コンテキストを復元する
// 各項目を検証し、欠落または不正な項目以降は破棄する。
func ParseCallContext(values url.Values) CallContext {
	var cc CallContext

	amount := values.Get(ParamAmount)
	if donation.ValidateDTMFAmount(amount) != nil {
		return cc
	}
	cc.Amount = amount

	card := values.Get(ParamCard)
	if _, err := donation.NormalizeCardNumber(card); err != nil || card != donation.DigitsOnly(card) {
		return cc
	}
	cc.CardNumber = card

	expiry := values.Get(ParamExpiry)
	if donation.ValidateExpiry(expiry) != nil {
		return cc
	}
	cc.Expiry = expiry

	cvv := values.Get(ParamCVV)
	if donation.ValidateCVV(cvv) != nil {
		return cc
	}
	cc.CVV = cvv

	zip := values.Get(ParamZIP)
	if donation.ValidateZIP(zip) != nil {
		return cc
	}
	cc.ZIP = zip

	return cc
}

// Len 揃っている項目数を返す
func (c CallContext) Len() int {
	n := 0
	for _, v := range c.fields() {
		if v == "" {
			break
		}
		n++
	}
	return n
}

// Satisfies 段階に必要な項目が揃っているかどうかを返す
func (c CallContext) Satisfies(stage Stage) bool {
	return c.Len() >= stage.RequiredFields()
}

// Truncate 先頭n項目だけを残したコピーを返す
func (c CallContext) Truncate(n int) CallContext {
	var out CallContext
	targets := []*string{&out.Amount, &out.CardNumber, &out.Expiry, &out.CVV, &out.ZIP}
	for i, v := range c.fields() {
		if i >= n || v == "" {
			break
		}
		*targets[i] = v
	}
	return out
}

// Encode 収集順にクエリ文字列へ変換する
func (c CallContext) Encode() string {
	names := []string{ParamAmount, ParamCard, ParamExpiry, ParamCVV, ParamZIP}
	var parts []string
	for i, v := range c.fields() {
		if v == "" {
			break
		}
		parts = append(parts, names[i]+"="+url.QueryEscape(v))
	}
	return strings.Join(parts, "&")
}

// URL 段階のパスに通話コンテキストを付与したアドレスを返す
func (c CallContext) URL(stage Stage) string {
	q := c.Encode()
	if q == "" {
		return stage.Path()
	}
	return stage.Path() + "?" + q
}

func (c CallContext) fields() []string {
	return []string{c.Amount, c.CardNumber, c.Expiry, c.CVV, c.ZIP}
}

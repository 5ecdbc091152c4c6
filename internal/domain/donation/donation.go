package donation

import (
	"fmt"
	"time"
)

// Channel 寄付の受付チャネル
type Channel string

const (
	ChannelSMS   Channel = "sms"   // SMS会話
	ChannelVoice Channel = "voice" // 電話(DTMF)
)

// String 文字列表現を返す
func (c Channel) String() string {
	return string(c)
}

// NewChannel 文字列からChannelを作成
func NewChannel(s string) (Channel, error) {
	switch Channel(s) {
	case ChannelSMS, ChannelVoice:
		return Channel(s), nil
	default:
		return "", fmt.Errorf("invalid channel: %s", s)
	}
}

// Status 決済試行の結果
type Status string

const (
	StatusApproved Status = "approved" // 承認
	StatusDeclined Status = "declined" // 拒否
	StatusFailed   Status = "failed"   // ゲートウェイ通信失敗または応答解釈不能
)

// String 文字列表現を返す
func (s Status) String() string {
	return string(s)
}

// NewStatus 文字列からStatusを作成
func NewStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusApproved, StatusDeclined, StatusFailed:
		return Status(s), nil
	default:
		return "", fmt.Errorf("invalid donation status: %s", s)
	}
}

// Donation 寄付(決済試行)の台帳エンティティ
// カード番号は末尾4桁のみ保持し、有効期限とCVVは保持しない。
type Donation struct {
	donationID      string
	channel         Channel
	caller          string
	amount          string
	cardLast4       string
	status          Status
	referenceNumber string
	errorMessage    string
	createdAt       time.Time
}

// NewDonation 新しいDonationエンティティを作成
func NewDonation(
	donationID string,
	channel Channel,
	caller string,
	amount string,
	cardNumber string,
	status Status,
	referenceNumber string,
	errorMessage string,
) *Donation {
	return &Donation{
		donationID:      donationID,
		channel:         channel,
		caller:          caller,
		amount:          amount,
		cardLast4:       CardLast4(cardNumber),
		status:          status,
		referenceNumber: referenceNumber,
		errorMessage:    errorMessage,
		createdAt:       time.Now(),
	}
}

// RestoreDonation 永続化された値からDonationを復元する
func RestoreDonation(
	donationID string,
	channel Channel,
	caller string,
	amount string,
	cardLast4 string,
	status Status,
	referenceNumber string,
	errorMessage string,
	createdAt time.Time,
) *Donation {
	return &Donation{
		donationID:      donationID,
		channel:         channel,
		caller:          caller,
		amount:          amount,
		cardLast4:       cardLast4,
		status:          status,
		referenceNumber: referenceNumber,
		errorMessage:    errorMessage,
		createdAt:       createdAt,
	}
}

// DonationID 寄付IDを返す
func (d *Donation) DonationID() string {
	return d.donationID
}

// Channel チャネルを返す
func (d *Donation) Channel() Channel {
	return d.channel
}

// Caller 発信者(電話番号)を返す
func (d *Donation) Caller() string {
	return d.caller
}

// Amount 金額を返す
func (d *Donation) Amount() string {
	return d.amount
}

// CardLast4 カード番号の末尾4桁を返す
func (d *Donation) CardLast4() string {
	return d.cardLast4
}

// Status 結果を返す
func (d *Donation) Status() Status {
	return d.status
}

// ReferenceNumber ゲートウェイの参照番号を返す
func (d *Donation) ReferenceNumber() string {
	return d.referenceNumber
}

// ErrorMessage エラー内容を返す
func (d *Donation) ErrorMessage() string {
	return d.errorMessage
}

// CreatedAt 作成日時を返す
func (d *Donation) CreatedAt() time.Time {
	return d.createdAt
}

// IsApproved 承認済みかどうかを返す
func (d *Donation) IsApproved() bool {
	return d.status == StatusApproved
}

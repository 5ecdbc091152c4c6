package donation

import "errors"

var (
	// ErrInvalidAmount 金額の形式が不正
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidCardNumber カード番号の形式が不正
	ErrInvalidCardNumber = errors.New("invalid card number")
	// ErrInvalidExpiry 有効期限の形式が不正
	ErrInvalidExpiry = errors.New("invalid expiry")
	// ErrInvalidCVV CVVの形式が不正
	ErrInvalidCVV = errors.New("invalid cvv")
	// ErrInvalidZIP 郵便番号の形式が不正
	ErrInvalidZIP = errors.New("invalid zip")
	// ErrDonationNotFound 寄付記録が見つからない
	ErrDonationNotFound = errors.New("donation not found")
)

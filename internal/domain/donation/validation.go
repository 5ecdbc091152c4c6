package donation

import (
	"regexp"
	"strings"
)

var (
	amountPattern    = regexp.MustCompile(`\$?([0-9]+(\.[0-9]{1,2})?)`)
	nonDigitPattern  = regexp.MustCompile(`\D`)
	cardPattern      = regexp.MustCompile(`^[0-9]{15,16}$`)
	expiryPattern    = regexp.MustCompile(`^[0-9]{4}$`)
	cvvPattern       = regexp.MustCompile(`^[0-9]{3,4}$`)
	zipPattern       = regexp.MustCompile(`^[0-9]{5}$`)
	dtmfAmountRegexp = regexp.MustCompile(`^[0-9]{1,4}$`)
)

// ParseAmount テキスト中から最初に現れる金額を取り出す
// "$"は任意、小数部は1〜2桁まで。"I'd like to give $12.50 today" は "12.50" になる。
func ParseAmount(text string) (string, error) {
	m := amountPattern.FindStringSubmatch(text)
	if m == nil {
		return "", ErrInvalidAmount
	}
	return m[1], nil
}

// NormalizeCardNumber 数字以外を取り除き、15桁または16桁であれば受け付ける
func NormalizeCardNumber(input string) (string, error) {
	digits := DigitsOnly(input)
	if !cardPattern.MatchString(digits) {
		return "", ErrInvalidCardNumber
	}
	return digits, nil
}

// ValidateExpiry 有効期限(MMYY)を検証する。数字以外の除去は行わない
func ValidateExpiry(input string) error {
	if !expiryPattern.MatchString(input) {
		return ErrInvalidExpiry
	}
	return nil
}

// ValidateCVV CVV(3〜4桁)を検証する
func ValidateCVV(input string) error {
	if !cvvPattern.MatchString(input) {
		return ErrInvalidCVV
	}
	return nil
}

// ValidateZIP 郵便番号(5桁)を検証する
func ValidateZIP(input string) error {
	if !zipPattern.MatchString(input) {
		return ErrInvalidZIP
	}
	return nil
}

// ValidateDTMFAmount 電話のキー入力で受け取った金額(1〜4桁の数字)を検証する
func ValidateDTMFAmount(digits string) error {
	if !dtmfAmountRegexp.MatchString(digits) {
		return ErrInvalidAmount
	}
	return nil
}

// DigitsOnly 数字以外の文字を取り除く
func DigitsOnly(s string) string {
	return nonDigitPattern.ReplaceAllString(s, "")
}

// CardLast4 カード番号の末尾4桁を返す
func CardLast4(cardNumber string) string {
	digits := DigitsOnly(cardNumber)
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

// MaskCardNumber 末尾4桁以外を"*"で置き換える
func MaskCardNumber(cardNumber string) string {
	digits := DigitsOnly(cardNumber)
	if len(digits) <= 4 {
		return strings.Repeat("*", len(digits))
	}
	return strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
}

package donation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "正常系: 整数", input: "10", want: "10"},
		{name: "正常系: ドル記号付き", input: "$25", want: "25"},
		{name: "正常系: 小数2桁", input: "$12.50", want: "12.50"},
		{name: "正常系: 文中の最初の金額", input: "give 5 or maybe 10", want: "5"},
		{name: "正常系: 小数3桁は2桁まで", input: "7.125", want: "7.12"},
		{name: "正常系: 小数点のみは整数部", input: "40.", want: "40"},
		{name: "異常系: 数字なし", input: "hello", wantErr: ErrInvalidAmount},
		{name: "異常系: 空文字", input: "", wantErr: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeCardNumber(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "正常系: 16桁", input: "4111111111111111", want: "4111111111111111"},
		{name: "正常系: 15桁", input: "378282246310005", want: "378282246310005"},
		{name: "正常系: 区切り文字を除去", input: "4111-1111 1111-1111", want: "4111111111111111"},
		{name: "異常系: 14桁", input: "41111111111111", wantErr: true},
		{name: "異常系: 17桁", input: "41111111111111111", wantErr: true},
		{name: "異常系: 数字なし", input: "card", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeCardNumber(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCardNumber)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFixedLengthValidators(t *testing.T) {
	tests := []struct {
		name     string
		validate func(string) error
		input    string
		wantErr  error
	}{
		{name: "正常系: 有効期限4桁", validate: ValidateExpiry, input: "1225"},
		{name: "異常系: 有効期限にスラッシュ", validate: ValidateExpiry, input: "12/25", wantErr: ErrInvalidExpiry},
		{name: "異常系: 有効期限3桁", validate: ValidateExpiry, input: "125", wantErr: ErrInvalidExpiry},
		{name: "正常系: CVV3桁", validate: ValidateCVV, input: "123"},
		{name: "正常系: CVV4桁", validate: ValidateCVV, input: "1234"},
		{name: "異常系: CVV5桁", validate: ValidateCVV, input: "12345", wantErr: ErrInvalidCVV},
		{name: "異常系: CVVに空白", validate: ValidateCVV, input: " 123", wantErr: ErrInvalidCVV},
		{name: "正常系: ZIP5桁", validate: ValidateZIP, input: "90210"},
		{name: "異常系: ZIP+4", validate: ValidateZIP, input: "90210-1234", wantErr: ErrInvalidZIP},
		{name: "正常系: DTMF金額1桁", validate: ValidateDTMFAmount, input: "5"},
		{name: "正常系: DTMF金額4桁", validate: ValidateDTMFAmount, input: "1000"},
		{name: "異常系: DTMF金額5桁", validate: ValidateDTMFAmount, input: "10000", wantErr: ErrInvalidAmount},
		{name: "異常系: DTMF金額が空", validate: ValidateDTMFAmount, input: "", wantErr: ErrInvalidAmount},
		{name: "異常系: DTMF金額に*", validate: ValidateDTMFAmount, input: "1*", wantErr: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.validate(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMaskCardNumber(t *testing.T) {
	assert.Equal(t, "************1111", MaskCardNumber("4111111111111111"))
	assert.Equal(t, "1111", CardLast4("4111-1111-1111-1111"))
	assert.Equal(t, "***", MaskCardNumber("123"))
	assert.Equal(t, "", CardLast4(""))
}

package middleware

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"donation-server/internal/infrastructure/config"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

// sign Twilioと同じ手順で署名を計算する
func sign(authToken, fullURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(fullURL)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(form.Get(k))
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestTwilioSignatureMiddleware(t *testing.T) {
	const token = "twilio-auth-token"
	form := url.Values{"From": {"+15551234567"}, "Body": {"25"}}

	tests := []struct {
		name           string
		cfg            *config.TwilioConfig
		target         string
		signature      func() string
		expectedStatus int
	}{
		{
			name:   "正常系: 正しい署名",
			cfg:    &config.TwilioConfig{AuthToken: token},
			target: "http://example.com/sms",
			signature: func() string {
				return sign(token, "http://example.com/sms", form)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "正常系: 公開URLとクエリを含めた署名",
			cfg:    &config.TwilioConfig{AuthToken: token, PublicBaseURL: "https://donate.example.org/"},
			target: "http://internal:8080/voice/card?amount=25",
			signature: func() string {
				return sign(token, "https://donate.example.org/voice/card?amount=25", form)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "正常系: AuthToken未設定なら検証しない",
			cfg:            &config.TwilioConfig{},
			target:         "http://example.com/sms",
			signature:      func() string { return "" },
			expectedStatus: http.StatusOK,
		},
		{
			name:           "異常系: 署名ヘッダーなし",
			cfg:            &config.TwilioConfig{AuthToken: token},
			target:         "http://example.com/sms",
			signature:      func() string { return "" },
			expectedStatus: http.StatusForbidden,
		},
		{
			name:   "異常系: 別のトークンで署名",
			cfg:    &config.TwilioConfig{AuthToken: token},
			target: "http://example.com/sms",
			signature: func() string {
				return sign("other-token", "http://example.com/sms", form)
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:   "異常系: URLが異なる",
			cfg:    &config.TwilioConfig{AuthToken: token},
			target: "http://example.com/sms",
			signature: func() string {
				return sign(token, "http://example.com/voice", form)
			},
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, tt.target, strings.NewReader(form.Encode()))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
			if sig := tt.signature(); sig != "" {
				req.Header.Set(HeaderTwilioSignature, sig)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			handler := TwilioSignatureMiddleware(tt.cfg, newTestLogger())(func(c echo.Context) error {
				return c.String(http.StatusOK, c.FormValue("Body"))
			})

			assert.NoError(t, handler(c))
			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, "25", rec.Body.String())
			}
		})
	}
}

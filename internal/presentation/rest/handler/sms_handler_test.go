package handler

import (
	"net/http"
	"net/url"
	"testing"

	"donation-server/internal/domain/payment"
	"donation-server/internal/presentation/twiml"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSMSHandler_Conversation(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.On("Charge", mock.Anything, mock.MatchedBy(func(req *payment.ChargeRequest) bool {
		return req.Amount == "25" && req.CardNumber == "4111111111111111" && req.Phone == "+15551234567"
	})).Return(&payment.ChargeResult{Approved: true, ReferenceNumber: "REF123"}, nil).Once()

	const from = "+15551234567"
	steps := []struct {
		name string
		body string
		want string
	}{
		{name: "正常系: 金額", body: "$25", want: "credit card number"},
		{name: "異常系: 不正なカード番号", body: "1234", want: "Invalid credit card number"},
		{name: "正常系: カード番号", body: "4111 1111 1111 1111", want: "expiration date (MMYY)"},
		{name: "正常系: 有効期限", body: "1226", want: "CVV"},
		{name: "正常系: CVV", body: "123", want: "ZIP code"},
		{name: "正常系: 郵便番号で送信", body: "10001", want: "Your donation of $25 was successful. Ref: REF123"},
	}

	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			rec := env.postForm("/sms", url.Values{"From": {from}, "Body": {step.body}})

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), twiml.ContentType)
			assert.Contains(t, rec.Body.String(), "<Message>")
			assert.Contains(t, rec.Body.String(), step.want)
		})
	}

	env.gateway.AssertExpectations(t)

	// 完了後は新しい会話として金額から始まる
	rec := env.postForm("/sms", url.Values{"From": {from}, "Body": {"hello"}})
	assert.Contains(t, rec.Body.String(), "amount you wish to donate")
}

func TestSMSHandler_IgnoresQueryParameters(t *testing.T) {
	tests := []struct {
		name   string
		target string
		form   url.Values
		check  func(*testing.T, *testEnv, string)
	}{
		{
			name:   "異常系: クエリのBodyは本文として扱わない",
			target: "/sms?Body=25",
			form:   url.Values{"From": {"+15550002222"}},
			check: func(t *testing.T, _ *testEnv, reply string) {
				assert.Contains(t, reply, "amount you wish to donate")
				assert.NotContains(t, reply, "credit card number")
			},
		},
		{
			name:   "異常系: クエリのFromで送信者を差し替えられない",
			target: "/sms?From=%2B15550003333",
			form:   url.Values{"Body": {"25"}},
			check: func(t *testing.T, env *testEnv, _ string) {
				// クエリの送信者には会話が始まっていない
				rec := env.postForm("/sms", url.Values{"From": {"+15550003333"}, "Body": {"hello"}})
				assert.Contains(t, rec.Body.String(), "amount you wish to donate")
				assert.NotContains(t, rec.Body.String(), "Invalid credit card number")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			rec := env.postForm(tt.target, tt.form)

			require.Equal(t, http.StatusOK, rec.Code)
			tt.check(t, env, rec.Body.String())
		})
	}
}

func TestSMSHandler_Cancel(t *testing.T) {
	env := newTestEnv(t)
	const from = "+15559990000"

	env.postForm("/sms", url.Values{"From": {from}, "Body": {"10"}})
	rec := env.postForm("/sms", url.Values{"From": {from}, "Body": {"stop"}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cancelled")

	rec = env.postForm("/sms", url.Values{"From": {from}, "Body": {"what now"}})
	assert.Contains(t, rec.Body.String(), "amount you wish to donate")
	env.gateway.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything)
}

func TestSMSHandler_Declined(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.On("Charge", mock.Anything, mock.Anything).
		Return(&payment.ChargeResult{Approved: false, Reason: "Card declined"}, nil).Once()

	const from = "+15551112222"
	for _, body := range []string{"10", "4111111111111111", "1226", "123"} {
		env.postForm("/sms", url.Values{"From": {from}, "Body": {body}})
	}
	rec := env.postForm("/sms", url.Values{"From": {from}, "Body": {"10001"}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "error processing your donation")
	assert.NotContains(t, rec.Body.String(), "Card declined")
}

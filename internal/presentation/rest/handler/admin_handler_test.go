package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	donationapp "donation-server/internal/application/donation"
	"donation-server/internal/domain/donation"
	"donation-server/internal/domain/eventlog"
	"donation-server/internal/domain/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func seedEvents(env *testEnv) {
	ctx := context.Background()
	env.eventLogService.Record(ctx, eventlog.Entry{Channel: "sms", CorrelationID: "+1555000", Step: "awaiting_amount", Field: eventlog.FieldAmount, Data: "10"})
	env.eventLogService.Record(ctx, eventlog.Entry{Channel: "sms", CorrelationID: "+1555000", Step: "awaiting_card", Field: eventlog.FieldCardNumber, Data: "4111111111111111"})
	env.eventLogService.Record(ctx, eventlog.Entry{Channel: "voice", CorrelationID: "+1555999", Step: "collecting_cvv", Field: eventlog.FieldCVV, Data: "12", Error: "Invalid CVV"})
}

func TestAdminHandler_ListEvents(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedCount  int
		validate       func(*testing.T, ListEventsResponse)
	}{
		{
			name:           "正常系: 全件",
			expectedStatus: http.StatusOK,
			expectedCount:  3,
			validate: func(t *testing.T, resp ListEventsResponse) {
				assert.Equal(t, 3, resp.Total)
				assert.Equal(t, eventlog.DefaultCapacity, resp.Capacity)
				assert.Equal(t, "************1111", resp.Events[1].Data)
				assert.NotEmpty(t, resp.Events[0].ID)
			},
		},
		{
			name:           "正常系: チャネルで絞り込み",
			query:          "?channel=voice",
			expectedStatus: http.StatusOK,
			expectedCount:  1,
			validate: func(t *testing.T, resp ListEventsResponse) {
				assert.Equal(t, "**", resp.Events[0].Data)
				assert.Equal(t, "Invalid CVV", resp.Events[0].Error)
			},
		},
		{
			name:           "正常系: 相関IDで絞り込み",
			query:          "?correlation_id=%2B1555000",
			expectedStatus: http.StatusOK,
			expectedCount:  2,
		},
		{
			name:           "正常系: エラーのみ",
			query:          "?errors_only=true",
			expectedStatus: http.StatusOK,
			expectedCount:  1,
		},
		{
			name:           "正常系: limitは新しい方から",
			query:          "?limit=1",
			expectedStatus: http.StatusOK,
			expectedCount:  1,
			validate: func(t *testing.T, resp ListEventsResponse) {
				assert.Equal(t, "collecting_cvv", resp.Events[0].Step)
			},
		},
		{name: "異常系: 不正なチャネル", query: "?channel=fax", expectedStatus: http.StatusBadRequest},
		{name: "異常系: 不正なerrors_only", query: "?errors_only=maybe", expectedStatus: http.StatusBadRequest},
		{name: "異常系: 負のlimit", query: "?limit=-1", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			seedEvents(env)

			rec := env.get("/api/v1/admin/events" + tt.query)

			require.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus != http.StatusOK {
				return
			}
			var resp ListEventsResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Len(t, resp.Events, tt.expectedCount)
			if tt.validate != nil {
				tt.validate(t, resp)
			}
		})
	}
}

func TestAdminHandler_Donations(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.On("Charge", mock.Anything, mock.Anything).
		Return(&payment.ChargeResult{Approved: true, ReferenceNumber: "REF9"}, nil).Once()

	submitted := env.donationService.Submit(context.Background(), &donationapp.SubmitRequest{
		Channel:       donation.ChannelVoice,
		CorrelationID: "+15550001111",
		Caller:        "+15550001111",
		Amount:        "25",
		CardNumber:    "4111111111111111",
		Expiry:        "1226",
		CVV:           "123",
		ZIP:           "10001",
	})
	require.True(t, submitted.Approved())

	t.Run("正常系: 一覧", func(t *testing.T) {
		rec := env.get("/api/v1/admin/donations")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ListDonationsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, 1, resp.Count)
		item := resp.Donations[0]
		assert.Equal(t, submitted.DonationID, item.DonationID)
		assert.Equal(t, "voice", item.Channel)
		assert.Equal(t, "1111", item.CardLast4)
		assert.Equal(t, "approved", item.Status)
		assert.Equal(t, "REF9", item.ReferenceNumber)
		assert.NotContains(t, rec.Body.String(), "4111111111111111")
	})

	t.Run("正常系: 1件取得", func(t *testing.T) {
		rec := env.get("/api/v1/admin/donations/" + submitted.DonationID)
		require.Equal(t, http.StatusOK, rec.Code)

		var item DonationItem
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
		assert.Equal(t, "25", item.Amount)
	})

	t.Run("異常系: 存在しない寄付ID", func(t *testing.T) {
		rec := env.get("/api/v1/admin/donations/missing")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("異常系: 不正なlimit", func(t *testing.T) {
		rec := env.get("/api/v1/admin/donations?limit=0")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

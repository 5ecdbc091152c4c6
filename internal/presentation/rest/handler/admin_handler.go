package handler

import (
	"net/http"
	"strconv"
	"time"

	donationapp "donation-server/internal/application/donation"
	eventlogapp "donation-server/internal/application/eventlog"
	"donation-server/internal/domain/donation"
	"donation-server/internal/domain/eventlog"

	"github.com/labstack/echo/v4"
)

const maxDonationsLimit = 500

// AdminHandler 管理API用ハンドラー
type AdminHandler struct {
	eventLogService *eventlogapp.EventLogApplicationService
	donationService *donationapp.DonationApplicationService
}

// NewAdminHandler 新しいAdminHandlerを作成
func NewAdminHandler(
	eventLogService *eventlogapp.EventLogApplicationService,
	donationService *donationapp.DonationApplicationService,
) *AdminHandler {
	return &AdminHandler{
		eventLogService: eventLogService,
		donationService: donationService,
	}
}

// ListEvents イベントログ取得ハンドラー
// @Summary イベントログを取得
// @Description 直近のステップ遷移とエラーを追加順に返します。limit指定時は新しい方から件数分です
// @Tags admin
// @Produce json
// @Security Bearer
// @Param channel query string false "チャネルで絞り込み（sms/voice）" example(sms)
// @Param correlation_id query string false "送信者または発信者で絞り込み" example(+15551234567)
// @Param errors_only query bool false "エラーのみ" default(false)
// @Param limit query int false "取得件数（0は全件）" default(0)
// @Success 200 {object} ListEventsResponse "取得成功"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Router /admin/events [get]
func (h *AdminHandler) ListEvents(c echo.Context) error {
	req := &eventlogapp.ListEventsRequest{
		Channel:       c.QueryParam("channel"),
		CorrelationID: c.QueryParam("correlation_id"),
	}

	if req.Channel != "" {
		if _, err := donation.NewChannel(req.Channel); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid channel parameter")
		}
	}

	if s := c.QueryParam("errors_only"); s != "" {
		errorsOnly, err := strconv.ParseBool(s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid errors_only parameter")
		}
		req.ErrorsOnly = errorsOnly
	}

	if s := c.QueryParam("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit parameter")
		}
		req.Limit = limit
	}

	resp, err := h.eventLogService.ListEvents(c.Request().Context(), req)
	if err != nil {
		return err
	}

	events := make([]EventItem, len(resp.Events))
	for i, e := range resp.Events {
		events[i] = toEventItem(e)
	}

	return c.JSON(http.StatusOK, ListEventsResponse{
		Events:   events,
		Total:    resp.Total,
		Capacity: resp.Capacity,
	})
}

// ListDonations 寄付一覧取得ハンドラー
// @Summary 寄付記録を取得
// @Description 台帳の寄付記録を新しい順に返します
// @Tags admin
// @Produce json
// @Security Bearer
// @Param limit query int false "取得件数（デフォルト: 50, 最大: 500)" default(50)
// @Success 200 {object} ListDonationsResponse "取得成功"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Router /admin/donations [get]
func (h *AdminHandler) ListDonations(c echo.Context) error {
	limit := 0
	if s := c.QueryParam("limit"); s != "" {
		var err error
		limit, err = strconv.Atoi(s)
		if err != nil || limit < 1 || limit > maxDonationsLimit {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit parameter")
		}
	}

	resp, err := h.donationService.ListDonations(c.Request().Context(), &donationapp.ListDonationsRequest{
		Limit: limit,
	})
	if err != nil {
		return err
	}

	donations := make([]DonationItem, len(resp.Donations))
	for i, d := range resp.Donations {
		donations[i] = toDonationItem(d)
	}

	return c.JSON(http.StatusOK, ListDonationsResponse{
		Donations: donations,
		Count:     len(donations),
	})
}

// GetDonation 寄付記録取得ハンドラー
// @Summary 寄付記録を1件取得
// @Tags admin
// @Produce json
// @Security Bearer
// @Param donation_id path string true "寄付ID"
// @Success 200 {object} DonationItem "取得成功"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Failure 404 {object} ErrorResponse "寄付記録が見つからない"
// @Router /admin/donations/{donation_id} [get]
func (h *AdminHandler) GetDonation(c echo.Context) error {
	donationID := c.Param("donation_id")
	if donationID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "donation_id is required")
	}

	d, err := h.donationService.GetDonation(c.Request().Context(), donationID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toDonationItem(*d))
}

func toEventItem(e eventlog.Entry) EventItem {
	return EventItem{
		ID:            e.ID,
		Timestamp:     e.Timestamp.UTC().Format(time.RFC3339),
		Channel:       e.Channel,
		CorrelationID: e.CorrelationID,
		Step:          e.Step,
		Field:         string(e.Field),
		Data:          e.Data,
		Error:         e.Error,
	}
}

func toDonationItem(d donationapp.DonationDTO) DonationItem {
	return DonationItem{
		DonationID:      d.DonationID,
		Channel:         d.Channel,
		Caller:          d.Caller,
		Amount:          d.Amount,
		CardLast4:       d.CardLast4,
		Status:          d.Status,
		ReferenceNumber: d.ReferenceNumber,
		ErrorMessage:    d.ErrorMessage,
		CreatedAt:       d.CreatedAt.UTC().Format(time.RFC3339),
	}
}

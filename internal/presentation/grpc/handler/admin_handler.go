package handler

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	donationapp "donation-server/internal/application/donation"
	eventlogapp "donation-server/internal/application/eventlog"
	"donation-server/internal/domain/donation"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const maxDonationsLimit = 500

// AdminHandler gRPC管理サービスのハンドラー
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

// ListEvents イベントログ取得
// リクエスト: channel(string), correlation_id(string), errors_only(bool), limit(number)
func (h *AdminHandler) ListEvents(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()

	appReq := &eventlogapp.ListEventsRequest{
		Channel:       fields["channel"].GetStringValue(),
		CorrelationID: fields["correlation_id"].GetStringValue(),
		ErrorsOnly:    fields["errors_only"].GetBoolValue(),
	}

	if appReq.Channel != "" {
		if _, err := donation.NewChannel(appReq.Channel); err != nil {
			return nil, status.Error(codes.InvalidArgument, "invalid channel")
		}
	}

	limit, err := intField(fields, "limit")
	if err != nil || limit < 0 {
		return nil, status.Error(codes.InvalidArgument, "invalid limit")
	}
	appReq.Limit = limit

	appResp, err := h.eventLogService.ListEvents(ctx, appReq)
	if err != nil {
		return nil, h.handleError(err)
	}

	events := make([]interface{}, 0, len(appResp.Events))
	for _, e := range appResp.Events {
		item := map[string]interface{}{
			"id":             e.ID,
			"timestamp":      e.Timestamp.UTC().Format(time.RFC3339),
			"channel":        e.Channel,
			"correlation_id": e.CorrelationID,
			"step":           e.Step,
			"data":           e.Data,
		}
		if e.HasError() {
			item["error"] = e.Error
		}
		events = append(events, item)
	}

	return newStruct(map[string]interface{}{
		"events":   events,
		"total":    appResp.Total,
		"capacity": appResp.Capacity,
	})
}

// ListDonations 寄付記録一覧取得
// リクエスト: limit(number, 1..500)
func (h *AdminHandler) ListDonations(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	limit, err := intField(req.GetFields(), "limit")
	if err != nil || limit < 0 || limit > maxDonationsLimit {
		return nil, status.Error(codes.InvalidArgument, "invalid limit")
	}

	appResp, err := h.donationService.ListDonations(ctx, &donationapp.ListDonationsRequest{Limit: limit})
	if err != nil {
		return nil, h.handleError(err)
	}

	donations := make([]interface{}, 0, len(appResp.Donations))
	for _, d := range appResp.Donations {
		donations = append(donations, donationFields(d))
	}

	return newStruct(map[string]interface{}{
		"donations": donations,
		"count":     len(donations),
	})
}

// GetDonation 寄付記録取得
// リクエスト: donation_id(string)
func (h *AdminHandler) GetDonation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	donationID := strings.TrimSpace(req.GetFields()["donation_id"].GetStringValue())
	if donationID == "" {
		return nil, status.Error(codes.InvalidArgument, "donation_id is required")
	}

	dto, err := h.donationService.GetDonation(ctx, donationID)
	if err != nil {
		return nil, h.handleError(err)
	}

	return newStruct(donationFields(*dto))
}

// handleError エラーをgRPCステータスコードに変換
func (h *AdminHandler) handleError(err error) error {
	if errors.Is(err, donation.ErrDonationNotFound) {
		return status.Error(codes.NotFound, err.Error())
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, "internal server error")
}

func donationFields(d donationapp.DonationDTO) map[string]interface{} {
	fields := map[string]interface{}{
		"donation_id": d.DonationID,
		"channel":     d.Channel,
		"caller":      d.Caller,
		"amount":      d.Amount,
		"card_last4":  d.CardLast4,
		"status":      d.Status,
		"created_at":  d.CreatedAt.UTC().Format(time.RFC3339),
	}
	if d.ReferenceNumber != "" {
		fields["reference_number"] = d.ReferenceNumber
	}
	if d.ErrorMessage != "" {
		fields["error_message"] = d.ErrorMessage
	}
	return fields
}

// intField 数値フィールドを整数として取り出す。未指定の場合は0
func intField(fields map[string]*structpb.Value, name string) (int, error) {
	v, ok := fields[name]
	if !ok {
		return 0, nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, errors.New(name + " must be a number")
	}
	if n.NumberValue != math.Trunc(n.NumberValue) || math.Abs(n.NumberValue) > math.MaxInt32 {
		return 0, errors.New(name + " must be an integer")
	}
	return int(n.NumberValue), nil
}

func newStruct(m map[string]interface{}) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return s, nil
}

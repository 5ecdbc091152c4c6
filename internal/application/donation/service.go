package donation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"donation-server/internal/domain/donation"
	"donation-server/internal/domain/eventlog"
	"donation-server/internal/domain/payment"
	otelinfra "donation-server/internal/infrastructure/observability/otel"
)

const (
	// StepSubmit 決済送信のイベント名
	StepSubmit = "submit"

	defaultListLimit = 50
	maxListLimit     = 500
)

// EventRecorder イベントログへの記録
type EventRecorder interface {
	Record(ctx context.Context, entry eventlog.Entry)
}

// DonationApplicationService 寄付アプリケーションサービス
// SMSと電話の両フローはここを通して決済を送信する。
type DonationApplicationService struct {
	gateway payment.Gateway
	repo    donation.DonationRepository
	events  EventRecorder
	logger  *otelinfra.Logger
	metrics *otelinfra.Metrics
	tracer  trace.Tracer
}

// NewDonationApplicationService 新しいDonationApplicationServiceを作成
func NewDonationApplicationService(
	gateway payment.Gateway,
	repo donation.DonationRepository,
	events EventRecorder,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *DonationApplicationService {
	return &DonationApplicationService{
		gateway: gateway,
		repo:    repo,
		events:  events,
		logger:  logger,
		metrics: metrics,
		tracer:  otel.Tracer("donation-service"),
	}
}

// Submit 決済を1回だけ送信し、結果を返す
// 結果は利用者への応答を決めるだけで、エラーとしては返さない。
func (s *DonationApplicationService) Submit(ctx context.Context, req *SubmitRequest) *SubmitResponse {
	ctx, span := s.tracer.Start(ctx, "DonationApplicationService.Submit")
	defer span.End()

	donationID := uuid.NewString()
	span.SetAttributes(
		attribute.String("donation_id", donationID),
		attribute.String("channel", req.Channel.String()),
		attribute.String("amount", req.Amount),
	)

	s.logger.Info(ctx, "Submitting donation", map[string]interface{}{
		"donation_id": donationID,
		"channel":     req.Channel.String(),
		"caller":      req.Caller,
		"amount":      req.Amount,
		"card_last4":  donation.CardLast4(req.CardNumber),
	})

	start := time.Now()
	result, err := s.gateway.Charge(ctx, &payment.ChargeRequest{
		Amount:     req.Amount,
		CardNumber: req.CardNumber,
		Expiry:     req.Expiry,
		CVV:        req.CVV,
		ZIP:        req.ZIP,
		Phone:      req.Caller,
	})
	elapsed := time.Since(start).Seconds()

	resp := &SubmitResponse{DonationID: donationID}
	var status donation.Status
	switch {
	case err != nil:
		resp.Outcome = OutcomeTransportError
		resp.Reason = err.Error()
		status = donation.StatusFailed
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Payment gateway unreachable", err, map[string]interface{}{
			"donation_id": donationID,
			"channel":     req.Channel.String(),
		})
		if s.metrics != nil {
			s.metrics.RecordError(ctx, "gateway_transport")
		}
	case result.Unparsable:
		resp.Outcome = OutcomeInvalidResponse
		resp.Reason = result.Reason
		status = donation.StatusFailed
		span.SetStatus(otelcodes.Error, result.Reason)
		s.logger.Warn(ctx, "Payment gateway response unparsable", map[string]interface{}{
			"donation_id": donationID,
			"channel":     req.Channel.String(),
			"reason":      result.Reason,
		})
		if s.metrics != nil {
			s.metrics.RecordError(ctx, "gateway_response")
		}
	case result.Approved:
		resp.Outcome = OutcomeApproved
		resp.ReferenceNumber = result.ReferenceNumber
		status = donation.StatusApproved
		span.SetStatus(otelcodes.Ok, "donation approved")
		s.logger.Info(ctx, "Donation approved", map[string]interface{}{
			"donation_id":      donationID,
			"reference_number": result.ReferenceNumber,
		})
	default:
		resp.Outcome = OutcomeDeclined
		resp.Reason = result.Reason
		status = donation.StatusDeclined
		span.SetAttributes(attribute.String("decline_reason", result.Reason))
		s.logger.Warn(ctx, "Donation declined", map[string]interface{}{
			"donation_id": donationID,
			"reason":      result.Reason,
		})
	}

	span.SetAttributes(attribute.String("outcome", string(resp.Outcome)))
	s.recordMetrics(ctx, req, resp, elapsed)
	s.recordEvent(ctx, req, resp)
	s.saveLedger(ctx, req, resp, status)

	return resp
}

// ListDonations 台帳の寄付記録を新しい順に返す
func (s *DonationApplicationService) ListDonations(ctx context.Context, req *ListDonationsRequest) (*ListDonationsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "DonationApplicationService.ListDonations")
	defer span.End()

	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	span.SetAttributes(attribute.Int("limit", limit))

	donations, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to list donations: %w", err)
	}

	dtos := make([]DonationDTO, 0, len(donations))
	for _, d := range donations {
		dtos = append(dtos, toDTO(d))
	}
	return &ListDonationsResponse{Donations: dtos}, nil
}

// GetDonation 寄付IDで台帳の寄付記録を返す
func (s *DonationApplicationService) GetDonation(ctx context.Context, donationID string) (*DonationDTO, error) {
	ctx, span := s.tracer.Start(ctx, "DonationApplicationService.GetDonation")
	defer span.End()

	d, err := s.repo.FindByDonationID(ctx, donationID)
	if err != nil {
		if !errors.Is(err, donation.ErrDonationNotFound) {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
		}
		return nil, err
	}

	dto := toDTO(d)
	return &dto, nil
}

func (s *DonationApplicationService) recordMetrics(ctx context.Context, req *SubmitRequest, resp *SubmitResponse, elapsed float64) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordGatewayLatency(ctx, string(resp.Outcome), elapsed)
	s.metrics.RecordDonation(ctx, req.Channel.String(), string(resp.Outcome))
	if resp.Approved() {
		if amount, err := strconv.ParseFloat(req.Amount, 64); err == nil {
			s.metrics.RecordDonationAmount(ctx, req.Channel.String(), amount)
		}
	}
}

func (s *DonationApplicationService) recordEvent(ctx context.Context, req *SubmitRequest, resp *SubmitResponse) {
	if s.events == nil {
		return
	}

	entry := eventlog.Entry{
		Channel:       req.Channel.String(),
		CorrelationID: req.CorrelationID,
		Step:          StepSubmit,
		Data:          string(resp.Outcome),
	}
	switch resp.Outcome {
	case OutcomeApproved:
		entry.Data = string(resp.Outcome) + " ref=" + resp.ReferenceNumber
	case OutcomeDeclined:
		entry.Error = "declined: " + resp.Reason
	case OutcomeInvalidResponse:
		entry.Error = "gateway response error: " + resp.Reason
	case OutcomeTransportError:
		entry.Error = "gateway transport error: " + resp.Reason
	}
	s.events.Record(ctx, entry)
}

// saveLedger 台帳へ記録する。失敗しても利用者への結果は変えない
func (s *DonationApplicationService) saveLedger(ctx context.Context, req *SubmitRequest, resp *SubmitResponse, status donation.Status) {
	if s.repo == nil {
		return
	}

	d := donation.NewDonation(
		resp.DonationID,
		req.Channel,
		req.Caller,
		req.Amount,
		req.CardNumber,
		status,
		resp.ReferenceNumber,
		resp.Reason,
	)
	if err := s.repo.Save(ctx, d); err != nil {
		s.logger.Error(ctx, "Failed to save donation record", err, map[string]interface{}{
			"donation_id": resp.DonationID,
		})
	}
}

func toDTO(d *donation.Donation) DonationDTO {
	return DonationDTO{
		DonationID:      d.DonationID(),
		Channel:         d.Channel().String(),
		Caller:          d.Caller(),
		Amount:          d.Amount(),
		CardLast4:       d.CardLast4(),
		Status:          d.Status().String(),
		ReferenceNumber: d.ReferenceNumber(),
		ErrorMessage:    d.ErrorMessage(),
		CreatedAt:       d.CreatedAt(),
	}
}

package eventlog

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"donation-server/internal/domain/eventlog"
	otelinfra "donation-server/internal/infrastructure/observability/otel"
)

// EventLogApplicationService イベントログアプリケーションサービス
type EventLogApplicationService struct {
	ring   *eventlog.Ring
	logger *otelinfra.Logger
}

// NewEventLogApplicationService 新しいEventLogApplicationServiceを作成
func NewEventLogApplicationService(ring *eventlog.Ring, logger *otelinfra.Logger) *EventLogApplicationService {
	return &EventLogApplicationService{
		ring:   ring,
		logger: logger,
	}
}

// Record イベントを記録する。失敗しない
func (s *EventLogApplicationService) Record(ctx context.Context, entry eventlog.Entry) {
	s.ring.Append(entry)

	fields := map[string]interface{}{
		"channel":        entry.Channel,
		"correlation_id": entry.CorrelationID,
		"step":           entry.Step,
	}
	if entry.HasError() {
		fields["error_description"] = entry.Error
		s.logger.Warn(ctx, "Step input rejected", fields)
		return
	}
	s.logger.Debug(ctx, "Step recorded", fields)
}

// ListEvents 条件に合うイベントを追加順に返す。Limit指定時は新しい方からLimit件
func (s *EventLogApplicationService) ListEvents(ctx context.Context, req *ListEventsRequest) (*ListEventsResponse, error) {
	_, span := otel.Tracer("eventlog-service").Start(ctx, "EventLogApplicationService.ListEvents")
	defer span.End()

	all := s.ring.List()

	events := make([]eventlog.Entry, 0, len(all))
	for _, e := range all {
		if req.Channel != "" && e.Channel != req.Channel {
			continue
		}
		if req.CorrelationID != "" && e.CorrelationID != req.CorrelationID {
			continue
		}
		if req.ErrorsOnly && !e.HasError() {
			continue
		}
		events = append(events, e)
	}

	if req.Limit > 0 && len(events) > req.Limit {
		events = events[len(events)-req.Limit:]
	}

	span.SetAttributes(
		attribute.Int("eventlog.total", len(all)),
		attribute.Int("eventlog.returned", len(events)),
	)

	return &ListEventsResponse{
		Events:   events,
		Total:    len(all),
		Capacity: s.ring.Capacity(),
	}, nil
}

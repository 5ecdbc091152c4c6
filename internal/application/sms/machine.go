package sms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	donationapp "donation-server/internal/application/donation"
	"donation-server/internal/domain/donation"
	"donation-server/internal/domain/eventlog"
	"donation-server/internal/domain/session"
	otelinfra "donation-server/internal/infrastructure/observability/otel"
)

// StepCancel 取り消し操作のイベント名
const StepCancel = "cancel"

// cancelCommands 会話を取り消すキーワード(大文字小文字を区別しない)
var cancelCommands = map[string]struct{}{
	"CANCEL": {},
	"STOP":   {},
}

// Submitter 決済の送信
type Submitter interface {
	Submit(ctx context.Context, req *donationapp.SubmitRequest) *donationapp.SubmitResponse
}

// Machine SMS寄付の会話ステップマシン
type Machine struct {
	store     session.SessionStore
	submitter Submitter
	events    donationapp.EventRecorder
	logger    *otelinfra.Logger
	metrics   *otelinfra.Metrics
	tracer    trace.Tracer
}

// NewMachine 新しいMachineを作成
func NewMachine(
	store session.SessionStore,
	submitter Submitter,
	events donationapp.EventRecorder,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *Machine {
	return &Machine{
		store:     store,
		submitter: submitter,
		events:    events,
		logger:    logger,
		metrics:   metrics,
		tracer:    otel.Tracer("sms-machine"),
	}
}

// HandleMessage 受信1件につきセッションを最大1ステップ進め、返信を1件返す
// エラーはセッションストアの障害時のみ返す。
func (m *Machine) HandleMessage(ctx context.Context, msg *InboundMessage) (*Reply, error) {
	ctx, span := m.tracer.Start(ctx, "Machine.HandleMessage")
	defer span.End()

	unlock := m.store.Lock(msg.From)
	defer unlock()

	body := strings.TrimSpace(msg.Body)

	if _, ok := cancelCommands[strings.ToUpper(body)]; ok {
		return m.cancel(ctx, msg.From)
	}

	sess, err := m.store.Get(ctx, msg.From)
	if errors.Is(err, session.ErrSessionNotFound) {
		sess = session.NewSession(msg.From)
	} else if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	step := sess.Step()
	span.SetAttributes(attribute.String("sms.step", step.String()))

	switch step {
	case session.StepAwaitingAmount:
		amount, err := donation.ParseAmount(body)
		if err != nil {
			m.reject(ctx, msg.From, step, eventlog.FieldAmount, body, "Invalid amount input")
			return &Reply{Message: msgPromptAmount}, nil
		}
		return m.advance(ctx, sess, eventlog.FieldAmount, amount, body, msgPromptCard)

	case session.StepAwaitingCard:
		card, err := donation.NormalizeCardNumber(body)
		if err != nil {
			m.reject(ctx, msg.From, step, eventlog.FieldCardNumber, body, "Invalid card number")
			return &Reply{Message: msgInvalidCard}, nil
		}
		return m.advance(ctx, sess, eventlog.FieldCardNumber, card, body, msgPromptExpiry)

	case session.StepAwaitingExpiry:
		if err := donation.ValidateExpiry(body); err != nil {
			m.reject(ctx, msg.From, step, eventlog.FieldExpiry, body, "Invalid expiration date")
			return &Reply{Message: msgInvalidExpiry}, nil
		}
		return m.advance(ctx, sess, eventlog.FieldExpiry, body, body, msgPromptCVV)

	case session.StepAwaitingCVV:
		if err := donation.ValidateCVV(body); err != nil {
			m.reject(ctx, msg.From, step, eventlog.FieldCVV, body, "Invalid CVV")
			return &Reply{Message: msgInvalidCVV}, nil
		}
		return m.advance(ctx, sess, eventlog.FieldCVV, body, body, msgPromptZIP)

	case session.StepAwaitingZIP:
		if err := donation.ValidateZIP(body); err != nil {
			m.reject(ctx, msg.From, step, eventlog.FieldZIP, body, "Invalid ZIP code")
			return &Reply{Message: msgInvalidZIP}, nil
		}
		if err := sess.Advance(step, body); err != nil {
			return nil, fmt.Errorf("failed to advance session: %w", err)
		}
		m.accept(ctx, msg.From, step, eventlog.FieldZIP, body)
		return m.submit(ctx, sess)

	default:
		err := fmt.Errorf("unknown session step: %s", step)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
}

// advance 検証済みの値を記録して次のステップへ進め、次の質問を返す
func (m *Machine) advance(ctx context.Context, sess *session.Session, field eventlog.Field, value, raw, prompt string) (*Reply, error) {
	step := sess.Step()
	if err := sess.Advance(step, value); err != nil {
		return nil, fmt.Errorf("failed to advance session: %w", err)
	}
	if err := m.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	m.accept(ctx, sess.Sender(), step, field, raw)
	return &Reply{Message: prompt}, nil
}

// submit 決済を送信し、結果にかかわらずセッションを破棄する
func (m *Machine) submit(ctx context.Context, sess *session.Session) (*Reply, error) {
	resp := m.submitter.Submit(ctx, &donationapp.SubmitRequest{
		Channel:       donation.ChannelSMS,
		CorrelationID: sess.Sender(),
		Caller:        sess.Sender(),
		Amount:        sess.Amount(),
		CardNumber:    sess.CardNumber(),
		Expiry:        sess.Expiry(),
		CVV:           sess.CVV(),
		ZIP:           sess.ZIP(),
	})

	if err := m.store.Delete(ctx, sess.Sender()); err != nil {
		m.logger.Error(ctx, "Failed to delete session", err, map[string]interface{}{
			"sender": sess.Sender(),
		})
	}

	if !resp.Approved() {
		return &Reply{Message: msgFailed}, nil
	}

	ref := resp.ReferenceNumber
	if ref == "" {
		ref = referencePlaceholder
	}
	return &Reply{Message: fmt.Sprintf(msgApproved, sess.Amount(), ref)}, nil
}

func (m *Machine) cancel(ctx context.Context, sender string) (*Reply, error) {
	if err := m.store.Delete(ctx, sender); err != nil {
		return nil, fmt.Errorf("failed to delete session: %w", err)
	}
	m.events.Record(ctx, eventlog.Entry{
		Channel:       donation.ChannelSMS.String(),
		CorrelationID: sender,
		Step:          StepCancel,
	})
	return &Reply{Message: msgCancelled}, nil
}

func (m *Machine) accept(ctx context.Context, sender string, step session.Step, field eventlog.Field, raw string) {
	m.events.Record(ctx, eventlog.Entry{
		Channel:       donation.ChannelSMS.String(),
		CorrelationID: sender,
		Step:          step.String(),
		Field:         field,
		Data:          raw,
	})
	if m.metrics != nil {
		m.metrics.RecordStep(ctx, donation.ChannelSMS.String(), step.String(), "accepted")
	}
}

func (m *Machine) reject(ctx context.Context, sender string, step session.Step, field eventlog.Field, raw, reason string) {
	m.events.Record(ctx, eventlog.Entry{
		Channel:       donation.ChannelSMS.String(),
		CorrelationID: sender,
		Step:          step.String(),
		Field:         field,
		Data:          raw,
		Error:         reason,
	})
	if m.metrics != nil {
		m.metrics.RecordStep(ctx, donation.ChannelSMS.String(), step.String(), "rejected")
	}
}

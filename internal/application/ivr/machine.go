package ivr

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	donationapp "donation-server/internal/application/donation"
	"donation-server/internal/domain/donation"
	"donation-server/internal/domain/eventlog"
	"donation-server/internal/domain/ivr"
	"donation-server/internal/domain/voice"
	"donation-server/internal/infrastructure/config"
	otelinfra "donation-server/internal/infrastructure/observability/otel"
)

const (
	// StepStart 着信のイベント名
	StepStart = "start"

	// paramDigits タイムアウト時の遷移で金額を運ぶクエリ名
	paramDigits = "Digits"

	methodPost = "POST"
)

// Submitter 決済の送信
type Submitter interface {
	Submit(ctx context.Context, req *donationapp.SubmitRequest) *donationapp.SubmitResponse
}

// Machine 電話(DTMF)寄付のステップマシン
// 状態は保持せず、各応答のコールバックアドレスに通話コンテキストを載せて受け渡す。
type Machine struct {
	cfg       *config.IVRConfig
	guard     ivr.ReplayGuard
	submitter Submitter
	events    donationapp.EventRecorder
	logger    *otelinfra.Logger
	metrics   *otelinfra.Metrics
	tracer    trace.Tracer
	newToken  func() string
}

// NewMachine 新しいMachineを作成
func NewMachine(
	cfg *config.IVRConfig,
	guard ivr.ReplayGuard,
	submitter Submitter,
	events donationapp.EventRecorder,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *Machine {
	return &Machine{
		cfg:       cfg,
		guard:     guard,
		submitter: submitter,
		events:    events,
		logger:    logger,
		metrics:   metrics,
		tracer:    otel.Tracer("ivr-machine"),
		newToken:  uuid.NewString,
	}
}

// Handle 段階に応じた処理へ振り分ける
func (m *Machine) Handle(ctx context.Context, stage ivr.Stage, call *InboundCall) *voice.Response {
	switch stage {
	case ivr.StageCollectingAmount:
		return m.CollectAmount(ctx, call)
	case ivr.StageConfirmingAmount:
		return m.ConfirmAmount(ctx, call)
	case ivr.StageCollectingCard:
		return m.CollectCard(ctx, call)
	case ivr.StageCollectingExpiry:
		return m.CollectExpiry(ctx, call)
	case ivr.StageCollectingCVV:
		return m.CollectCVV(ctx, call)
	case ivr.StageCollectingZIP:
		return m.CollectZIP(ctx, call)
	case ivr.StageRetryOrEnd:
		return m.Retry(ctx, call)
	default:
		return m.Start(ctx, call)
	}
}

// Start 着信時に金額入力を求める
func (m *Machine) Start(ctx context.Context, call *InboundCall) *voice.Response {
	ctx, span := m.startSpan(ctx, "Machine.Start", StepStart)
	defer span.End()

	m.record(ctx, call, StepStart, eventlog.FieldNone, "", "")
	return voice.NewResponse().Gather(m.amountGather())
}

// CollectAmount 1〜4桁の金額を受け取り、確認を求める
// 本文にDigitsが無い場合は、確認のタイムアウト遷移が運んだ金額を使う。
func (m *Machine) CollectAmount(ctx context.Context, call *InboundCall) *voice.Response {
	stage := ivr.StageCollectingAmount
	ctx, span := m.startSpan(ctx, "Machine.CollectAmount", stage.String())
	defer span.End()

	if !m.consumeToken(ctx, call, stage) {
		return voice.NewResponse()
	}

	digits := call.Digits
	if digits == "" {
		digits = call.query().Get(paramDigits)
	}

	if err := donation.ValidateDTMFAmount(digits); err != nil {
		m.reject(ctx, call, stage, eventlog.FieldAmount, digits, "Invalid amount input")
		return voice.NewResponse().Gather(m.amountGather())
	}

	m.accept(ctx, call, stage, eventlog.FieldAmount, digits)
	return m.confirmation(digits)
}

// ConfirmAmount 1で確定、2でやり直し、それ以外は確認をやり直す
func (m *Machine) ConfirmAmount(ctx context.Context, call *InboundCall) *voice.Response {
	stage := ivr.StageConfirmingAmount
	ctx, span := m.startSpan(ctx, "Machine.ConfirmAmount", stage.String())
	defer span.End()

	if !m.consumeToken(ctx, call, stage) {
		return voice.NewResponse()
	}

	base, ok := m.contextFor(ctx, call, stage)
	if !ok {
		return voice.NewResponse().Gather(m.amountGather())
	}

	switch call.Digits {
	case "1":
		m.accept(ctx, call, stage, eventlog.FieldNone, call.Digits)
		return voice.NewResponse().Gather(m.cardGather(base))
	case "2":
		m.accept(ctx, call, stage, eventlog.FieldNone, call.Digits)
		return voice.NewResponse().Redirect(ivr.EntryPath)
	default:
		m.reject(ctx, call, stage, eventlog.FieldNone, call.Digits, "Invalid confirmation input")
		return voice.NewResponse().
			Append(m.say(textInvalidInput)).
			Redirect(amountRedirectURL(base.Amount, ""))
	}
}

// CollectCard 15〜16桁のカード番号を受け取る
func (m *Machine) CollectCard(ctx context.Context, call *InboundCall) *voice.Response {
	stage := ivr.StageCollectingCard
	ctx, span := m.startSpan(ctx, "Machine.CollectCard", stage.String())
	defer span.End()

	base, ok := m.contextFor(ctx, call, stage)
	if !ok {
		return voice.NewResponse().Gather(m.amountGather())
	}

	card, err := donation.NormalizeCardNumber(call.Digits)
	if err != nil {
		m.reject(ctx, call, stage, eventlog.FieldCardNumber, call.Digits, "Invalid card number")
		return voice.NewResponse().Gather(m.cardGather(base))
	}

	m.accept(ctx, call, stage, eventlog.FieldCardNumber, card)
	next := base
	next.CardNumber = card
	return voice.NewResponse().Gather(m.fieldGather(next, ivr.StageCollectingExpiry, 0, promptExpiry))
}

// CollectExpiry 4桁の有効期限を受け取る
func (m *Machine) CollectExpiry(ctx context.Context, call *InboundCall) *voice.Response {
	stage := ivr.StageCollectingExpiry
	ctx, span := m.startSpan(ctx, "Machine.CollectExpiry", stage.String())
	defer span.End()

	base, ok := m.contextFor(ctx, call, stage)
	if !ok {
		return voice.NewResponse().Gather(m.amountGather())
	}

	if err := donation.ValidateExpiry(call.Digits); err != nil {
		m.reject(ctx, call, stage, eventlog.FieldExpiry, call.Digits, "Invalid expiration date")
		return voice.NewResponse().Gather(m.fieldGather(base, stage, 0, promptExpiry))
	}

	m.accept(ctx, call, stage, eventlog.FieldExpiry, call.Digits)
	next := base
	next.Expiry = call.Digits
	return voice.NewResponse().Gather(m.fieldGather(next, ivr.StageCollectingCVV, 0, promptCVV))
}

// CollectCVV 3〜4桁のCVVを受け取る
func (m *Machine) CollectCVV(ctx context.Context, call *InboundCall) *voice.Response {
	stage := ivr.StageCollectingCVV
	ctx, span := m.startSpan(ctx, "Machine.CollectCVV", stage.String())
	defer span.End()

	base, ok := m.contextFor(ctx, call, stage)
	if !ok {
		return voice.NewResponse().Gather(m.amountGather())
	}

	if err := donation.ValidateCVV(call.Digits); err != nil {
		m.reject(ctx, call, stage, eventlog.FieldCVV, call.Digits, "Invalid CVV")
		return voice.NewResponse().Gather(m.fieldGather(base, stage, 0, promptCVV))
	}

	m.accept(ctx, call, stage, eventlog.FieldCVV, call.Digits)
	next := base
	next.CVV = call.Digits
	return voice.NewResponse().Gather(m.fieldGather(next, ivr.StageCollectingZIP, 5, promptZIP))
}

// CollectZIP 5桁のZIPを受け取り、決済を送信する
func (m *Machine) CollectZIP(ctx context.Context, call *InboundCall) *voice.Response {
	stage := ivr.StageCollectingZIP
	ctx, span := m.startSpan(ctx, "Machine.CollectZIP", stage.String())
	defer span.End()

	base, ok := m.contextFor(ctx, call, stage)
	if !ok {
		return voice.NewResponse().Gather(m.amountGather())
	}

	if err := donation.ValidateZIP(call.Digits); err != nil {
		m.reject(ctx, call, stage, eventlog.FieldZIP, call.Digits, "Invalid ZIP code")
		return voice.NewResponse().Gather(m.fieldGather(base, stage, 5, promptZIP))
	}

	m.accept(ctx, call, stage, eventlog.FieldZIP, call.Digits)
	full := base
	full.ZIP = call.Digits

	resp := m.submitter.Submit(ctx, &donationapp.SubmitRequest{
		Channel:       donation.ChannelVoice,
		CorrelationID: call.correlationID(),
		Caller:        call.Caller,
		Amount:        full.Amount,
		CardNumber:    full.CardNumber,
		Expiry:        full.Expiry,
		CVV:           full.CVV,
		ZIP:           full.ZIP,
	})
	span.SetAttributes(attribute.String("ivr.outcome", string(resp.Outcome)))

	switch {
	case resp.TransportError(), resp.InvalidResponse():
		return voice.NewResponse().Append(m.say(textUnavailable)).Hangup()
	case resp.Approved():
		return m.success(full.Amount, resp.ReferenceNumber)
	default:
		return m.declined(full.Truncate(1))
	}
}

// Retry 拒否後の再試行選択。再試行キーで金額を保ったままカード番号入力へ戻る
func (m *Machine) Retry(ctx context.Context, call *InboundCall) *voice.Response {
	stage := ivr.StageRetryOrEnd
	ctx, span := m.startSpan(ctx, "Machine.Retry", stage.String())
	defer span.End()

	base, ok := m.contextFor(ctx, call, stage)
	if ok && call.Digits == m.cfg.RetryDigit {
		m.accept(ctx, call, stage, eventlog.FieldNone, call.Digits)
		return voice.NewResponse().Gather(m.cardGather(base))
	}

	if ok {
		m.accept(ctx, call, stage, eventlog.FieldNone, call.Digits)
	}
	return voice.NewResponse().Append(m.say(textFarewell)).Hangup()
}

func (m *Machine) confirmation(amount string) *voice.Response {
	token := m.newToken()
	cc := ivr.CallContext{Amount: amount}

	return voice.NewResponse().
		Gather(voice.Gather{
			NumDigits: 1,
			Timeout:   m.cfg.ConfirmTimeout,
			Action:    withParam(cc.URL(ivr.StageConfirmingAmount), ivr.ParamToken, token),
			Method:    methodPost,
			Children: []voice.Verb{
				m.render(promptYouEntered),
				m.say(fmt.Sprintf(textDollars, spokenAmount(amount))),
				m.render(promptConfirmOptions),
			},
		}).
		Redirect(amountRedirectURL(amount, token))
}

func (m *Machine) success(amount, reference string) *voice.Response {
	resp := voice.NewResponse().
		Append(m.render(promptApproved)).
		Append(m.say(fmt.Sprintf(textDollars, spokenAmount(amount)))).
		Append(m.render(promptSuccessful))
	if reference != "" {
		resp.Append(m.render(promptReference)).Append(m.say(spellOut(reference)))
	}
	return resp.Append(m.say(textGoodbye)).Hangup()
}

func (m *Machine) declined(cc ivr.CallContext) *voice.Response {
	return voice.NewResponse().
		Append(m.render(promptDeclined)).
		Gather(voice.Gather{
			NumDigits: 1,
			Timeout:   m.cfg.RetryTimeout,
			Action:    cc.URL(ivr.StageRetryOrEnd),
			Method:    methodPost,
			Children:  []voice.Verb{m.render(promptRetryOptions.withText(m.cfg.RetryDigit))},
		}).
		Append(m.say(textFarewell)).
		Hangup()
}

func (m *Machine) amountGather() voice.Gather {
	return voice.Gather{
		NumDigits:   4,
		FinishOnKey: m.cfg.FinishOnKey,
		Timeout:     m.cfg.InputTimeout,
		Action:      ivr.StageCollectingAmount.Path(),
		Method:      methodPost,
		Children:    []voice.Verb{m.render(promptAmount)},
	}
}

func (m *Machine) cardGather(cc ivr.CallContext) voice.Gather {
	return m.fieldGather(cc.Truncate(1), ivr.StageCollectingCard, 0, promptCard)
}

// fieldGather 次の段階のアドレスに通話コンテキストを載せた入力収集を返す
func (m *Machine) fieldGather(cc ivr.CallContext, stage ivr.Stage, numDigits int, p prompt) voice.Gather {
	return voice.Gather{
		NumDigits:   numDigits,
		FinishOnKey: m.cfg.FinishOnKey,
		Timeout:     m.cfg.InputTimeout,
		Action:      cc.URL(stage),
		Method:      methodPost,
		Children:    []voice.Verb{m.render(p)},
	}
}

// contextFor 段階に必要な項目だけを残した通話コンテキストを返す
// 項目が揃っていない場合は記録してfalseを返す。
func (m *Machine) contextFor(ctx context.Context, call *InboundCall, stage ivr.Stage) (ivr.CallContext, bool) {
	cc := ivr.ParseCallContext(call.query())
	if !cc.Satisfies(stage) {
		m.reject(ctx, call, stage, inputField(stage), call.Digits, "Missing or invalid call context")
		return ivr.CallContext{}, false
	}
	return cc.Truncate(stage.RequiredFields()), true
}

// consumeToken 使い捨てトークンを消費する。既に消費済みならfalse
// ガードの障害時は処理を続ける。
func (m *Machine) consumeToken(ctx context.Context, call *InboundCall, stage ivr.Stage) bool {
	token := call.query().Get(ivr.ParamToken)
	if token == "" || m.guard == nil {
		return true
	}

	first, err := m.guard.Consume(ctx, token)
	if err != nil {
		m.logger.Warn(ctx, "Replay guard unavailable", map[string]interface{}{
			"stage": stage.String(),
			"error": err.Error(),
		})
		return true
	}
	if !first {
		m.record(ctx, call, stage.String(), inputField(stage), call.Digits, "Duplicate event ignored")
		m.recordStep(ctx, stage.String(), "duplicate")
		return false
	}
	return true
}

func (m *Machine) render(p prompt) voice.Verb {
	if u := m.cfg.AudioURL(p.audio); u != "" {
		return voice.Play{URL: u}
	}
	return m.say(p.text)
}

func (m *Machine) say(text string) voice.Say {
	return voice.Say{Text: text, Voice: m.cfg.Voice}
}

func (m *Machine) startSpan(ctx context.Context, name, stage string) (context.Context, trace.Span) {
	ctx, span := m.tracer.Start(ctx, name)
	span.SetAttributes(attribute.String("ivr.stage", stage))
	return ctx, span
}

func (m *Machine) accept(ctx context.Context, call *InboundCall, stage ivr.Stage, field eventlog.Field, data string) {
	m.record(ctx, call, stage.String(), field, data, "")
	m.recordStep(ctx, stage.String(), "accepted")
}

func (m *Machine) reject(ctx context.Context, call *InboundCall, stage ivr.Stage, field eventlog.Field, data, reason string) {
	m.record(ctx, call, stage.String(), field, data, reason)
	m.recordStep(ctx, stage.String(), "rejected")
}

func (m *Machine) record(ctx context.Context, call *InboundCall, step string, field eventlog.Field, data, reason string) {
	m.events.Record(ctx, eventlog.Entry{
		Channel:       donation.ChannelVoice.String(),
		CorrelationID: call.correlationID(),
		Step:          step,
		Field:         field,
		Data:          data,
		Error:         reason,
	})
}

func (m *Machine) recordStep(ctx context.Context, step, result string) {
	if m.metrics != nil {
		m.metrics.RecordStep(ctx, donation.ChannelVoice.String(), step, result)
	}
}

// inputField 段階で入力される項目。イベントログのマスク判定に使う
func inputField(stage ivr.Stage) eventlog.Field {
	switch stage {
	case ivr.StageCollectingAmount:
		return eventlog.FieldAmount
	case ivr.StageCollectingCard:
		return eventlog.FieldCardNumber
	case ivr.StageCollectingExpiry:
		return eventlog.FieldExpiry
	case ivr.StageCollectingCVV:
		return eventlog.FieldCVV
	case ivr.StageCollectingZIP:
		return eventlog.FieldZIP
	default:
		return eventlog.FieldNone
	}
}

// amountRedirectURL 金額入力の段階へ金額を運ぶアドレスを返す
func amountRedirectURL(amount, token string) string {
	u := withParam(ivr.StageCollectingAmount.Path(), paramDigits, amount)
	if token != "" {
		u = withParam(u, ivr.ParamToken, token)
	}
	return u
}

func withParam(u, key, value string) string {
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + key + "=" + url.QueryEscape(value)
}

// spokenAmount 金額を整数として読み上げる
func spokenAmount(amount string) int {
	n, _ := strconv.Atoi(amount)
	return n
}

// spellOut 1文字ずつ区切って読み上げる文を返す
func spellOut(s string) string {
	return strings.Join(strings.Split(s, ""), " ")
}

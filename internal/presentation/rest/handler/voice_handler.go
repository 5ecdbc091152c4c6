package handler

import (
	"net/http"

	ivrapp "donation-server/internal/application/ivr"
	"donation-server/internal/domain/ivr"
	"donation-server/internal/domain/voice"
	otelinfra "donation-server/internal/infrastructure/observability/otel"
	"donation-server/internal/presentation/twiml"

	"github.com/labstack/echo/v4"
)

// VoiceHandler 音声通話Webhookハンドラー
type VoiceHandler struct {
	machine *ivrapp.Machine
	logger  *otelinfra.Logger
}

// NewVoiceHandler 新しいVoiceHandlerを作成
func NewVoiceHandler(machine *ivrapp.Machine, logger *otelinfra.Logger) *VoiceHandler {
	return &VoiceHandler{
		machine: machine,
		logger:  logger,
	}
}

// HandleEntry 着信ハンドラー
// @Summary 着信
// @Description Twilio Voice Webhook。金額のキー入力を求めるTwiMLを返します
// @Tags webhook
// @Accept x-www-form-urlencoded
// @Produce xml
// @Param CallSid formData string false "通話SID"
// @Param From formData string false "発信者の電話番号"
// @Success 200 {string} string "TwiML Voice応答"
// @Router /voice [post]
func (h *VoiceHandler) HandleEntry(c echo.Context) error {
	call, err := h.inboundCall(c)
	if err != nil {
		return err
	}
	return h.respond(c, h.machine.Start(c.Request().Context(), call))
}

// HandleStage 入力段階ごとのコールバックハンドラー
// @Summary 入力段階のコールバック
// @Description 収集済みの入力はクエリの通話コンテキストで受け渡されます
// @Tags webhook
// @Accept x-www-form-urlencoded
// @Produce xml
// @Param stage path string true "段階（amount/confirm/card/expiry/cvv/zip/retry）" example(card)
// @Param Digits formData string false "キー入力"
// @Param amount query string false "確定済みの金額"
// @Param t query string false "金額確認の一回限りトークン"
// @Success 200 {string} string "TwiML Voice応答"
// @Failure 404 {object} ErrorResponse "未知の段階"
// @Router /voice/{stage} [post]
func (h *VoiceHandler) HandleStage(c echo.Context) error {
	stage, err := ivr.StageFromPath(c.Request().URL.Path)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "unknown voice stage")
	}

	call, err := h.inboundCall(c)
	if err != nil {
		return err
	}
	return h.respond(c, h.machine.Handle(c.Request().Context(), stage, call))
}

// inboundCall リクエストから着信イベントを組み立てる
// Digitsは本文のみから取り、クエリの値とは混ぜない。
func (h *VoiceHandler) inboundCall(c echo.Context) (*ivrapp.InboundCall, error) {
	req := c.Request()
	if err := req.ParseForm(); err != nil {
		h.logger.Warn(req.Context(), "Failed to parse voice webhook form", map[string]interface{}{
			"path":  req.URL.Path,
			"error": err.Error(),
		})
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid form body")
	}

	caller := req.PostForm.Get("From")
	if caller == "" {
		caller = req.PostForm.Get("Caller")
	}

	return &ivrapp.InboundCall{
		CallSID: req.PostForm.Get("CallSid"),
		Caller:  caller,
		Digits:  req.PostForm.Get("Digits"),
		Query:   c.QueryParams(),
	}, nil
}

// respond 音声応答をTwiMLで返す
func (h *VoiceHandler) respond(c echo.Context, resp *voice.Response) error {
	body, err := twiml.RenderVoice(resp)
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, twiml.ContentType, []byte(body))
}

package handler

import (
	"net/http"

	smsapp "donation-server/internal/application/sms"
	otelinfra "donation-server/internal/infrastructure/observability/otel"
	"donation-server/internal/presentation/twiml"

	"github.com/labstack/echo/v4"
)

// SMSHandler SMS Webhookハンドラー
type SMSHandler struct {
	machine *smsapp.Machine
	logger  *otelinfra.Logger
}

// NewSMSHandler 新しいSMSHandlerを作成
func NewSMSHandler(machine *smsapp.Machine, logger *otelinfra.Logger) *SMSHandler {
	return &SMSHandler{
		machine: machine,
		logger:  logger,
	}
}

// HandleSMS SMS受信ハンドラー
// @Summary SMS寄付の受信
// @Description Twilio Messaging Webhook。送信者ごとの会話を1ステップ進め、TwiMLで返信します
// @Tags webhook
// @Accept x-www-form-urlencoded
// @Produce xml
// @Param From formData string true "送信者の電話番号" example(+15551234567)
// @Param Body formData string false "メッセージ本文" example(25)
// @Success 200 {string} string "TwiML Messaging応答"
// @Failure 400 {string} string "フォーム本文の解析エラー"
// @Failure 403 {string} string "署名検証エラー"
// @Router /sms [post]
func (h *SMSHandler) HandleSMS(c echo.Context) error {
	req := c.Request()
	ctx := req.Context()

	// 署名の対象は本文のみ。クエリの同名パラメータは使わない
	if err := req.ParseForm(); err != nil {
		h.logger.Warn(ctx, "Failed to parse SMS webhook form", map[string]interface{}{
			"error": err.Error(),
		})
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form body")
	}
	msg := &smsapp.InboundMessage{
		From: req.PostForm.Get("From"),
		Body: req.PostForm.Get("Body"),
	}

	reply, err := h.machine.HandleMessage(ctx, msg)
	if err != nil {
		// ストア障害でも送信者には通常の返信を返す
		h.logger.Error(ctx, "Failed to handle SMS", err, map[string]interface{}{
			"from": msg.From,
		})
		reply = smsapp.FailureReply()
	}

	body, err := twiml.RenderMessage(reply.Message)
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, twiml.ContentType, []byte(body))
}

package middleware

import (
	"net/http"
	"strings"

	"donation-server/internal/infrastructure/config"
	otelinfra "donation-server/internal/infrastructure/observability/otel"

	"github.com/labstack/echo/v4"
	"github.com/twilio/twilio-go/client"
)

// HeaderTwilioSignature Twilioが付与する署名ヘッダー
const HeaderTwilioSignature = "X-Twilio-Signature"

// TwilioSignatureMiddleware Twilio Webhookの署名検証ミドルウェア
//
// AuthTokenが未設定の場合は検証を行わない。
func TwilioSignatureMiddleware(cfg *config.TwilioConfig, logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if !cfg.SignatureEnabled() {
			return next
		}
		validator := client.NewRequestValidator(cfg.AuthToken)

		return func(c echo.Context) error {
			req := c.Request()
			ctx := req.Context()

			signature := req.Header.Get(HeaderTwilioSignature)
			if signature == "" {
				logger.Warn(ctx, "Missing Twilio signature", map[string]interface{}{
					"path": req.URL.Path,
				})
				return c.NoContent(http.StatusForbidden)
			}

			if err := req.ParseForm(); err != nil {
				logger.Warn(ctx, "Failed to parse webhook form", map[string]interface{}{
					"path":  req.URL.Path,
					"error": err.Error(),
				})
				return c.NoContent(http.StatusBadRequest)
			}

			params := make(map[string]string, len(req.PostForm))
			for key, values := range req.PostForm {
				if len(values) > 0 {
					params[key] = values[0]
				}
			}

			if !validator.Validate(webhookURL(c, cfg.PublicBaseURL), params, signature) {
				logger.Warn(ctx, "Invalid Twilio signature", map[string]interface{}{
					"path": req.URL.Path,
				})
				return c.NoContent(http.StatusForbidden)
			}

			return next(c)
		}
	}
}

// webhookURL Twilioが署名に使った完全なURLを組み立てる
func webhookURL(c echo.Context, publicBaseURL string) string {
	base := strings.TrimRight(publicBaseURL, "/")
	if base == "" {
		base = c.Scheme() + "://" + c.Request().Host
	}
	return base + c.Request().URL.RequestURI()
}

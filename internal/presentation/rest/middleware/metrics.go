package middleware

import (
	"time"

	otelinfra "donation-server/internal/infrastructure/observability/otel"

	"github.com/labstack/echo/v4"
)

// MetricsMiddleware メトリクス記録ミドルウェア
func MetricsMiddleware(metrics *otelinfra.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			ctx := c.Request().Context()

			metrics.RecordRequest(ctx, c.Request().Method, c.Path())

			err := next(c)

			duration := time.Since(start).Seconds()
			metrics.RecordResponseTime(ctx, c.Request().Method, c.Path(), duration)

			// ハンドラーが直接エラーレスポンスを書いた場合も数える
			if errorType := errorTypeFor(c.Response().Status, err); errorType != "" {
				metrics.RecordError(ctx, errorType)
			}

			return err
		}
	}
}

// errorTypeFor ステータスコードからエラー種別を決める
func errorTypeFor(statusCode int, err error) string {
	switch {
	case statusCode >= 500:
		return "server_error"
	case statusCode >= 400:
		return "client_error"
	case err != nil:
		return "server_error"
	default:
		return ""
	}
}

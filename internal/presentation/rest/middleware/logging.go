package middleware

import (
	"time"

	otelinfra "donation-server/internal/infrastructure/observability/otel"

	"github.com/labstack/echo/v4"
)

// LoggingMiddleware ログミドルウェア
//
// IVRの通話コンテキストはクエリに載るため、ログにはパスのみを記録する。
func LoggingMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			logger.Info(req.Context(), "HTTP request started", map[string]interface{}{
				"method":      req.Method,
				"path":        req.URL.Path,
				"remote_addr": req.RemoteAddr,
				"user_agent":  req.UserAgent(),
				"request_id":  requestID(c),
			})

			err := next(c)

			duration := time.Since(start)
			fields := map[string]interface{}{
				"method":      req.Method,
				"path":        req.URL.Path,
				"route":       c.Path(),
				"status_code": c.Response().Status,
				"duration_ms": duration.Milliseconds(),
				"request_id":  requestID(c),
			}

			if err != nil {
				logger.Error(req.Context(), "HTTP request failed", err, fields)
			} else {
				logger.Info(req.Context(), "HTTP request completed", fields)
			}

			return err
		}
	}
}

// requestID RequestIDミドルウェアが付与したIDを取得
func requestID(c echo.Context) string {
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}

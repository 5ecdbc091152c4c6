package middleware

import (
	"bytes"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureLog 標準ロガーの出力を差し替えてテスト中のログを取得する
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(prev) })
	return &buf
}

func TestLoggingMiddleware_SuccessfulRequest(t *testing.T) {
	buf := captureLog(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "127.0.0.1:12345"
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set(echo.HeaderXRequestID, "req-1")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := LoggingMiddleware(newTestLogger())(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	out := buf.String()
	assert.Contains(t, out, "HTTP request started")
	assert.Contains(t, out, "HTTP request completed")
	assert.Contains(t, out, `"request_id":"req-1"`)
}

func TestLoggingMiddleware_FailedRequest(t *testing.T) {
	buf := captureLog(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	testErr := errors.New("test error")
	handler := LoggingMiddleware(newTestLogger())(func(c echo.Context) error {
		return testErr
	})

	err := handler(c)
	assert.Equal(t, testErr, err)
	assert.Contains(t, buf.String(), "HTTP request failed")
}

func TestLoggingMiddleware_OmitsQueryString(t *testing.T) {
	buf := captureLog(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/voice/cvv?amount=25&cc=4111111111111111&exp=1226", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := LoggingMiddleware(newTestLogger())(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, handler(c))

	out := buf.String()
	assert.Contains(t, out, "/voice/cvv")
	assert.NotContains(t, out, "4111111111111111")
}

package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// useSpanRecorder 記録用のTracerProviderをグローバルに設定する
func useSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return recorder
}

func attributeMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(attrs))
	for _, kv := range attrs {
		m[string(kv.Key)] = kv.Value
	}
	return m
}

func TestTracingMiddleware_SpanAttributes(t *testing.T) {
	recorder := useSpanRecorder(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/voice/expiry?amount=25&cc=4111111111111111", nil)
	req.Header.Set("User-Agent", "TwilioProxy/1.1")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/voice/:stage")

	handler := TracingMiddleware()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "POST /voice/:stage", span.Name())
	assert.Equal(t, trace.SpanKindServer, span.SpanKind())

	attrs := attributeMap(span.Attributes())
	assert.Equal(t, "/voice/expiry", attrs["http.target"].AsString())
	assert.Equal(t, "/voice/:stage", attrs["http.route"].AsString())
	assert.Equal(t, "TwilioProxy/1.1", attrs["http.user_agent"].AsString())
	assert.Equal(t, int64(http.StatusOK), attrs["http.status_code"].AsInt64())
	for _, v := range attrs {
		assert.NotContains(t, v.Emit(), "4111111111111111")
	}
}

func TestTracingMiddleware_Status(t *testing.T) {
	tests := []struct {
		name         string
		handler      echo.HandlerFunc
		expectedCode codes.Code
		expectEvents bool
	}{
		{
			name: "正常系: 成功はステータス未設定",
			handler: func(c echo.Context) error {
				return c.String(http.StatusOK, "ok")
			},
			expectedCode: codes.Unset,
		},
		{
			name: "異常系: ハンドラーエラーを記録",
			handler: func(c echo.Context) error {
				return errors.New("boom")
			},
			expectedCode: codes.Error,
			expectEvents: true,
		},
		{
			name: "異常系: 5xx応答",
			handler: func(c echo.Context) error {
				return c.NoContent(http.StatusServiceUnavailable)
			},
			expectedCode: codes.Error,
		},
		{
			name: "正常系: 4xx応答はエラー扱いしない",
			handler: func(c echo.Context) error {
				return c.NoContent(http.StatusForbidden)
			},
			expectedCode: codes.Unset,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := useSpanRecorder(t)

			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			c := e.NewContext(req, httptest.NewRecorder())
			c.SetPath("/health")

			_ = TracingMiddleware()(tt.handler)(c)

			spans := recorder.Ended()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.expectedCode, spans[0].Status().Code)
			assert.Equal(t, tt.expectEvents, len(spans[0].Events()) > 0)
		})
	}
}

func TestTracingMiddleware_ExtractsTraceContext(t *testing.T) {
	recorder := useSpanRecorder(t)
	prevPropagator := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prevPropagator) })

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/events", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/v1/admin/events")

	var inner trace.SpanContext
	handler := TracingMiddleware()(func(c echo.Context) error {
		inner = trace.SpanContextFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))

	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", inner.TraceID().String())
	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent().SpanID().String())
}

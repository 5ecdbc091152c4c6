package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"donation-server/internal/infrastructure/config"
	otelinfra "donation-server/internal/infrastructure/observability/otel"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func newTestLogger() *otelinfra.Logger {
	return otelinfra.NewLogger(noop.NewTracerProvider().Tracer("test"))
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.JWTConfig{
		Secret: "test-secret",
		Issuer: "donation-server",
	}
	now := time.Now()
	validClaims := jwt.MapClaims{
		"operator_id": "ops-1",
		"scope":       "admin",
		"iss":         "donation-server",
		"iat":         now.Unix(),
		"exp":         now.Add(time.Hour).Unix(),
	}

	tests := []struct {
		name           string
		header         func(t *testing.T) string
		expectedStatus int
		wantOperatorID string
	}{
		{
			name: "正常系: 有効な運用者トークン",
			header: func(t *testing.T) string {
				return "Bearer " + signToken(t, cfg.Secret, validClaims)
			},
			expectedStatus: http.StatusOK,
			wantOperatorID: "ops-1",
		},
		{
			name:           "異常系: Authorizationヘッダーなし",
			header:         func(t *testing.T) string { return "" },
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "異常系: Bearer以外の形式",
			header:         func(t *testing.T) string { return "Basic abc" },
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "異常系: トークンが空",
			header:         func(t *testing.T) string { return "Bearer " },
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "異常系: 壊れたトークン",
			header:         func(t *testing.T) string { return "Bearer expired.token.here" },
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "異常系: 異なるシークレットで署名",
			header: func(t *testing.T) string {
				return "Bearer " + signToken(t, "wrong-secret", validClaims)
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "異常系: 期限切れ",
			header: func(t *testing.T) string {
				return "Bearer " + signToken(t, cfg.Secret, jwt.MapClaims{
					"operator_id": "ops-1",
					"scope":       "admin",
					"iss":         "donation-server",
					"exp":         now.Add(-time.Minute).Unix(),
				})
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "異常系: operator_idなし",
			header: func(t *testing.T) string {
				return "Bearer " + signToken(t, cfg.Secret, jwt.MapClaims{
					"scope": "admin",
					"iss":   "donation-server",
					"exp":   now.Add(time.Hour).Unix(),
				})
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "異常系: 発行者が異なる",
			header: func(t *testing.T) string {
				return "Bearer " + signToken(t, cfg.Secret, jwt.MapClaims{
					"operator_id": "ops-1",
					"scope":       "admin",
					"iss":         "someone-else",
					"exp":         now.Add(time.Hour).Unix(),
				})
			},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/events", nil)
			if h := tt.header(t); h != "" {
				req.Header.Set(echo.HeaderAuthorization, h)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			var gotOperatorID string
			handler := AuthMiddleware(cfg, newTestLogger())(func(c echo.Context) error {
				gotOperatorID, _ = c.Get(ContextKeyOperatorID).(string)
				return c.String(http.StatusOK, "ok")
			})

			err := handler(c)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.wantOperatorID, gotOperatorID)
		})
	}
}

package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageHandler(t *testing.T) {
	h := NewPageHandler()
	tests := []struct {
		name        string
		handler     echo.HandlerFunc
		contentType string
		contains    string
	}{
		{name: "正常系: トップ", handler: h.Root, contentType: echo.MIMETextPlain, contains: "Donation server is running."},
		{name: "正常系: 寄付ページ", handler: h.Donate, contentType: echo.MIMETextHTML, contains: "<h1>Make a donation</h1>"},
		{name: "正常系: ヘルスチェック", handler: h.Health, contentType: echo.MIMEApplicationJSON, contains: `"status":"ok"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			require.NoError(t, tt.handler(c))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Header().Get(echo.HeaderContentType), tt.contentType)
			assert.Contains(t, rec.Body.String(), tt.contains)
		})
	}
}

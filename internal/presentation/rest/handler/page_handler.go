package handler

import (
	_ "embed"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed static/donate.html
var donatePage []byte

// PageHandler 公開ページのハンドラー
type PageHandler struct{}

// NewPageHandler 新しいPageHandlerを作成
func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

// Root 稼働確認用のトップページ
func (h *PageHandler) Root(c echo.Context) error {
	return c.String(http.StatusOK, "Donation server is running.")
}

// Donate 寄付案内ページ
func (h *PageHandler) Donate(c echo.Context) error {
	return c.HTMLBlob(http.StatusOK, donatePage)
}

// Health ヘルスチェック
// @Summary ヘルスチェック
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string "稼働中"
// @Router /health [get]
func (h *PageHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

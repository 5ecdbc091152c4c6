package handler

// GenerateTokenRequest トークン生成リクエスト
// @Description 運用者トークン生成リクエスト
type GenerateTokenRequest struct {
	OperatorID string `json:"operator_id" example:"ops-alice"`
}

// GenerateTokenResponse トークン生成レスポンス
// @Description トークン生成レスポンス
type GenerateTokenResponse struct {
	Token     string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJvcGVyYXRvcl9pZCI6Im9wcy1hbGljZSJ9.signature"`
	ExpiresIn int    `json:"expires_in" example:"3600"`
	TokenType string `json:"token_type" example:"Bearer"`
}

// ErrorResponse エラーレスポンス
// @Description エラーレスポンス
type ErrorResponse struct {
	Error   string `json:"error" example:"unauthorized"`
	Message string `json:"message" example:"Invalid or expired token"`
	Code    string `json:"code,omitempty" example:"operator_id_required"`
}

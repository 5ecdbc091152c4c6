package interceptor

import (
	"context"
	"testing"
	"time"

	"donation-server/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestAdminInterceptor(t *testing.T) {
	adminCfg := &config.AdminAPIConfig{Enabled: true, APIKey: "test-api-key"}
	jwtCfg := &config.JWTConfig{Secret: "test-secret", Issuer: "donation-server"}
	validToken := signToken(t, jwtCfg.Secret, operatorClaims(time.Now().Add(time.Hour)))

	tests := []struct {
		name         string
		method       string
		md           metadata.MD
		expectedCode codes.Code
	}{
		{
			name:         "正常系: ヘルスチェックは認証不要",
			method:       "/grpc.health.v1.Health/Check",
			md:           metadata.MD{},
			expectedCode: codes.OK,
		},
		{
			name:         "正常系: APIキー",
			method:       "/donation.admin.v1.EventLogService/ListEvents",
			md:           metadata.Pairs("x-api-key", "test-api-key"),
			expectedCode: codes.OK,
		},
		{
			name:         "正常系: 運用者トークン",
			method:       "/donation.admin.v1.EventLogService/ListEvents",
			md:           metadata.Pairs("authorization", "Bearer "+validToken),
			expectedCode: codes.OK,
		},
		{
			name:         "異常系: 不正なトークンはAPIキーにフォールバックしない",
			method:       "/donation.admin.v1.EventLogService/ListEvents",
			md:           metadata.Pairs("authorization", "Bearer bad", "x-api-key", "test-api-key"),
			expectedCode: codes.Unauthenticated,
		},
		{
			name:         "異常系: 認証情報なし",
			method:       "/donation.admin.v1.EventLogService/ListDonations",
			md:           metadata.MD{},
			expectedCode: codes.Unauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			interceptor := AdminInterceptor(adminCfg, jwtCfg, newTestLogger())
			ctx := metadata.NewIncomingContext(context.Background(), tt.md)
			info := &grpc.UnaryServerInfo{FullMethod: tt.method}

			_, err := interceptor(ctx, nil, info, okHandler)
			assert.Equal(t, tt.expectedCode, status.Code(err))
		})
	}
}

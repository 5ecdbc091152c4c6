package interceptor

import (
	"context"
	"strings"

	"donation-server/internal/infrastructure/config"
	otelinfra "donation-server/internal/infrastructure/observability/otel"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// healthServicePrefix 認証を要求しないヘルスチェックサービス
const healthServicePrefix = "/grpc.health.v1.Health/"

// AdminInterceptor 管理サービス用の認証インターセプター
// Authorizationメタデータがあれば運用者トークンで、なければAPIキーで認証する。
func AdminInterceptor(adminCfg *config.AdminAPIConfig, jwtCfg *config.JWTConfig, logger *otelinfra.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if strings.HasPrefix(info.FullMethod, healthServicePrefix) {
			return handler(ctx, req)
		}

		if hasAuthorization(ctx) {
			authed, err := authenticate(ctx, jwtCfg, logger)
			if err != nil {
				return nil, err
			}
			return handler(authed, req)
		}

		if err := checkAPIKey(ctx, adminCfg, logger); err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

func hasAuthorization(ctx context.Context) bool {
	md, ok := metadata.FromIncomingContext(ctx)
	return ok && len(md.Get("authorization")) > 0
}

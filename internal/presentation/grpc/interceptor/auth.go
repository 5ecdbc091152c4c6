package interceptor

import (
	"context"
	"strings"

	authapp "donation-server/internal/application/auth"
	"donation-server/internal/infrastructure/config"
	otelinfra "donation-server/internal/infrastructure/observability/otel"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type operatorIDKey struct{}

// OperatorIDFromContext 認証済みの運用者IDを取得
func OperatorIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(operatorIDKey{}).(string)
	return id, ok
}

// AuthInterceptor JWT認証インターセプター
func AuthInterceptor(cfg *config.JWTConfig, logger *otelinfra.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		ctx, err := authenticate(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

func authenticate(ctx context.Context, cfg *config.JWTConfig, logger *otelinfra.Logger) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		logger.Warn(ctx, "Missing metadata", nil)
		return ctx, status.Error(codes.Unauthenticated, "missing metadata")
	}

	authHeaders := md.Get("authorization")
	if len(authHeaders) == 0 {
		logger.Warn(ctx, "Missing authorization header", nil)
		return ctx, status.Error(codes.Unauthenticated, "missing authorization header")
	}

	// Bearerトークンの形式を確認
	parts := strings.SplitN(authHeaders[0], " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		logger.Warn(ctx, "Invalid authorization header format", nil)
		return ctx, status.Error(codes.Unauthenticated, "invalid authorization header format")
	}

	claims, err := authapp.ParseToken(cfg, parts[1])
	if err != nil {
		logger.Warn(ctx, "Invalid token", map[string]interface{}{
			"error": err.Error(),
		})
		return ctx, status.Error(codes.Unauthenticated, "invalid or expired token")
	}

	return context.WithValue(ctx, operatorIDKey{}, claims.OperatorID), nil
}

package interceptor

import (
	"context"
	"net"
	"strings"

	"donation-server/internal/infrastructure/config"
	otelinfra "donation-server/internal/infrastructure/observability/otel"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// MetadataAPIKey APIキーのメタデータキー
const MetadataAPIKey = "x-api-key"

// APIKeyInterceptor APIキー認証インターセプター
func APIKeyInterceptor(cfg *config.AdminAPIConfig, logger *otelinfra.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if err := checkAPIKey(ctx, cfg, logger); err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

func checkAPIKey(ctx context.Context, cfg *config.AdminAPIConfig, logger *otelinfra.Logger) error {
	// 管理APIが無効化されている場合はエラー
	if !cfg.Enabled {
		logger.Warn(ctx, "Admin API is disabled", nil)
		return status.Error(codes.PermissionDenied, "admin API is disabled")
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		logger.Warn(ctx, "Missing metadata", nil)
		return status.Error(codes.Unauthenticated, "missing metadata")
	}

	apiKeys := md.Get(MetadataAPIKey)
	if len(apiKeys) == 0 || apiKeys[0] == "" {
		logger.Warn(ctx, "Missing X-API-Key metadata", nil)
		return status.Error(codes.Unauthenticated, "missing X-API-Key metadata")
	}

	if !cfg.KeyMatches(apiKeys[0]) {
		logger.Warn(ctx, "Invalid API key", nil)
		return status.Error(codes.Unauthenticated, "invalid API key")
	}

	if clientIP := clientIPFromContext(ctx, md); !cfg.AllowsIP(clientIP) {
		logger.Warn(ctx, "IP address not allowed", map[string]interface{}{
			"ip": clientIP,
		})
		return status.Error(codes.PermissionDenied, "IP address not allowed")
	}

	return nil
}

// clientIPFromContext クライアントのIPアドレスを取得
// プロキシヘッダーを優先し、なければ接続元アドレスを使う。
func clientIPFromContext(ctx context.Context, md metadata.MD) string {
	if forwardedFor := md.Get("x-forwarded-for"); len(forwardedFor) > 0 {
		ips := strings.Split(forwardedFor[0], ",")
		return strings.TrimSpace(ips[0])
	}

	if realIP := md.Get("x-real-ip"); len(realIP) > 0 {
		return realIP[0]
	}

	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(p.Addr.String())
	if err != nil {
		return p.Addr.String()
	}
	return host
}

package interceptor

import (
	"context"
	"time"

	otelinfra "donation-server/internal/infrastructure/observability/otel"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// LoggingInterceptor gRPC呼び出しのログを記録
func LoggingInterceptor(logger *otelinfra.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()

		resp, err := handler(ctx, req)

		fields := map[string]interface{}{
			"method":      info.FullMethod,
			"code":        status.Code(err).String(),
			"duration_ms": time.Since(start).Milliseconds(),
		}
		if err != nil {
			logger.Warn(ctx, "gRPC call failed", fields)
		} else {
			logger.Info(ctx, "gRPC call completed", fields)
		}

		return resp, err
	}
}

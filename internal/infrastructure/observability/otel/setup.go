package otel

import (
	"context"
	"errors"

	"donation-server/internal/infrastructure/config"
)

// Setup トレーサーとメーターをまとめて初期化し、両方を停止する関数を返す
func Setup(cfg *config.OpenTelemetryConfig) (func(context.Context) error, error) {
	tracerShutdown, err := InitTracer(cfg)
	if err != nil {
		return nil, err
	}

	meterShutdown, err := InitMeter(cfg)
	if err != nil {
		_ = tracerShutdown(context.Background())
		return nil, err
	}

	return func(ctx context.Context) error {
		return errors.Join(meterShutdown(ctx), tracerShutdown(ctx))
	}, nil
}

package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics メトリクス定義
type Metrics struct {
	// 決済試行数(チャネル・結果別)
	DonationCount metric.Int64Counter

	// 承認された寄付金額
	DonationAmount metric.Float64Histogram

	// 入力ステップの遷移数
	StepTransitionCount metric.Int64Counter

	// ゲートウェイ応答時間
	GatewayLatency metric.Float64Histogram

	// リクエスト数
	RequestCount metric.Int64Counter

	// レスポンス時間
	ResponseTime metric.Float64Histogram

	// エラー数
	ErrorCount metric.Int64Counter
}

// NewMetrics 新しいMetricsを作成
func NewMetrics(meterName string) (*Metrics, error) {
	meter := otel.Meter(meterName)

	donationCount, err := meter.Int64Counter(
		"donations_total",
		metric.WithDescription("Total number of payment attempts"),
	)
	if err != nil {
		return nil, err
	}

	donationAmount, err := meter.Float64Histogram(
		"donation_amount",
		metric.WithDescription("Approved donation amount"),
		metric.WithUnit("USD"),
	)
	if err != nil {
		return nil, err
	}

	stepTransitionCount, err := meter.Int64Counter(
		"step_transitions_total",
		metric.WithDescription("Total number of input steps handled"),
	)
	if err != nil {
		return nil, err
	}

	gatewayLatency, err := meter.Float64Histogram(
		"gateway_latency_seconds",
		metric.WithDescription("Payment gateway latency in seconds"),
	)
	if err != nil {
		return nil, err
	}

	requestCount, err := meter.Int64Counter(
		"requests_total",
		metric.WithDescription("Total number of requests"),
	)
	if err != nil {
		return nil, err
	}

	responseTime, err := meter.Float64Histogram(
		"response_time_seconds",
		metric.WithDescription("Response time in seconds"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"errors_total",
		metric.WithDescription("Total number of errors"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		DonationCount:       donationCount,
		DonationAmount:      donationAmount,
		StepTransitionCount: stepTransitionCount,
		GatewayLatency:      gatewayLatency,
		RequestCount:        requestCount,
		ResponseTime:        responseTime,
		ErrorCount:          errorCount,
	}, nil
}

// RecordDonation 決済試行を記録
func (m *Metrics) RecordDonation(ctx context.Context, channel, status string) {
	m.DonationCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("channel", channel),
			attribute.String("status", status),
		),
	)
}

// RecordDonationAmount 承認された金額を記録
func (m *Metrics) RecordDonationAmount(ctx context.Context, channel string, amount float64) {
	m.DonationAmount.Record(ctx, amount,
		metric.WithAttributes(
			attribute.String("channel", channel),
		),
	)
}

// RecordStep 入力ステップの処理結果を記録(resultは"advanced"/"invalid"など)
func (m *Metrics) RecordStep(ctx context.Context, channel, step, result string) {
	m.StepTransitionCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("channel", channel),
			attribute.String("step", step),
			attribute.String("result", result),
		),
	)
}

// RecordGatewayLatency ゲートウェイ応答時間を記録
func (m *Metrics) RecordGatewayLatency(ctx context.Context, outcome string, duration float64) {
	m.GatewayLatency.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("outcome", outcome),
		),
	)
}

// RecordRequest リクエストを記録
func (m *Metrics) RecordRequest(ctx context.Context, method, path string) {
	m.RequestCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordResponseTime レスポンス時間を記録
func (m *Metrics) RecordResponseTime(ctx context.Context, method, path string, duration float64) {
	m.ResponseTime.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordError エラーを記録
func (m *Metrics) RecordError(ctx context.Context, errorType string) {
	m.ErrorCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("error_type", errorType),
		),
	)
}

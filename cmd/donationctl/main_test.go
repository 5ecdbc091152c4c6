package main

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	authapp "donation-server/internal/application/auth"
	donationapp "donation-server/internal/application/donation"
	eventlogapp "donation-server/internal/application/eventlog"
	"donation-server/internal/domain/eventlog"
	"donation-server/internal/domain/payment"
	"donation-server/internal/infrastructure/config"
	otelinfra "donation-server/internal/infrastructure/observability/otel"
	"donation-server/internal/infrastructure/persistence/memory"
	grpcserver "donation-server/internal/presentation/grpc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestEventsCmd_REST(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/admin/events", r.URL.Path)
		assert.Equal(t, "Bearer op-token", r.Header.Get("Authorization"))
		assert.Equal(t, "sms", r.URL.Query().Get("channel"))
		assert.Equal(t, "true", r.URL.Query().Get("errors_only"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"events":[{"id":"e1","timestamp":"2024-01-01T12:00:00Z","channel":"sms","correlation_id":"+15551234567","step":"awaiting_expiry","data":"13/99","error":"Invalid expiry"}],"total":1,"capacity":100}`))
	}))
	defer server.Close()

	out, err := runCLI(t, "--server", server.URL, "--token", "op-token", "events", "--channel", "sms", "--errors")
	require.NoError(t, err)
	assert.Contains(t, out, "CORRELATION")
	assert.Contains(t, out, "awaiting_expiry")
	assert.Contains(t, out, "Invalid expiry")
}

func TestEventsCmd_RequiresToken(t *testing.T) {
	t.Setenv("DONATION_TOKEN", "")
	_, err := runCLI(t, "--server", "http://127.0.0.1:1", "--token", "", "events")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "operator token is required")
}

func TestDonationsCmd_REST(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/admin/donations":
			assert.Equal(t, "5", r.URL.Query().Get("limit"))
			_, _ = w.Write([]byte(`{"donations":[{"donation_id":"d-1","channel":"voice","caller":"+15551234567","amount":"25","card_last4":"1111","status":"approved","reference_number":"ref-1","created_at":"2024-01-01T12:00:00Z"}],"count":1}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"donation_not_found","message":"donation not found"}`))
		}
	}))
	defer server.Close()

	t.Run("正常系: 一覧をJSONで出力", func(t *testing.T) {
		out, err := runCLI(t, "--server", server.URL, "--token", "op-token", "--json", "donations", "--limit", "5")
		require.NoError(t, err)
		assert.Contains(t, out, `"reference_number": "ref-1"`)
	})

	t.Run("異常系: 存在しない寄付", func(t *testing.T) {
		_, err := runCLI(t, "--server", server.URL, "--token", "op-token", "donations", "get", "missing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404 donation_not_found")
	})
}

func TestTokenCmd_Local(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("JWT_ISSUER", "donation-server")

	out, err := runCLI(t, "token", "ops-1")
	require.NoError(t, err)

	claims, err := authapp.ParseToken(&config.JWTConfig{Secret: "cli-secret", Issuer: "donation-server"}, strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ops-1", claims.OperatorID)
}

func TestTokenCmd_Remote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/auth/token", r.URL.Path)
		if r.Header.Get("X-API-Key") != "admin-key" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized","message":"Invalid API key"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"remote-token","expires_in":3600,"token_type":"Bearer"}`))
	}))
	defer server.Close()

	t.Run("正常系: サーバー発行", func(t *testing.T) {
		out, err := runCLI(t, "--server", server.URL, "--api-key", "admin-key", "token", "--remote", "ops-1")
		require.NoError(t, err)
		assert.Equal(t, "remote-token\n", out)
	})

	t.Run("異常系: APIキー不一致", func(t *testing.T) {
		_, err := runCLI(t, "--server", server.URL, "--api-key", "wrong", "token", "--remote", "ops-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})
}

type stubGateway struct{}

func (stubGateway) Charge(ctx context.Context, req *payment.ChargeRequest) (*payment.ChargeResult, error) {
	return &payment.ChargeResult{Approved: true}, nil
}

func TestEventsCmd_GRPC(t *testing.T) {
	logger := otelinfra.NewLogger(noop.NewTracerProvider().Tracer("test"))
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)

	eventLogService := eventlogapp.NewEventLogApplicationService(eventlog.NewRing(eventlog.DefaultCapacity, true), logger)
	donationService := donationapp.NewDonationApplicationService(stubGateway{}, memory.NewDonationRepository(), eventLogService, logger, metrics)
	eventLogService.Record(context.Background(), eventlog.Entry{Channel: "voice", CorrelationID: "CA123", Step: "amount", Data: "25"})

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	cfg := &config.Config{AdminAPI: config.AdminAPIConfig{Enabled: true, APIKey: "admin-key"}}
	srv, err := grpcserver.NewServerWithListener(cfg, logger, grpcserver.Services{EventLog: eventLogService, Donation: donationService}, lis, 0)
	require.NoError(t, err)
	go func() { _ = srv.Start() }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	})

	out, err := runCLI(t, "--grpc", lis.Addr().String(), "--api-key", "admin-key", "--token", "", "events")
	require.NoError(t, err)
	assert.Contains(t, out, "CA123")
	assert.Contains(t, out, "voice")
}
